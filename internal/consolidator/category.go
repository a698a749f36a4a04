package consolidator

import (
	"strings"

	"github.com/appetiteclub/apt"
)

// Category is the classification attached to a batch item for grouping and
// display. Hierarchical families (rice bowls, urban bowls) also carry a
// protein sub-category.
type Category struct {
	Top     string `json:"top" bson:"top"`
	TopName string `json:"top_name" bson:"top_name"`
	Sub     string `json:"sub,omitempty" bson:"sub,omitempty"`
	SubName string `json:"sub_name,omitempty" bson:"sub_name,omitempty"`
}

const (
	CategoryRiceBowls     = "riceBowls"
	CategoryUrbanBowls    = "urbanBowls"
	CategoryBao           = "bao"
	CategoryMeals         = "meals"
	CategoryAppetizers    = "appetizers"
	CategoryDumplings     = "dumplings"
	CategoryDesserts      = "desserts"
	CategoryDrinks        = "drinks"
	CategorySides         = "sides"
	CategoryUncategorized = "uncategorized"
)

// HierarchicalCategories are the families whose projections nest items under
// a protein sub-category.
var HierarchicalCategories = []string{CategoryRiceBowls, CategoryUrbanBowls}

// DisplayOrder fixes the bucket ordering used by the size-group projection.
// Unknown categories are appended after these.
var DisplayOrder = []string{
	CategoryRiceBowls,
	CategoryUrbanBowls,
	CategoryBao,
	CategoryMeals,
	CategoryAppetizers,
	CategoryDumplings,
	CategoryDesserts,
	CategoryDrinks,
	CategorySides,
	CategoryUncategorized,
}

type keywordRule struct {
	category string
	name     string
	keywords []string
}

type proteinRule struct {
	sub      string
	name     string
	keywords []string
}

// CategoryClassifier maps raw item names to exactly one category via ordered
// keyword matching. Classification is total: anything unmatched lands in the
// uncategorized bucket. The keyword tables are fixed at construction; extra
// keywords can be appended from configuration.
type CategoryClassifier struct {
	rules    []keywordRule
	proteins []proteinRule
	names    map[string]string
}

// NewCategoryClassifier builds the classifier with its built-in tables plus
// any "consolidator.categories.<key>" extensions found in config. A nil
// config keeps the built-in tables only.
func NewCategoryClassifier(config *apt.Config) *CategoryClassifier {
	c := &CategoryClassifier{
		// Order matters: bao-nut desserts must be caught before generic
		// bao, dumplings before broader protein matches.
		rules: []keywordRule{
			{CategoryDesserts, "Desserts", []string{"bao-nut", "baonut", "bao nut", "dessert", "sweet treat", "cinnamon sugar bao", "ice cream", "mochi"}},
			{CategoryMeals, "Meals", []string{"bao out", "bowl of rice meal"}},
			{CategoryDumplings, "Dumplings", []string{"dumpling"}},
			{CategoryAppetizers, "Appetizers", []string{"crab rangoon", "spring roll", "egg roll", "starter"}},
			{CategoryDrinks, "Drinks", []string{"tea", "coffee", "soda", "juice", "lemonade", "water", "beverage"}},
			{CategorySides, "Sides", []string{"waffle fries", "side of"}},
		},
		proteins: []proteinRule{
			{"pork-belly", "Pork Belly", []string{"pork belly"}},
			{"grilled-chicken", "Grilled Chicken", []string{"grilled chicken", "grilled orange chicken", "grilled sweet", "grilled garlic aioli chicken", "grilled bulgogi", "chicken bulgogi"}},
			{"crispy-chicken", "Crispy Chicken", []string{"crispy chicken", "crispy orange chicken", "crispy garlic", "crispy sesame"}},
			{"steak", "Steak", []string{"steak"}},
			{"salmon", "Salmon", []string{"salmon"}},
			{"shrimp", "Shrimp", []string{"shrimp"}},
			{"fish", "Crispy Fish", []string{"fish"}},
			{"tofu", "Tofu", []string{"tofu"}},
			{"vegetarian", "Vegetarian", []string{"cauliflower", "vegetable", "veggie", "nugget"}},
		},
		names: map[string]string{
			CategoryRiceBowls:     "Rice Bowls",
			CategoryUrbanBowls:    "Urban Bowls",
			CategoryBao:           "Bao",
			CategoryMeals:         "Meals",
			CategoryAppetizers:    "Appetizers",
			CategoryDumplings:     "Dumplings",
			CategoryDesserts:      "Desserts",
			CategoryDrinks:        "Drinks",
			CategorySides:         "Sides",
			CategoryUncategorized: "Uncategorized",
		},
	}
	c.applyConfigExtensions(config)
	return c
}

func (c *CategoryClassifier) applyConfigExtensions(config *apt.Config) {
	if config == nil {
		return
	}
	for i := range c.rules {
		extra, _ := config.GetString("consolidator.categories." + c.rules[i].category)
		if extra == "" {
			continue
		}
		for _, kw := range strings.Split(extra, ",") {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				c.rules[i].keywords = append(c.rules[i].keywords, kw)
			}
		}
	}
}

// Classify maps an item name to exactly one category. The bowl families are
// checked first since they own their protein sub-categorization; the ordered
// keyword rules follow; a protein+shape heuristic pass catches what the
// keywords missed.
func (c *CategoryClassifier) Classify(itemName string) Category {
	if strings.TrimSpace(itemName) == "" {
		return c.uncategorized()
	}

	lower := strings.ToLower(itemName)

	if isRiceBowlName(lower) {
		cat := Category{Top: CategoryRiceBowls, TopName: c.names[CategoryRiceBowls]}
		c.attachProtein(&cat, lower)
		return cat
	}

	if strings.Contains(lower, "urban bowl") {
		cat := Category{Top: CategoryUrbanBowls, TopName: c.names[CategoryUrbanBowls]}
		c.attachProtein(&cat, lower)
		return cat
	}

	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Category{Top: rule.category, TopName: rule.name}
			}
		}
	}

	// Bao needs a word-boundary check so "bao out" (a meal, handled above)
	// and "bao-nut" (a dessert) do not match.
	if strings.Contains(lower, " bao") || strings.HasSuffix(lower, "bao") || strings.HasPrefix(lower, "bao ") {
		return Category{Top: CategoryBao, TopName: c.names[CategoryBao]}
	}

	// Heuristic pass: a recognizable protein on its own is enough to file
	// the item under a protein bucket of the uncategorized group.
	if sub, name, ok := c.matchProtein(lower); ok {
		return Category{Top: CategoryUncategorized, TopName: c.names[CategoryUncategorized], Sub: sub, SubName: name}
	}

	return c.uncategorized()
}

func (c *CategoryClassifier) uncategorized() Category {
	return Category{Top: CategoryUncategorized, TopName: c.names[CategoryUncategorized]}
}

func (c *CategoryClassifier) attachProtein(cat *Category, lowerName string) {
	if sub, name, ok := c.matchProtein(lowerName); ok {
		cat.Sub = sub
		cat.SubName = name
		return
	}
	cat.Sub = "other"
	cat.SubName = "Other"
}

func (c *CategoryClassifier) matchProtein(lowerName string) (string, string, bool) {
	for _, p := range c.proteins {
		for _, kw := range p.keywords {
			if strings.Contains(lowerName, kw) {
				return p.sub, p.name, true
			}
		}
	}
	// Plain "chicken" without a cooking style still counts.
	if strings.Contains(lowerName, "chicken") {
		if strings.Contains(lowerName, "grilled") {
			return "grilled-chicken", "Grilled Chicken", true
		}
		if strings.Contains(lowerName, "crispy") {
			return "crispy-chicken", "Crispy Chicken", true
		}
		return "chicken", "Chicken", true
	}
	return "", "", false
}

// DisplayName resolves a category key to its display name, falling back to
// the key itself for unknown categories.
func (c *CategoryClassifier) DisplayName(category string) string {
	if name, ok := c.names[category]; ok {
		return name
	}
	return category
}

func isRiceBowlName(lower string) bool {
	return strings.Contains(lower, "rice bowl") ||
		strings.Contains(lower, "ricebowl") ||
		(strings.Contains(lower, "rice") && strings.Contains(lower, "bowl"))
}

// IsHierarchical reports whether a category's projection nests items under
// protein sub-categories.
func IsHierarchical(category string) bool {
	for _, h := range HierarchicalCategories {
		if h == category {
			return true
		}
	}
	return false
}
