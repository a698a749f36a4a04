package consolidator

import "testing"

func TestClassify(t *testing.T) {
	c := NewCategoryClassifier(nil)

	tests := []struct {
		name    string
		item    string
		wantTop string
		wantSub string
	}{
		{name: "riceBowlWithProtein", item: "Small Crispy Chicken Rice Bowl", wantTop: CategoryRiceBowls, wantSub: "crispy-chicken"},
		{name: "urbanBowlWithProtein", item: "Steak Urban Bowl", wantTop: CategoryUrbanBowls, wantSub: "steak"},
		{name: "urbanBowlWithoutProtein", item: "Garden Urban Bowl", wantTop: CategoryUrbanBowls, wantSub: "other"},
		{name: "baoNutIsDessert", item: "Cinnamon Bao-Nut", wantTop: CategoryDesserts},
		{name: "baoOutIsMeal", item: "Bao Out", wantTop: CategoryMeals},
		{name: "bowlOfRiceMealIsMeal", item: "Bowl of Rice Meal", wantTop: CategoryMeals},
		{name: "plainBao", item: "Pork Belly Bao", wantTop: CategoryBao},
		{name: "dumplings", item: "Pork Dumplings", wantTop: CategoryDumplings},
		{name: "appetizer", item: "Crab Rangoon", wantTop: CategoryAppetizers},
		{name: "drink", item: "Thai Tea", wantTop: CategoryDrinks},
		{name: "side", item: "Waffle Fries", wantTop: CategorySides},
		{name: "dessert", item: "Mochi Ice Cream", wantTop: CategoryDesserts},
		{name: "proteinOnlyFallsToUncategorizedSub", item: "Grilled Salmon Plate", wantTop: CategoryUncategorized, wantSub: "salmon"},
		{name: "plainChickenFallback", item: "Chicken Plate", wantTop: CategoryUncategorized, wantSub: "chicken"},
		{name: "unknownItem", item: "Mystery Box", wantTop: CategoryUncategorized},
		{name: "emptyName", item: "", wantTop: CategoryUncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.item)
			if got.Top != tt.wantTop {
				t.Errorf("Classify(%q) Top = %q, want %q", tt.item, got.Top, tt.wantTop)
			}
			if got.Sub != tt.wantSub {
				t.Errorf("Classify(%q) Sub = %q, want %q", tt.item, got.Sub, tt.wantSub)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	c := NewCategoryClassifier(nil)

	for _, item := range []string{"", "  ", "???", "Completely Unknown Dish"} {
		got := c.Classify(item)
		if got.Top == "" {
			t.Errorf("Classify(%q) returned an empty category", item)
		}
	}
}

func TestDisplayName(t *testing.T) {
	c := NewCategoryClassifier(nil)

	tests := []struct {
		name     string
		category string
		want     string
	}{
		{name: "knownCategory", category: CategoryRiceBowls, want: "Rice Bowls"},
		{name: "unknownCategoryFallsBackToKey", category: "weird", want: "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.DisplayName(tt.category); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}

func TestIsHierarchical(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     bool
	}{
		{name: "riceBowls", category: CategoryRiceBowls, want: true},
		{name: "urbanBowls", category: CategoryUrbanBowls, want: true},
		{name: "drinks", category: CategoryDrinks, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHierarchical(tt.category); got != tt.want {
				t.Errorf("IsHierarchical(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}
