package consolidator

import (
	"regexp"
	"sort"
	"strings"
)

// NoSize is the sentinel used when an item carries no recognizable size.
const NoSize = "no-size"

var (
	parenRe      = regexp.MustCompile(`\(([^)]+)\)`)
	sizeParenRe  = regexp.MustCompile(`(?i)\((Small|Medium|Large|Regular)\)`)
	sizeTokenRe  = regexp.MustCompile(`(?i)^(Small|Medium|Large|Regular)$`)
	sizePrefixRe = regexp.MustCompile(`^(small|medium|large|regular)\s*-?\s*`)
)

// ItemMatcher computes the canonical identity key under which order items
// aggregate into a single batch line. Two items share a key iff the kitchen
// would prepare them identically: same base dish, same size, same
// substitutions, same modifier set (order-insensitive).
type ItemMatcher struct{}

func NewItemMatcher() *ItemMatcher {
	return &ItemMatcher{}
}

// Normalize trims and lowercases. Empty input yields an empty string.
func (m *ItemMatcher) Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ExtractModifiers splits a trailing parenthetical "Name (Mod1, Mod2)" into
// the base name and its modifier list. Without parentheses the whole trimmed
// text is the base name.
func (m *ItemMatcher) ExtractModifiers(itemText string) (string, []string) {
	match := parenRe.FindStringSubmatch(itemText)
	if match == nil {
		return strings.TrimSpace(itemText), nil
	}

	base := strings.TrimSpace(parenRe.ReplaceAllString(itemText, ""))
	parts := strings.Split(match[1], ",")
	modifiers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			modifiers = append(modifiers, p)
		}
	}
	return base, modifiers
}

// ExtractSize finds a size token either as a parenthetical ("Item (Small)")
// or among the item's modifiers. Returns "" when none is present.
func (m *ItemMatcher) ExtractSize(itemText string) string {
	if match := sizeParenRe.FindStringSubmatch(itemText); match != nil {
		return match[1]
	}

	_, modifiers := m.ExtractModifiers(itemText)
	for _, mod := range modifiers {
		if sizeTokenRe.MatchString(strings.TrimSpace(mod)) {
			return strings.TrimSpace(mod)
		}
	}
	return ""
}

// GenerateItemKey builds the compound aggregation key
// size|category|baseName|sortedModifiers. The category segment is omitted
// when empty, the modifiers segment when the item has none.
//
// Two dish families get special treatment so that size-qualified names stay
// distinct and rice substitutions act as a pseudo-size:
//   - fried rice dishes whose name already leads with a size word keep the
//     size in the base name ("Large - Fried Rice" vs plain "Fried Rice");
//   - a size that itself names a fried rice dish is folded into the base
//     name instead of the size slot;
//   - urban bowls with an explicit rice substitution use it as the size.
func (m *ItemMatcher) GenerateItemKey(itemName, size, category, riceSubstitution string) string {
	base, modifiers := m.ExtractModifiers(itemName)
	normalizedBase := m.Normalize(base)

	if size == "" {
		size = m.ExtractSize(itemName)
		if size == "" {
			size = NoSize
		}
	}

	if strings.Contains(normalizedBase, "fried rice") && size != NoSize {
		if sizePrefixRe.MatchString(normalizedBase) {
			// Size is already part of the name; leave the base intact.
		} else if strings.Contains(strings.ToLower(size), "fried rice") {
			// Rice substitution used as a size.
			normalizedBase = normalizedBase + " - " + m.Normalize(size)
			size = NoSize
		}
	}

	if strings.Contains(normalizedBase, "urban bowl") && riceSubstitution != "" {
		size = riceSubstitution
	}

	parts := []string{m.Normalize(size)}
	if category != "" {
		parts = append(parts, m.Normalize(category))
	}
	parts = append(parts, normalizedBase)

	if len(modifiers) > 0 {
		normalized := make([]string, len(modifiers))
		for i, mod := range modifiers {
			normalized[i] = m.Normalize(mod)
		}
		sort.Strings(normalized)
		parts = append(parts, strings.Join(normalized, ","))
	}

	return strings.Join(parts, "|")
}

// SizeGroupKey normalizes a size for display grouping.
func (m *ItemMatcher) SizeGroupKey(size string) string {
	if size == "" {
		return NoSize
	}
	return m.Normalize(size)
}

// ItemsIdentical reports whether two raw item texts describe the same item:
// equal base names and equal modifier sets, ignoring case and modifier order.
func (m *ItemMatcher) ItemsIdentical(item1, item2 string) bool {
	base1, mods1 := m.ExtractModifiers(item1)
	base2, mods2 := m.ExtractModifiers(item2)

	if m.Normalize(base1) != m.Normalize(base2) {
		return false
	}
	if len(mods1) != len(mods2) {
		return false
	}

	sorted1 := normalizeAndSort(m, mods1)
	sorted2 := normalizeAndSort(m, mods2)
	for i := range sorted1 {
		if sorted1[i] != sorted2[i] {
			return false
		}
	}
	return true
}

func normalizeAndSort(m *ItemMatcher, mods []string) []string {
	out := make([]string, len(mods))
	for i, mod := range mods {
		out[i] = m.Normalize(mod)
	}
	sort.Strings(out)
	return out
}
