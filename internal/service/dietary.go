package service

import (
	"strings"

	"github.com/mealmatchy/backend/internal/models"
)

// RestrictionProfile is the combined exclusion input collected on the diet
// page: a price ceiling, categorical tags and comma-separated free text.
type RestrictionProfile struct {
	BudgetCeiling *int     `json:"budget_ceiling,omitempty"`
	Allergies     []string `json:"allergies"`
	Dislikes      []string `json:"dislikes"`
	Religions     []string `json:"religions"`
	ExtraAllergy  string   `json:"extra_allergy"`
	ExtraDislike  string   `json:"extra_dislike"`
}

// IsEmpty reports whether the profile excludes nothing.
func (p RestrictionProfile) IsEmpty() bool {
	return p.BudgetCeiling == nil &&
		len(p.Allergies) == 0 && len(p.Dislikes) == 0 && len(p.Religions) == 0 &&
		strings.TrimSpace(p.ExtraAllergy) == "" && strings.TrimSpace(p.ExtraDislike) == ""
}

// synonyms expands an allergy/dislike tag into the keywords that flag it in
// free-form menu text. Tags absent from the table pass through verbatim.
var synonyms = map[string][]string{
	"pork":      {"pork", "pork belly", "crispy pork", "minced pork", "bacon", "ham"},
	"chicken":   {"chicken"},
	"beef":      {"beef", "veal", "oxtail"},
	"shrimp":    {"shrimp", "prawn"},
	"seafood":   {"seafood", "squid", "octopus", "shellfish", "crab", "clam", "mussel", "oyster"},
	"mushroom":  {"mushroom"},
	"onion":     {"onion", "shallot", "spring onion"},
	"offal":     {"offal", "liver", "intestine", "gizzard", "tripe"},
	"coriander": {"coriander", "cilantro"},
	"garlic":    {"garlic"},
	"dairy":     {"milk", "cheese", "butter", "cream", "yogurt"},
	"egg":       {"egg", "omelette"},
	"gluten":    {"wheat", "flour", "gluten", "noodle", "bread", "batter"},
	"nuts":      {"peanut", "almond", "cashew", "walnut", "nut"},
	"alcohol":   {"alcohol", "wine", "beer", "rum", "whisky", "sake", "mirin"},
}

// religionCategories maps a religion/culture tag onto the synonym categories
// it forbids. Each category key is expanded through the synonyms table.
var religionCategories = map[string][]string{
	"halal":      {"pork", "alcohol"},
	"vegetarian": {"pork", "chicken", "beef", "shrimp", "seafood", "offal"},
	"vegan":      {"pork", "chicken", "beef", "shrimp", "seafood", "offal", "dairy", "egg"},
	"no-alcohol": {"alcohol"},
}

// CandidateSchema describes which searchable axes an entity type exposes.
// Each accessor returns ok=false when the entity lacks that axis, which
// silently skips it. The table is built at startup; no runtime reflection.
type CandidateSchema struct {
	Name            func(v any) (string, bool)
	Description     func(v any) (string, bool)
	RestaurantName  func(v any) (string, bool)
	IngredientNames func(v any) ([]string, bool)
	Price           func(v any) (int, bool)
}

// DietaryFilter excludes menu candidates that violate a restriction profile.
type DietaryFilter struct {
	schemas map[string]CandidateSchema
}

func NewDietaryFilter() *DietaryFilter {
	f := &DietaryFilter{schemas: make(map[string]CandidateSchema)}
	f.schemas["menu"] = CandidateSchema{
		Name: func(v any) (string, bool) {
			m, ok := v.(*models.Menu)
			if !ok {
				return "", false
			}
			return m.Name, true
		},
		Description: func(v any) (string, bool) {
			m, ok := v.(*models.Menu)
			if !ok {
				return "", false
			}
			return m.Description, true
		},
		RestaurantName: func(v any) (string, bool) {
			m, ok := v.(*models.Menu)
			if !ok {
				return "", false
			}
			return m.RestaurantName, true
		},
		IngredientNames: func(v any) ([]string, bool) {
			m, ok := v.(*models.Menu)
			if !ok {
				return nil, false
			}
			names := make([]string, 0, len(m.Ingredients))
			for _, ing := range m.Ingredients {
				names = append(names, ing.Name)
			}
			return names, true
		},
		Price: func(v any) (int, bool) {
			m, ok := v.(*models.Menu)
			if !ok {
				return 0, false
			}
			return m.Price, true
		},
	}
	return f
}

// BannedKeywords expands the profile's tags and free text into the full
// lowercase keyword set. The result is a set union: overlapping synonym
// expansions collapse into one entry.
func (f *DietaryFilter) BannedKeywords(profile RestrictionProfile) []string {
	seen := make(map[string]bool)
	var banned []string
	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" || seen[word] {
			return
		}
		seen[word] = true
		banned = append(banned, word)
	}
	expandTag := func(tag string) {
		key := strings.ToLower(strings.TrimSpace(tag))
		if words, ok := synonyms[key]; ok {
			for _, w := range words {
				add(w)
			}
			return
		}
		add(tag)
	}

	for _, tag := range profile.Allergies {
		expandTag(tag)
	}
	for _, tag := range profile.Dislikes {
		expandTag(tag)
	}
	for _, tag := range profile.Religions {
		key := strings.ToLower(strings.TrimSpace(tag))
		categories, ok := religionCategories[key]
		if !ok {
			add(tag)
			continue
		}
		for _, category := range categories {
			expandTag(category)
		}
	}
	for _, field := range []string{profile.ExtraAllergy, profile.ExtraDislike} {
		for _, token := range strings.Split(field, ",") {
			add(token)
		}
	}
	return banned
}

// FilterMenus returns the candidates that survive the profile, in input
// order and duplicate-free. An empty profile returns the input unchanged.
func (f *DietaryFilter) FilterMenus(menus []models.Menu, profile RestrictionProfile) []models.Menu {
	if profile.IsEmpty() {
		return menus
	}

	banned := f.BannedKeywords(profile)
	schema := f.schemas["menu"]

	seen := make(map[string]bool, len(menus))
	kept := make([]models.Menu, 0, len(menus))
	for i := range menus {
		menu := menus[i]
		if seen[menu.ID.String()] {
			continue
		}
		seen[menu.ID.String()] = true

		if profile.BudgetCeiling != nil {
			if price, ok := schema.Price(&menu); ok && price > *profile.BudgetCeiling {
				continue
			}
		}
		if f.excluded(schema, &menu, banned) {
			continue
		}
		kept = append(kept, menu)
	}
	return kept
}

// excluded reports whether any banned keyword appears in any axis the
// schema exposes for this entity.
func (f *DietaryFilter) excluded(schema CandidateSchema, v any, banned []string) bool {
	var texts []string
	if schema.Name != nil {
		if s, ok := schema.Name(v); ok {
			texts = append(texts, s)
		}
	}
	if schema.Description != nil {
		if s, ok := schema.Description(v); ok {
			texts = append(texts, s)
		}
	}
	if schema.RestaurantName != nil {
		if s, ok := schema.RestaurantName(v); ok {
			texts = append(texts, s)
		}
	}
	if schema.IngredientNames != nil {
		if names, ok := schema.IngredientNames(v); ok {
			texts = append(texts, names...)
		}
	}

	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, word := range banned {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}
