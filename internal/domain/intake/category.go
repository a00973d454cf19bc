package intake

import "strings"

// Category is one semantic slot of a case snapshot. The set is closed.
type Category string

const (
	CategoryGoal           Category = "goal"
	CategoryFinance        Category = "finance"
	CategoryFamily         Category = "family"
	CategoryHousing        Category = "housing"
	CategoryWork           Category = "work"
	CategoryImmigration    Category = "immigration"
	CategoryEducation      Category = "education"
	CategoryTax            Category = "tax"
	CategoryHealthcare     Category = "healthcare"
	CategoryOther          Category = "other"
	CategoryClarifications Category = "outstanding_clarifications"
)

// Categories lists every slot in display order.
var Categories = []Category{
	CategoryGoal,
	CategoryFinance,
	CategoryFamily,
	CategoryHousing,
	CategoryWork,
	CategoryImmigration,
	CategoryEducation,
	CategoryTax,
	CategoryHealthcare,
	CategoryOther,
	CategoryClarifications,
}

// ParseCategory maps a wire key onto a known slot. Matching is exact.
func ParseCategory(raw string) (Category, bool) {
	c := Category(raw)
	switch c {
	case CategoryGoal, CategoryFinance, CategoryFamily, CategoryHousing, CategoryWork,
		CategoryImmigration, CategoryEducation, CategoryTax, CategoryHealthcare,
		CategoryOther, CategoryClarifications:
		return c, true
	default:
		return "", false
	}
}

// CategoryOrOther normalizes a question tag. Unrecognized tags fall back to CategoryOther.
func CategoryOrOther(raw string) Category {
	if c, ok := ParseCategory(strings.ToLower(strings.TrimSpace(raw))); ok {
		return c
	}
	return CategoryOther
}

func (c Category) String() string { return string(c) }
