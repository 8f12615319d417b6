package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category code or label is not part of the closed set
var ErrUnknownCategory = errors.New("unknown category")

// Category is one of the fixed medicine classes in the inventory
type Category int

const (
	CategoryCardiovascular Category = iota + 1
	CategoryLipidLowering
	CategoryDiabetes
	CategoryNeuroPsych
	CategoryPainJoint
	CategoryLiver
	CategoryThyroid
	CategoryOther
)

type categoryInfo struct {
	code  string
	label string
}

var categoryTable = map[Category]categoryInfo{
	CategoryCardiovascular: {code: "cardiovascular", label: "心血管药"},
	CategoryLipidLowering:  {code: "lipid_lowering", label: "降血脂药"},
	CategoryDiabetes:       {code: "diabetes", label: "降糖/胰岛素"},
	CategoryNeuroPsych:     {code: "neuro_psych", label: "神经/精神系统"},
	CategoryPainJoint:      {code: "pain_joint", label: "消炎止痛/骨关节"},
	CategoryLiver:          {code: "liver", label: "肝胆系统"},
	CategoryThyroid:        {code: "thyroid", label: "甲状腺药"},
	CategoryOther:          {code: "other", label: "其他"},
}

// Categories returns every category in display order
func Categories() []Category {
	return []Category{
		CategoryCardiovascular,
		CategoryLipidLowering,
		CategoryDiabetes,
		CategoryNeuroPsych,
		CategoryPainJoint,
		CategoryLiver,
		CategoryThyroid,
		CategoryOther,
	}
}

// Valid reports whether c is a member of the closed set
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Code returns the stable machine-readable identifier
func (c Category) Code() string {
	if info, ok := categoryTable[c]; ok {
		return info.code
	}
	return ""
}

// Label returns the display label shown to users and embedded in prompts
func (c Category) Label() string {
	if info, ok := categoryTable[c]; ok {
		return info.label
	}
	return ""
}

func (c Category) String() string {
	if code := c.Code(); code != "" {
		return code
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory accepts either a category code or its display label
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		info := categoryTable[c]
		if strings.EqualFold(s, info.code) || s == info.label {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// MarshalText encodes the category as its code
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.Code()), nil
}

// UnmarshalText decodes a category code or label
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AllCategoriesValue is the wire value meaning "no category restriction"
const AllCategoriesValue = "all"

// AllCategoriesLabel is the display label of the unrestricted filter
const AllCategoriesLabel = "全部"

// CategoryFilter restricts a listing to one category, or to none when it is the zero value
type CategoryFilter struct {
	category Category
}

// AllCategories is the filter that keeps every item
var AllCategories = CategoryFilter{}

// OnlyCategory returns a filter restricted to c
func OnlyCategory(c Category) CategoryFilter {
	return CategoryFilter{category: c}
}

// IsAll reports whether the filter keeps every category
func (f CategoryFilter) IsAll() bool {
	return f.category == 0
}

// Category returns the selected category and false when the filter is "all"
func (f CategoryFilter) Category() (Category, bool) {
	return f.category, !f.IsAll()
}

// Matches reports whether an item in category c passes the filter
func (f CategoryFilter) Matches(c Category) bool {
	return f.IsAll() || f.category == c
}

func (f CategoryFilter) String() string {
	if f.IsAll() {
		return AllCategoriesValue
	}
	return f.category.Code()
}

// ParseCategoryFilter maps "", "all" and "全部" to AllCategories and anything else through ParseCategory
func ParseCategoryFilter(s string) (CategoryFilter, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, AllCategoriesValue) || trimmed == AllCategoriesLabel {
		return AllCategories, nil
	}
	c, err := ParseCategory(trimmed)
	if err != nil {
		return AllCategories, err
	}
	return OnlyCategory(c), nil
}

// MarshalText encodes the filter as "all" or a category code
func (f CategoryFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes "all" or a category code/label
func (f *CategoryFilter) UnmarshalText(text []byte) error {
	parsed, err := ParseCategoryFilter(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
