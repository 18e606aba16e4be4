package categorization

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

const (
	// MonthlyBudgetKey is the budget entry for total monthly spending.
	MonthlyBudgetKey = "monthly"
	// DefaultDisbursementCategory marks inflows that reimburse earlier spending.
	DefaultDisbursementCategory = "disbursement"
	// FallbackCategory receives labels the AI returns outside the configured set.
	FallbackCategory = "other"
)

// DefaultCategories are created for every user and cannot be deleted.
var DefaultCategories = []string{
	"food", "snack", "transport", "shopping", "groceries", "donation",
	"entertainment", "travel", "health", "education", "subscription",
	"utilities", "tax", "insurance", "income", "disbursement", "other",
}

var defaultKeywords = map[string][]string{
	"food":      {"dinner", "lunch", "breakfast", "cafe", "restaurant", "mcdonald", "kfc"},
	"snack":     {"starbucks", "coffee", "bubble tea", "tea"},
	"transport": {"grab", "gojek", "uber", "taxi", "train", "bus", "mrt"},
	"shopping":  {"shopee", "lazada", "amazon", "supermarket", "mart", "uniqlo"},
	"utilities": {"singtel", "starhub", "electricity", "water", "bill"},
}

// Category is a named bucket with case-insensitive substring keywords.
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Config is a user's category configuration. Category order is significant:
// when keywords of several categories match, the earliest category wins.
// A Config is not safe for concurrent mutation.
type Config struct {
	Categories   []Category                 `json:"categories"`
	Budgets      map[string]decimal.Decimal `json:"budgets"`
	Disbursement string                     `json:"disbursement_category"`

	engine *Engine
}

// DefaultConfig returns the configuration every new user starts with.
func DefaultConfig() *Config {
	cfg := &Config{
		Budgets:      map[string]decimal.Decimal{},
		Disbursement: DefaultDisbursementCategory,
	}
	for _, name := range DefaultCategories {
		keywords := []string{name}
		for _, kw := range defaultKeywords[name] {
			if !slices.Contains(keywords, kw) {
				keywords = append(keywords, kw)
			}
		}
		cfg.Categories = append(cfg.Categories, Category{Name: name, Keywords: keywords})
	}
	return cfg
}

// IsDefaultCategory reports whether name is one of the protected default categories.
func IsDefaultCategory(name string) bool {
	return slices.Contains(DefaultCategories, transactions.NormalizeCategory(name))
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := &Config{
		Categories:   make([]Category, len(c.Categories)),
		Budgets:      make(map[string]decimal.Decimal, len(c.Budgets)),
		Disbursement: c.Disbursement,
	}
	for i, cat := range c.Categories {
		out.Categories[i] = Category{Name: cat.Name, Keywords: slices.Clone(cat.Keywords)}
	}
	for k, v := range c.Budgets {
		out.Budgets[k] = v
	}
	return out
}

// Normalize lowercases names and keywords, drops empties and fills defaults.
func (c *Config) Normalize() {
	for i := range c.Categories {
		c.Categories[i].Name = transactions.NormalizeCategory(c.Categories[i].Name)
		kws := c.Categories[i].Keywords[:0]
		for _, kw := range c.Categories[i].Keywords {
			kw = normalizeKeyword(kw)
			if kw != "" && !slices.Contains(kws, kw) {
				kws = append(kws, kw)
			}
		}
		c.Categories[i].Keywords = kws
	}
	if c.Budgets == nil {
		c.Budgets = map[string]decimal.Decimal{}
	}
	if strings.TrimSpace(c.Disbursement) == "" {
		c.Disbursement = DefaultDisbursementCategory
	}
	c.Disbursement = transactions.NormalizeCategory(c.Disbursement)
	c.engine = nil
}

// Names returns category names in configured order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// Index returns the position of the category or -1.
func (c *Config) Index(name string) int {
	name = transactions.NormalizeCategory(name)
	for i, cat := range c.Categories {
		if cat.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the category is configured.
func (c *Config) Has(name string) bool {
	return c.Index(name) >= 0
}

// KeywordOwner returns the category that owns the keyword.
func (c *Config) KeywordOwner(keyword string) (string, bool) {
	keyword = normalizeKeyword(keyword)
	for _, cat := range c.Categories {
		if slices.Contains(cat.Keywords, keyword) {
			return cat.Name, true
		}
	}
	return "", false
}

// AddCategory appends a category whose only keyword is its own name.
func (c *Config) AddCategory(name string) error {
	name = transactions.NormalizeCategory(name)
	if name == "" {
		return &ValidationError{Message: "category name is required"}
	}
	if c.Has(name) {
		return &ValidationError{Message: fmt.Sprintf("'%s' already exists", name)}
	}
	if owner, ok := c.KeywordOwner(name); ok {
		return &ValidationError{Message: fmt.Sprintf("'%s' already exists in category '%s'", name, owner)}
	}
	c.Categories = append(c.Categories, Category{Name: name, Keywords: []string{name}})
	c.engine = nil
	return nil
}

// RemoveCategory deletes a non-default category and its budget.
func (c *Config) RemoveCategory(name string) error {
	name = transactions.NormalizeCategory(name)
	if IsDefaultCategory(name) {
		return &ValidationError{Message: "Cannot delete default category"}
	}
	idx := c.Index(name)
	if idx < 0 {
		return &ValidationError{Message: fmt.Sprintf("'%s' not found", name)}
	}
	c.Categories = slices.Delete(c.Categories, idx, idx+1)
	delete(c.Budgets, name)
	c.engine = nil
	return nil
}

// AddKeyword adds a keyword to a category. Keywords are unique across all categories.
func (c *Config) AddKeyword(category, keyword string) error {
	category = transactions.NormalizeCategory(category)
	keyword = normalizeKeyword(keyword)
	if keyword == "" {
		return &ValidationError{Message: "keyword is required"}
	}
	idx := c.Index(category)
	if idx < 0 {
		return &ValidationError{Message: fmt.Sprintf("'%s' not found", category)}
	}
	if owner, ok := c.KeywordOwner(keyword); ok {
		return &ValidationError{Message: fmt.Sprintf("'%s' already exists in category '%s'", keyword, owner)}
	}
	c.Categories[idx].Keywords = append(c.Categories[idx].Keywords, keyword)
	c.engine = nil
	return nil
}

// RemoveKeyword deletes a keyword. A category's own name cannot be removed.
func (c *Config) RemoveKeyword(category, keyword string) error {
	category = transactions.NormalizeCategory(category)
	keyword = normalizeKeyword(keyword)
	idx := c.Index(category)
	if idx < 0 {
		return &ValidationError{Message: fmt.Sprintf("'%s' not found", category)}
	}
	if keyword == category {
		return &ValidationError{Message: fmt.Sprintf("Cannot delete category name '%s'", category)}
	}
	pos := slices.Index(c.Categories[idx].Keywords, keyword)
	if pos < 0 {
		return &ValidationError{Message: fmt.Sprintf("'%s' not found in '%s'", keyword, category)}
	}
	c.Categories[idx].Keywords = slices.Delete(c.Categories[idx].Keywords, pos, pos+1)
	c.engine = nil
	return nil
}

// SetBudget sets a budget threshold for a category or for MonthlyBudgetKey.
// A zero amount removes the budget.
func (c *Config) SetBudget(key string, amount decimal.Decimal) error {
	key = transactions.NormalizeCategory(key)
	if key != MonthlyBudgetKey && !c.Has(key) {
		return &ValidationError{Message: fmt.Sprintf("'%s' not found", key)}
	}
	if amount.IsNegative() {
		return &ValidationError{Message: "budget must not be negative"}
	}
	if c.Budgets == nil {
		c.Budgets = map[string]decimal.Decimal{}
	}
	if amount.IsZero() {
		delete(c.Budgets, key)
		return nil
	}
	c.Budgets[key] = amount
	return nil
}

// Engine returns the keyword matcher for the current categories, building it on first use.
func (c *Config) Engine() *Engine {
	if c.engine == nil {
		c.engine = NewEngine(c.Categories)
	}
	return c.engine
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}
