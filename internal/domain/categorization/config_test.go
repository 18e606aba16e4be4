package categorization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultCategories, cfg.Names())
	assert.Equal(t, DefaultDisbursementCategory, cfg.Disbursement)

	for _, cat := range cfg.Categories {
		assert.Contains(t, cat.Keywords, cat.Name, "every category is a keyword for itself")
	}

	owner, ok := cfg.KeywordOwner("Starbucks")
	require.True(t, ok)
	assert.Equal(t, "snack", owner)
}

func TestConfig_AddCategory(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.AddCategory(" Pets "))
	assert.True(t, cfg.Has("pets"))
	assert.Equal(t, []string{"pets"}, cfg.Categories[len(cfg.Categories)-1].Keywords)

	assert.EqualError(t, cfg.AddCategory("Food"), "'food' already exists")
	assert.EqualError(t, cfg.AddCategory("coffee"), "'coffee' already exists in category 'snack'")
}

func TestConfig_RemoveCategory(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.AddCategory("pets"))
	require.NoError(t, cfg.SetBudget("pets", decimal.NewFromInt(50)))

	assert.EqualError(t, cfg.RemoveCategory("food"), "Cannot delete default category")
	assert.EqualError(t, cfg.RemoveCategory("garden"), "'garden' not found")

	require.NoError(t, cfg.RemoveCategory("Pets"))
	assert.False(t, cfg.Has("pets"))
	assert.NotContains(t, cfg.Budgets, "pets")
}

func TestConfig_Keywords(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.AddKeyword("snack", "Candy"))
	assert.EqualError(t, cfg.AddKeyword("food", "candy"), "'candy' already exists in category 'snack'")
	assert.EqualError(t, cfg.AddKeyword("garden", "rake"), "'garden' not found")

	assert.EqualError(t, cfg.RemoveKeyword("food", "meal"), "'meal' not found in 'food'")
	assert.EqualError(t, cfg.RemoveKeyword("food", "food"), "Cannot delete category name 'food'")
	require.NoError(t, cfg.RemoveKeyword("snack", "candy"))
	_, ok := cfg.KeywordOwner("candy")
	assert.False(t, ok)
}

func TestConfig_SetBudget(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetBudget("Monthly", decimal.NewFromInt(2000)))
	require.NoError(t, cfg.SetBudget("food", decimal.NewFromInt(400)))
	assert.True(t, cfg.Budgets[MonthlyBudgetKey].Equal(decimal.NewFromInt(2000)))

	assert.Error(t, cfg.SetBudget("garden", decimal.NewFromInt(1)))
	assert.Error(t, cfg.SetBudget("food", decimal.NewFromInt(-1)))

	require.NoError(t, cfg.SetBudget("food", decimal.Zero))
	assert.NotContains(t, cfg.Budgets, "food")
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	require.NoError(t, clone.AddKeyword("food", "hawker"))

	_, ok := cfg.KeywordOwner("hawker")
	assert.False(t, ok)
}

func TestConfig_Normalize(t *testing.T) {
	cfg := &Config{Categories: []Category{{Name: " Food ", Keywords: []string{"LUNCH", "lunch", " ", "Food"}}}}
	cfg.Normalize()

	assert.Equal(t, "food", cfg.Categories[0].Name)
	assert.Equal(t, []string{"lunch", "food"}, cfg.Categories[0].Keywords)
	assert.Equal(t, DefaultDisbursementCategory, cfg.Disbursement)
	assert.NotNil(t, cfg.Budgets)
}
