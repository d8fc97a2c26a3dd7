package jobcost

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T) *CostRecord {
	t.Helper()
	r, err := NewCostRecord(uuid.New(), uuid.New(), 1, "quotation", "001", "approved", "Acme", "Refit")
	require.NoError(t, err)
	return r
}

func TestNewCostRecord(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := newTestRecord(t)
		assert.Equal(t, 1, r.DocumentNo)
		assert.True(t, r.TotalCost.IsZero())
	})

	t.Run("rejects nil document", func(t *testing.T) {
		_, err := NewCostRecord(uuid.New(), uuid.Nil, 1, "", "", "", "", "")
		assert.Error(t, err)
	})

	t.Run("rejects non-positive ordinal", func(t *testing.T) {
		_, err := NewCostRecord(uuid.New(), uuid.New(), 0, "", "", "", "", "")
		assert.Error(t, err)
	})
}

func TestMergeSourceItems(t *testing.T) {
	t.Run("first sync takes source costs", func(t *testing.T) {
		r := newTestRecord(t)
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(100), CostPrice: decimal.Zero},
		})
		require.Len(t, r.Items, 1)
		assert.True(t, r.Items[0].CostPrice.IsZero())
		assert.Equal(t, "1000", r.TotalSell.String())
		require.NotNil(t, r.LastSyncedAt)
	})

	t.Run("re-sync preserves operator cost price", func(t *testing.T) {
		r := newTestRecord(t)
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(100), CostPrice: decimal.Zero},
		})
		require.NoError(t, r.SetItemCost(r.Items[0].ID, decimal.NewFromInt(5)))

		// Source still carries zero cost but a new quantity.
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(12), SellPrice: decimal.NewFromInt(100), CostPrice: decimal.Zero},
		})
		require.Len(t, r.Items, 1)
		assert.Equal(t, "5", r.Items[0].CostPrice.String())
		assert.Equal(t, "12", r.Items[0].Quantity.String())
		assert.Equal(t, "60", r.Items[0].CostTotal.String())
	})

	t.Run("renamed item loses manual cost", func(t *testing.T) {
		r := newTestRecord(t)
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(100)},
		})
		require.NoError(t, r.SetItemCost(r.Items[0].ID, decimal.NewFromInt(5)))

		r.MergeSourceItems([]SourceItem{
			{Name: "Tile B", Quantity: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(100), CostPrice: decimal.NewFromInt(2)},
		})
		require.Len(t, r.Items, 1)
		assert.Equal(t, "Tile B", r.Items[0].Name)
		assert.Equal(t, "2", r.Items[0].CostPrice.String())
	})

	t.Run("removed item disappears", func(t *testing.T) {
		r := newTestRecord(t)
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(1), SellPrice: decimal.NewFromInt(10)},
			{Name: "Tile B", Quantity: decimal.NewFromInt(1), SellPrice: decimal.NewFromInt(10)},
		})
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(1), SellPrice: decimal.NewFromInt(10)},
		})
		require.Len(t, r.Items, 1)
		assert.Equal(t, "Tile A", r.Items[0].Name)
	})

	t.Run("operator zero survives re-sync", func(t *testing.T) {
		r := newTestRecord(t)
		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(1), SellPrice: decimal.NewFromInt(10), CostPrice: decimal.NewFromInt(7)},
		})
		require.NoError(t, r.SetItemCost(r.Items[0].ID, decimal.Zero))

		r.MergeSourceItems([]SourceItem{
			{Name: "Tile A", Quantity: decimal.NewFromInt(2), SellPrice: decimal.NewFromInt(10), CostPrice: decimal.NewFromInt(7)},
		})
		assert.True(t, r.Items[0].CostPrice.IsZero())
	})
}

func TestSetItemCost(t *testing.T) {
	r := newTestRecord(t)
	r.MergeSourceItems([]SourceItem{
		{Name: "Tile A", Quantity: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(100)},
	})

	require.NoError(t, r.SetItemCost(r.Items[0].ID, decimal.NewFromInt(40)))
	assert.Equal(t, "400", r.TotalCost.String())
	assert.Equal(t, "600", r.Profit().String())

	assert.Error(t, r.SetItemCost(uuid.New(), decimal.NewFromInt(1)))
	assert.Error(t, r.SetItemCost(r.Items[0].ID, decimal.NewFromInt(-1)))
}

func TestExpenses(t *testing.T) {
	r := newTestRecord(t)
	r.MergeSourceItems([]SourceItem{
		{Name: "Tile A", Quantity: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(100)},
	})

	e, err := NewExpense(r.ID, "Crane hire", decimal.NewFromInt(150))
	require.NoError(t, err)
	r.ReplaceExpenses([]Expense{*e})
	assert.Equal(t, "150", r.TotalCost.String())
	assert.Equal(t, "850", r.Profit().String())

	_, err = NewExpense(r.ID, " ", decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestRelink(t *testing.T) {
	r := newTestRecord(t)
	r.Relink(4, "invoice", "004", "converted")
	assert.Equal(t, 4, r.DocumentNo)
	assert.Equal(t, "invoice", r.LinkedType)
	assert.Equal(t, "004", r.LinkedNumber)
	assert.Equal(t, "converted", r.LinkedStatus)

	// zero values leave fields untouched
	r.Relink(0, "", "", "paid")
	assert.Equal(t, 4, r.DocumentNo)
	assert.Equal(t, "paid", r.LinkedStatus)
}
