package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m := NewMoney(decimal.NewFromFloat(100.50))
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyFromFloat(100.00)
	b := NewMoneyFromFloat(40.50)

	t.Run("add", func(t *testing.T) {
		assert.Equal(t, "140.50", a.Add(b).String())
	})

	t.Run("subtract", func(t *testing.T) {
		assert.Equal(t, "59.50", a.Subtract(b).String())
	})

	t.Run("subtract below zero", func(t *testing.T) {
		assert.True(t, b.Subtract(a).IsNegative())
	})

	t.Run("multiply", func(t *testing.T) {
		got := b.Multiply(decimal.NewFromInt(3))
		assert.Equal(t, "121.50", got.String())
	})

	t.Run("divide", func(t *testing.T) {
		got, err := a.Divide(decimal.NewFromInt(4))
		require.NoError(t, err)
		assert.Equal(t, "25.00", got.String())
	})

	t.Run("divide by zero", func(t *testing.T) {
		_, err := a.Divide(decimal.Zero)
		assert.Error(t, err)
	})
}

func TestMoneyComparisons(t *testing.T) {
	a := NewMoneyFromFloat(10)
	b := NewMoneyFromFloat(20)

	assert.True(t, a.LessThan(b))
	assert.False(t, b.LessThan(a))
	assert.True(t, b.GreaterThanOrEqual(a))
	assert.True(t, b.GreaterThanOrEqual(b))
	assert.True(t, a.Equals(NewMoneyFromFloat(10)))
	assert.True(t, ZeroMoney().IsZero())
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshal emits string", func(t *testing.T) {
		data, err := json.Marshal(NewMoneyFromFloat(99.99))
		require.NoError(t, err)
		assert.Equal(t, `"99.99"`, string(data))
	})

	t.Run("unmarshal quoted string", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`"12.34"`), &m))
		assert.Equal(t, "12.34", m.String())
	})

	t.Run("unmarshal bare number", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`12.34`), &m))
		assert.Equal(t, "12.34", m.String())
	})

	t.Run("unmarshal garbage", func(t *testing.T) {
		var m Money
		assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &m))
	})
}

func TestMoneyScan(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "55.25", "55.25"},
		{"bytes", []byte("7.10"), "7.10"},
		{"float64", 3.5, "3.50"},
		{"int64", int64(9), "9.00"},
		{"nil", nil, "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m Money
			require.NoError(t, m.Scan(tc.value))
			assert.Equal(t, tc.want, m.String())
		})
	}

	t.Run("unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(true))
	})
}
