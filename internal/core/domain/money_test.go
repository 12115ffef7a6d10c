package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
)

func TestParseMoney(t *testing.T) {
	t.Run("valid at scale", func(t *testing.T) {
		m, err := domain.ParseMoney("1234.50", 2)
		require.NoError(t, err)
		assert.Equal(t, "1234.50", m.String())
		assert.Equal(t, int32(2), m.Scale())
	})

	t.Run("integer input gains fractional digits", func(t *testing.T) {
		m, err := domain.ParseMoney("7", 2)
		require.NoError(t, err)
		assert.Equal(t, "7.00", m.String())
	})

	t.Run("excess fractional digits rejected", func(t *testing.T) {
		_, err := domain.ParseMoney("10.005", 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	})

	t.Run("non-numeric rejected", func(t *testing.T) {
		_, err := domain.ParseMoney("ten dollars", 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	})

	t.Run("negative allowed", func(t *testing.T) {
		m, err := domain.ParseMoney("-0.01", 2)
		require.NoError(t, err)
		assert.True(t, m.IsNegative())
		assert.Equal(t, "-0.01", m.String())
	})

	t.Run("scale zero rejects any fraction", func(t *testing.T) {
		_, err := domain.ParseMoney("100.5", 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := domain.MustMoney("10.10", 2)
	b := domain.MustMoney("0.20", 2)

	assert.Equal(t, "10.30", a.Add(b).String())
	assert.Equal(t, "9.90", a.Sub(b).String())
	assert.Equal(t, "-10.10", a.Neg().String())
	assert.Equal(t, "10.10", a.Neg().Abs().String())
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.True(t, a.Equal(domain.MustMoney("10.1", 2)))
}

func TestMoneyToFixed(t *testing.T) {
	t.Run("half up", func(t *testing.T) {
		m := domain.NewMoney(decimal.RequireFromString("2.675"), 3)
		assert.Equal(t, "2.68", m.ToFixed(2, domain.RoundHalfUp).String())
	})

	t.Run("half even", func(t *testing.T) {
		m := domain.NewMoney(decimal.RequireFromString("2.675"), 3)
		assert.Equal(t, "2.68", m.ToFixed(2, domain.RoundHalfEven).String())
		m = domain.NewMoney(decimal.RequireFromString("2.665"), 3)
		assert.Equal(t, "2.66", m.ToFixed(2, domain.RoundHalfEven).String())
	})

	t.Run("truncate", func(t *testing.T) {
		m := domain.NewMoney(decimal.RequireFromString("2.679"), 3)
		assert.Equal(t, "2.67", m.ToFixed(2, domain.RoundDown).String())
	})

	t.Run("idempotent at same scale", func(t *testing.T) {
		m := domain.MustMoney("99.99", 2)
		once := m.ToFixed(2, domain.RoundHalfUp)
		twice := once.ToFixed(2, domain.RoundHalfUp)
		assert.True(t, once.Equal(twice))
		assert.Equal(t, once.String(), twice.String())
	})
}

func TestMoneyMulRatio(t *testing.T) {
	// 10.01 * 7.25% rounds once: 0.725725 -> 0.73.
	m := domain.MustMoney("10.01", 2)
	rate := decimal.RequireFromString("0.0725")
	assert.Equal(t, "0.73", m.MulRatio(rate, domain.RoundHalfUp).String())
	assert.Equal(t, "0.72", m.MulRatio(rate, domain.RoundDown).String())
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshal fixed scale", func(t *testing.T) {
		out, err := json.Marshal(domain.MustMoney("5.50", 2))
		require.NoError(t, err)
		assert.Equal(t, `"5.50"`, string(out))
	})

	t.Run("round trip", func(t *testing.T) {
		var m domain.Money
		require.NoError(t, json.Unmarshal([]byte(`"1234.56"`), &m))
		assert.Equal(t, "1234.56", m.String())
		assert.Equal(t, int32(2), m.Scale())
	})
}

func TestNormalSideFor(t *testing.T) {
	assert.Equal(t, domain.DebitSide, domain.NormalSideFor(domain.Asset))
	assert.Equal(t, domain.DebitSide, domain.NormalSideFor(domain.Expense))
	assert.Equal(t, domain.CreditSide, domain.NormalSideFor(domain.Liability))
	assert.Equal(t, domain.CreditSide, domain.NormalSideFor(domain.Equity))
	assert.Equal(t, domain.CreditSide, domain.NormalSideFor(domain.Revenue))
}
