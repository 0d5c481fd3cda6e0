package calculation

import (
	"testing"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCapDeductions(t *testing.T) {
	ceilings := DefaultDeductionCeilings()

	tests := []struct {
		name     string
		claims   domain.DeductionClaim
		category domain.DeductionCategory
		expected decimal.Decimal
	}{
		{"80C over ceiling", domain.DeductionClaim{domain.Section80C: decimal.NewFromInt(300000)}, domain.Section80C, decimal.NewFromInt(150000)},
		{"80C under ceiling", domain.DeductionClaim{domain.Section80C: decimal.NewFromInt(90000)}, domain.Section80C, decimal.NewFromInt(90000)},
		{"80D over ceiling", domain.DeductionClaim{domain.Section80D: decimal.NewFromInt(40000)}, domain.Section80D, decimal.NewFromInt(25000)},
		{"24B over ceiling", domain.DeductionClaim{domain.Section24B: decimal.NewFromInt(350000)}, domain.Section24B, decimal.NewFromInt(200000)},
		{"80TTA over ceiling", domain.DeductionClaim{domain.Section80TTA: decimal.NewFromInt(12000)}, domain.Section80TTA, decimal.NewFromInt(10000)},
		{"80CCD over ceiling", domain.DeductionClaim{domain.Section80CCD: decimal.NewFromInt(75000)}, domain.Section80CCD, decimal.NewFromInt(50000)},
		{"HRA is uncapped", domain.DeductionClaim{domain.HRAExemption: decimal.NewFromInt(500000)}, domain.HRAExemption, decimal.NewFromInt(500000)},
		{"80G is uncapped", domain.DeductionClaim{domain.Section80G: decimal.NewFromInt(320000)}, domain.Section80G, decimal.NewFromInt(320000)},
		{"Negative claim floors to zero", domain.DeductionClaim{domain.Section80D: decimal.NewFromInt(-5000)}, domain.Section80D, decimal.Zero},
		{"Negative uncapped claim floors to zero", domain.DeductionClaim{domain.Section80E: decimal.NewFromInt(-1)}, domain.Section80E, decimal.Zero},
		{"Missing category defaults to zero", domain.DeductionClaim{}, domain.Section24B, decimal.Zero},
		{"Nil claim defaults to zero", nil, domain.Section80C, decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capped := CapDeductions(ceilings, tt.claims)
			assert.True(t, capped[tt.category].Equal(tt.expected),
				"expected %s, got %s", tt.expected, capped[tt.category])
		})
	}
}

func TestCapDeductions_IgnoresUnknownCategories(t *testing.T) {
	capped := CapDeductions(DefaultDeductionCeilings(), domain.DeductionClaim{
		domain.DeductionCategory("80zz"): decimal.NewFromInt(99999),
		domain.Section80C:                decimal.NewFromInt(1000),
	})

	_, present := capped[domain.DeductionCategory("80zz")]
	assert.False(t, present)
	assert.Len(t, capped, len(domain.KnownCategories))
	assert.True(t, capped.Total().Equal(decimal.NewFromInt(1000)))
}

func TestCapDeductions_TotalNeverExceedsCeilings(t *testing.T) {
	ceilings := DefaultDeductionCeilings()
	huge := decimal.NewFromInt(10_000_000)

	claims := domain.DeductionClaim{}
	for _, c := range domain.KnownCategories {
		if ceilings[c] != nil {
			claims[c] = huge
		}
	}

	capped := CapDeductions(ceilings, claims)
	assert.True(t, capped.Total().Equal(CeilingTotal(ceilings)),
		"expected %s, got %s", CeilingTotal(ceilings), capped.Total())
	assert.True(t, CeilingTotal(ceilings).Equal(decimal.NewFromInt(435000)))
}
