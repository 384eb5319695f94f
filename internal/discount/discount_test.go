package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalog(t *testing.T) *Catalog {
	t.Helper()
	codes, err := ParseCodes("WELCOME10=10, SHARE20=20,SUMMER15=15")
	require.NoError(t, err)
	return NewCatalog(codes)
}

func TestCatalogQuote(t *testing.T) {
	ctx := context.Background()
	c := setupCatalog(t)

	tests := []struct {
		name      string
		code      string
		base      float64
		wantValid bool
		wantPct   int
		wantDisc  float64
		wantFinal float64
	}{
		{name: "welcome", code: "WELCOME10", base: 20, wantValid: true, wantPct: 10, wantDisc: 2, wantFinal: 18},
		{name: "lower case", code: "welcome10", base: 20, wantValid: true, wantPct: 10, wantDisc: 2, wantFinal: 18},
		{name: "share", code: "share20", base: 33.33, wantValid: true, wantPct: 20, wantDisc: 6.67, wantFinal: 26.66},
		{name: "unknown", code: "NOPE", base: 20, wantFinal: 20},
		{name: "empty", code: "", base: 20, wantFinal: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := c.Quote(ctx, tt.code, tt.base)
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, q.Valid)
			assert.Equal(t, tt.wantPct, q.Percent)
			assert.InDelta(t, tt.wantDisc, q.DiscountAmount, 0.001)
			assert.InDelta(t, tt.wantFinal, q.FinalPrice, 0.001)
			assert.InDelta(t, tt.base, q.OriginalPrice, 0.001)
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	ctx := context.Background()
	c := setupCatalog(t)

	ok, err := c.IsValid(ctx, "Summer15")
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := c.PercentFor(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, p)

	final, err := c.FinalPrice(ctx, "SHARE20", 50)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, final, 0.001)
}

type failingLookup struct{}

func (failingLookup) Percent(context.Context, string) (int, bool, error) {
	return 0, false, errors.New("store down")
}

func TestCatalogPropagatesLookupFailure(t *testing.T) {
	c := NewCatalog(failingLookup{})

	_, err := c.Quote(context.Background(), "WELCOME10", 10)
	require.Error(t, err)
}

func TestParseCodes(t *testing.T) {
	_, err := ParseCodes("BAD")
	require.Error(t, err)

	_, err = ParseCodes("ZERO=0")
	require.ErrorIs(t, err, domain.ErrValidation)

	codes, err := ParseCodes("big=80")
	require.NoError(t, err)
	assert.Equal(t, 80, codes["BIG"])
}

func TestNewPercentageBounds(t *testing.T) {
	_, err := NewPercentage(0)
	require.ErrorIs(t, err, ErrPercentTooLow)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewPercentage(51)
	require.ErrorIs(t, err, ErrPercentTooHigh)
	require.NotErrorIs(t, err, ErrPercentTooLow)

	p, err := NewPercentage(50)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Value())
}

func rides(prices ...float64) []domain.Ride {
	out := make([]domain.Ride, 0, len(prices))
	for _, p := range prices {
		out = append(out, domain.Ride{StartLocation: "Zurich", EndLocation: "Bern", PricePerSeat: p})
	}
	return out
}

func TestEvaluate(t *testing.T) {
	pct10, err := PercentageRule(10)
	require.NoError(t, err)

	other := rides(30)
	other[0].EndLocation = "Basel"

	tests := []struct {
		name  string
		rule  Rule
		rides []domain.Ride
		want  float64
	}{
		{name: "percentage", rule: pct10, rides: rides(20, 30), want: 5},
		{name: "five bucks below threshold", rule: FiveBucksRule(), rides: rides(20, 29.99), want: 0},
		{name: "five bucks at threshold", rule: FiveBucksRule(), rides: rides(20, 30), want: 5},
		{name: "same route single ride", rule: SameRouteRule("Zurich", "Bern"), rides: rides(40), want: 0},
		{name: "same route", rule: SameRouteRule("Zurich", "Bern"), rides: append(rides(20, 20), other...), want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.rule, tt.rides)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}

	_, err = Evaluate(Rule{Kind: "bogus"}, nil)
	require.ErrorIs(t, err, ErrUnknownRule)
}

func TestBest(t *testing.T) {
	pct20, err := PercentageRule(20)
	require.NoError(t, err)

	best, amount, err := Best([]Rule{FiveBucksRule(), pct20, SameRouteRule("Zurich", "Bern")}, rides(30, 30))
	require.NoError(t, err)
	assert.Equal(t, KindPercentage, best.Kind)
	assert.InDelta(t, 12.0, amount, 0.001)

	best, amount, err = Best([]Rule{FiveBucksRule()}, rides(10))
	require.NoError(t, err)
	assert.Equal(t, Kind(""), best.Kind)
	assert.Zero(t, amount)
}
