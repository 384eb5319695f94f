package discount

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

// Lookup resolves an upper-cased promo code to its percentage.
type Lookup interface {
	Percent(ctx context.Context, code string) (percent int, ok bool, err error)
}

// Catalog answers promo code questions over an injected Lookup.
type Catalog struct {
	lookup Lookup
}

func NewCatalog(lookup Lookup) *Catalog {
	return &Catalog{lookup: lookup}
}

// Quote is the outcome of applying a promo code to a base price.
type Quote struct {
	Code           string  `json:"code"`
	Valid          bool    `json:"valid"`
	Percent        int     `json:"discount_percent"`
	DiscountAmount float64 `json:"discount_amount"`
	OriginalPrice  float64 `json:"original_price"`
	FinalPrice     float64 `json:"final_price"`
}

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Catalog) IsValid(ctx context.Context, code string) (bool, error) {
	p, err := c.PercentFor(ctx, code)
	return p > 0, err
}

// PercentFor returns 0 for unknown or empty codes.
func (c *Catalog) PercentFor(ctx context.Context, code string) (int, error) {
	const op = "discount.Catalog.PercentFor"

	code = Normalize(code)
	if code == "" || c.lookup == nil {
		return 0, nil
	}

	p, ok, err := c.lookup.Percent(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return 0, nil
	}

	return p, nil
}

// FinalPrice applies the code to basePrice. Invalid codes leave it unchanged.
func (c *Catalog) FinalPrice(ctx context.Context, code string, basePrice float64) (float64, error) {
	q, err := c.Quote(ctx, code, basePrice)
	if err != nil {
		return 0, err
	}
	return q.FinalPrice, nil
}

// Quote prices basePrice with the given code.
func (c *Catalog) Quote(ctx context.Context, code string, basePrice float64) (Quote, error) {
	base := domain.RoundCents(basePrice)
	q := Quote{
		Code:          Normalize(code),
		OriginalPrice: base,
		FinalPrice:    base,
	}

	p, err := c.PercentFor(ctx, code)
	if err != nil {
		return Quote{}, err
	}
	if p <= 0 {
		return q, nil
	}

	q.Valid = true
	q.Percent = p
	q.DiscountAmount = domain.RoundCents(base * float64(p) / 100)
	q.FinalPrice = domain.RoundCents(base - q.DiscountAmount)

	return q, nil
}

// StaticLookup is a fixed code table.
type StaticLookup map[string]int

func (s StaticLookup) Percent(_ context.Context, code string) (int, bool, error) {
	p, ok := s[Normalize(code)]
	return p, ok, nil
}

// ParseCodes reads "CODE=PERCENT" pairs separated by commas.
// Percentages have to be within 1..100.
func ParseCodes(s string) (StaticLookup, error) {
	const op = "discount.ParseCodes"

	out := StaticLookup{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		code, pct, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("%s: malformed entry %q", op, part)
		}

		p, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("%s: entry %q: %w", op, part, err)
		}
		if err := ValidateCatalogPercent(p); err != nil {
			return nil, fmt.Errorf("%s: entry %q: %w", op, part, err)
		}

		out[Normalize(code)] = p
	}

	return out, nil
}

// ValidateCatalogPercent checks a stored catalog percentage.
func ValidateCatalogPercent(p int) error {
	if p < 1 || p > 100 {
		return domain.ValidationError{Field: "percent", Reason: "must be within 1..100"}
	}
	return nil
}
