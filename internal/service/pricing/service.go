// Package pricing quotes promo codes and multi-ride discounts without
// booking anything.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/discount"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

var (
	ErrNegativePrice = domain.ValidationError{Field: "price", Reason: "must not be negative"}
	ErrNoRides       = domain.ValidationError{Field: "ride_ids", Reason: "at least one ride is required"}
)

// RidesQuote is the best discount found for a set of rides.
type RidesQuote struct {
	RideIDs        []uuid.UUID   `json:"ride_ids"`
	Rule           discount.Kind `json:"rule,omitempty"`
	Code           string        `json:"code,omitempty"`
	CodeValid      bool          `json:"code_valid"`
	Total          float64       `json:"total"`
	DiscountAmount float64       `json:"discount_amount"`
	FinalTotal     float64       `json:"final_total"`
}

type Service struct {
	store   repository.Store
	catalog *discount.Catalog
}

func New(store repository.Store, catalog *discount.Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// QuotePromo prices one seat at price with code. Unknown codes come back
// with Valid false and the price unchanged.
func (s *Service) QuotePromo(ctx context.Context, code string, price float64) (*discount.Quote, error) {
	const op = "service.pricing.QuotePromo"

	if price < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNegativePrice)
	}

	q, err := s.catalog.Quote(ctx, code, price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &q, nil
}

// QuoteRides evaluates every rule that could apply to the rides and keeps
// the one granting the largest discount.
//
// Parameters:
//   - ctx: request-scoped context.
//   - rideIDs: the rides to price, one seat each.
//   - code: optional promo code, added as a percentage rule when known.
//
// Returns:
//   - *RidesQuote: totals for the best rule. Rule is empty when nothing applies.
//   - error: domain.ErrNotFound for an unknown ride.
//   - error: discount.ErrPercentTooHigh when the code exceeds the rule cap.
func (s *Service) QuoteRides(ctx context.Context, rideIDs []uuid.UUID, code string) (*RidesQuote, error) {
	const op = "service.pricing.QuoteRides"

	if len(rideIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoRides)
	}

	rides := make([]domain.Ride, 0, len(rideIDs))
	for _, id := range rideIDs {
		r, err := s.store.Rides().Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", op, domain.NotFoundError{Entity: "ride", ID: id.String()})
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rides = append(rides, *r)
	}

	out := &RidesQuote{RideIDs: rideIDs, Code: discount.Normalize(code)}

	rules := []discount.Rule{discount.FiveBucksRule()}

	seen := make(map[[2]string]bool)
	for _, r := range rides {
		route := [2]string{r.StartLocation, r.EndLocation}
		if !seen[route] {
			seen[route] = true
			rules = append(rules, discount.SameRouteRule(r.StartLocation, r.EndLocation))
		}
	}

	if out.Code != "" {
		p, err := s.catalog.PercentFor(ctx, out.Code)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p > 0 {
			rule, err := discount.PercentageRule(p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			out.CodeValid = true
			rules = append(rules, rule)
		}
	}

	best, amount, err := discount.Best(rules, rides)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range rides {
		out.Total += r.PricePerSeat
	}
	out.Total = domain.RoundCents(out.Total)
	out.Rule = best.Kind
	out.DiscountAmount = amount
	out.FinalTotal = domain.RoundCents(out.Total - amount)

	return out, nil
}
