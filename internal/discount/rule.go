package discount

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

var (
	ErrPercentTooLow  = fmt.Errorf("%w: percent must be greater than 0", domain.ErrValidation)
	ErrPercentTooHigh = fmt.Errorf("%w: percent must not exceed 50", domain.ErrValidation)
	ErrUnknownRule    = errors.New("unknown discount rule")
)

const (
	maxRulePercent     = 50
	fiveBucksAmount    = 5.0
	fiveBucksThreshold = 50.0
	sameRoutePercent   = 15
	sameRouteMinRides  = 2
)

// Percentage is a discount percentage within 1..50.
type Percentage struct {
	value int
}

func NewPercentage(p int) (Percentage, error) {
	switch {
	case p <= 0:
		return Percentage{}, ErrPercentTooLow
	case p > maxRulePercent:
		return Percentage{}, ErrPercentTooHigh
	}
	return Percentage{value: p}, nil
}

func (p Percentage) Value() int { return p.value }

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFiveBucks  Kind = "five_bucks"
	KindSameRoute  Kind = "same_route"
)

// Rule is a discount applied over a set of rides. Only the fields that
// belong to Kind are meaningful.
type Rule struct {
	Kind    Kind
	Percent Percentage
	Start   string
	End     string
}

func PercentageRule(p int) (Rule, error) {
	pct, err := NewPercentage(p)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Kind: KindPercentage, Percent: pct}, nil
}

func FiveBucksRule() Rule { return Rule{Kind: KindFiveBucks} }

func SameRouteRule(start, end string) Rule {
	return Rule{Kind: KindSameRoute, Start: start, End: end}
}

// Evaluate returns the discount amount rule grants on rides.
func Evaluate(rule Rule, rides []domain.Ride) (float64, error) {
	switch rule.Kind {
	case KindPercentage:
		return domain.RoundCents(sumPrices(rides) * float64(rule.Percent.value) / 100), nil

	case KindFiveBucks:
		if sumPrices(rides) >= fiveBucksThreshold {
			return fiveBucksAmount, nil
		}
		return 0, nil

	case KindSameRoute:
		var matching []domain.Ride
		for _, r := range rides {
			if r.StartLocation == rule.Start && r.EndLocation == rule.End {
				matching = append(matching, r)
			}
		}
		if len(matching) < sameRouteMinRides {
			return 0, nil
		}
		return domain.RoundCents(sumPrices(matching) * sameRoutePercent / 100), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownRule, rule.Kind)
}

// Best picks the rule granting the largest discount. Ties keep the earlier rule.
func Best(rules []Rule, rides []domain.Ride) (Rule, float64, error) {
	var (
		best   Rule
		amount float64
	)
	for _, r := range rules {
		a, err := Evaluate(r, rides)
		if err != nil {
			return Rule{}, 0, err
		}
		if a > amount {
			best, amount = r, a
		}
	}
	return best, amount, nil
}

func sumPrices(rides []domain.Ride) float64 {
	var total float64
	for _, r := range rides {
		total += r.PricePerSeat
	}
	return total
}
