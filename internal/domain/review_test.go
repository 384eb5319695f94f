package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateDriver(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "no reviews", ratings: nil, want: 0},
		{name: "single", ratings: []int{4}, want: 4},
		{name: "rounds down", ratings: []int{5, 4, 4}, want: 4.3},
		{name: "rounds up", ratings: []int{5, 5, 4}, want: 4.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]Review, 0, len(tt.ratings))
			for _, r := range tt.ratings {
				reviews = append(reviews, Review{Rating: r})
			}

			got := RateDriver("driver-1", reviews, now)
			assert.Equal(t, tt.want, got.Average)
			assert.Equal(t, len(tt.ratings), got.Count)
			assert.Equal(t, "driver-1", got.DriverID)
			assert.Equal(t, now, got.UpdatedAt)
		})
	}
}
