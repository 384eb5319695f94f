package review

import (
	"fmt"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

var (
	ErrRideNotCompleted = fmt.Errorf("%w: only completed rides can be reviewed", domain.ErrInvalidState)
	ErrNotPassenger     = fmt.Errorf("%w: caller holds no approved booking on this ride", domain.ErrForbidden)
	ErrAlreadyReviewed  = fmt.Errorf("%w: rider already reviewed this ride", domain.ErrDuplicateReview)
)
