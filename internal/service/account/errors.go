package account

import (
	"fmt"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

var (
	ErrVehicleExists  = fmt.Errorf("%w: vehicle id already registered", domain.ErrInvalidVehicle)
	ErrProfileMissing = fmt.Errorf("%w: rider profile", domain.ErrNotFound)
)
