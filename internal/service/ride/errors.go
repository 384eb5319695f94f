package ride

import (
	"fmt"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

var (
	ErrNotRideDriver   = fmt.Errorf("%w: caller is not the driver of this ride", domain.ErrForbidden)
	ErrVehicleNotOwned = fmt.Errorf("%w: vehicle is not registered to this driver", domain.ErrInvalidVehicle)
)
