package contest

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/hekima/shindano/core"
)

func validateTimeRange(start, end time.Time) error {
	if !start.Before(end) {
		return core.NewValidationError(errors.New("Start time must occur earlier than end time"))
	}
	return nil
}

// validateIPRanges rejects the whole operation on the first entry that is
// not a CIDR network; the message echoes the offending value.
func validateIPRanges(ranges []string) error {
	for _, r := range ranges {
		if _, _, err := net.ParseCIDR(r); err != nil {
			return core.NewValidationError(fmt.Errorf("%s is not a valid cidr network", r))
		}
	}
	return nil
}
