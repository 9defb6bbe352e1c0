//go:build !linux

package nmbackend

import (
	"errors"

	"grimm.is/linkctl/internal/logging"
)

// NewDBus is only available on Linux.
func NewDBus(log *logging.Logger) (*DBus, error) {
	return nil, errors.New("networkmanager backend is only supported on linux")
}
