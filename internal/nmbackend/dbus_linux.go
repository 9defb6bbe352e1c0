//go:build linux

package nmbackend

import (
	"fmt"

	nm "github.com/Wifx/gonetworkmanager/v2"

	"grimm.is/linkctl/internal/logging"
)

// NewDBus connects to NetworkManager on the system bus.
func NewDBus(log *logging.Logger) (*DBus, error) {
	mgr, err := nm.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("error getting NetworkManager: %w", err)
	}
	return &DBus{
		lookup: func(iface string) (managedDevice, error) {
			return mgr.GetDeviceByIpIface(iface)
		},
		log: log,
	}, nil
}
