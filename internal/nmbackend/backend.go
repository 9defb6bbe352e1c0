// Package nmbackend implements network.ManagerBackend on top of NetworkManager.
//
// Two transports are available: DBus talks to the daemon directly and NMCLI
// drives the nmcli tool through a CommandExecutor. Both read the managed
// property back after writing it, so a request the daemon ignored is
// reported as network.ErrNotChanged.
package nmbackend

import (
	"fmt"
	"strings"

	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/network"
)

// Backend names accepted by New.
const (
	NameDBus  = "networkmanager"
	NameNMCLI = "nmcli"
)

// New returns the backend registered under name. An empty name or "none"
// returns a nil backend, which leaves management unconfigured.
func New(name string, exec network.CommandExecutor, log *logging.Logger) (network.ManagerBackend, error) {
	if log == nil {
		log = logging.WithComponent("nmbackend")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case NameDBus, "nm", "dbus":
		return NewDBus(log)
	case NameNMCLI:
		return NewNMCLI(exec, log), nil
	default:
		return nil, fmt.Errorf("unknown manager backend %q (want %s or %s)", name, NameDBus, NameNMCLI)
	}
}

func notChanged(iface string, managed bool) error {
	return &network.NotChangedError{
		Interface: iface,
		Attribute: "managed",
		Old:       fmt.Sprint(!managed),
		Requested: fmt.Sprint(managed),
	}
}

// Known reports whether New accepts name.
func Known(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", NameDBus, "nm", "dbus", NameNMCLI:
		return true
	}
	return false
}
