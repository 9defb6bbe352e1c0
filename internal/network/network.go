package network

import (
	"context"
	"errors"
	"net"
)

// ErrLinkNotFound is returned by a LinkResolver when no device has the index.
var ErrLinkNotFound = errors.New("link not found")

// CommandExecutor is an interface that abstracts executing external commands.
// Implementations return stdout on success and a *CommandError otherwise.
type CommandExecutor interface {
	RunCommand(ctx context.Context, name string, arg ...string) (string, error)
}

// ManagerBackend hands an interface to, or takes it away from, a system
// network manager.
type ManagerBackend interface {
	Include(ctx context.Context, iface string) error
	Exclude(ctx context.Context, iface string) error
}

// LinkResolver maps a kernel ifindex back to the device's current name.
type LinkResolver interface {
	NameByIndex(index int) (string, error)
}

// HardwareInfo reads driver-level facts that `ip` does not always print.
type HardwareInfo interface {
	PermAddr(name string) (net.HardwareAddr, error)
	DriverName(name string) (string, error)
}
