package nmbackend

import (
	"context"
	"strings"

	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/network"
)

// NMCLI toggles the managed property with `nmcli device set`.
type NMCLI struct {
	exec network.CommandExecutor
	log  *logging.Logger
}

// NewNMCLI returns an nmcli backend. A nil executor uses the default one.
func NewNMCLI(exec network.CommandExecutor, log *logging.Logger) *NMCLI {
	if exec == nil {
		exec = network.DefaultCommandExecutor
	}
	if log == nil {
		log = logging.WithComponent("nmbackend")
	}
	return &NMCLI{exec: exec, log: log}
}

func (n *NMCLI) Include(ctx context.Context, iface string) error {
	return n.setManaged(ctx, iface, true)
}

func (n *NMCLI) Exclude(ctx context.Context, iface string) error {
	return n.setManaged(ctx, iface, false)
}

func (n *NMCLI) setManaged(ctx context.Context, iface string, managed bool) error {
	value := "no"
	if managed {
		value = "yes"
	}
	if _, err := n.exec.RunCommand(ctx, "nmcli", "device", "set", iface, "managed", value); err != nil {
		return err
	}

	got, err := n.managed(ctx, iface)
	if err != nil {
		return err
	}
	if got != managed {
		return notChanged(iface, managed)
	}
	n.log.Debug("managed property updated", "name", iface, "managed", managed, "via", "nmcli")
	return nil
}

// managed reads GENERAL.STATE, which prints e.g. "10 (unmanaged)" or "100 (connected)".
func (n *NMCLI) managed(ctx context.Context, iface string) (bool, error) {
	out, err := n.exec.RunCommand(ctx, "nmcli", "-g", "GENERAL.STATE", "device", "show", iface)
	if err != nil {
		return false, err
	}
	return !strings.Contains(out, "(unmanaged)"), nil
}
