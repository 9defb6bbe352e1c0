package nmbackend

import (
	"context"
	"fmt"

	"grimm.is/linkctl/internal/logging"
)

// managedDevice is the slice of a NetworkManager device this package uses.
type managedDevice interface {
	GetPropertyManaged() (bool, error)
	SetPropertyManaged(bool) error
}

// DBus toggles the Managed property of the device over the system bus.
type DBus struct {
	lookup func(iface string) (managedDevice, error)
	log    *logging.Logger
}

func (d *DBus) Include(ctx context.Context, iface string) error {
	return d.setManaged(ctx, iface, true)
}

func (d *DBus) Exclude(ctx context.Context, iface string) error {
	return d.setManaged(ctx, iface, false)
}

func (d *DBus) setManaged(ctx context.Context, iface string, managed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.lookup(iface)
	if err != nil {
		return fmt.Errorf("networkmanager device %s: %w", iface, err)
	}
	if err := dev.SetPropertyManaged(managed); err != nil {
		return fmt.Errorf("set managed=%t on %s: %w", managed, iface, err)
	}

	got, err := dev.GetPropertyManaged()
	if err != nil {
		return fmt.Errorf("read managed on %s: %w", iface, err)
	}
	if got != managed {
		return notChanged(iface, managed)
	}
	d.log.Debug("managed property updated", "name", iface, "managed", managed, "via", "dbus")
	return nil
}
