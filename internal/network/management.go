package network

import (
	"context"
	"errors"
	"fmt"

	"grimm.is/linkctl/internal/logging"
)

// StartManagement hands the interface to the configured manager backend.
// Without a backend it fails with ErrManagerNotConfigured in both error modes.
func (i *Interface) StartManagement(ctx context.Context) error {
	return i.manage(ctx, "include")
}

// StopManagement takes the interface away from the manager backend.
//
// A backend whose read-back shows no change returns *NotChangedError, which
// goes through the error policy. Every other failure is returned in both modes.
func (i *Interface) StopManagement(ctx context.Context) error {
	return i.manage(ctx, "exclude")
}

func (i *Interface) manage(ctx context.Context, action string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	var err error
	switch {
	case i.manager == nil:
		err = fmt.Errorf("cannot %s %s: %w", action, i.h.name, ErrManagerNotConfigured)
	case action == "include":
		err = i.manager.Include(ctx, i.h.name)
	default:
		err = i.manager.Exclude(ctx, i.h.name)
	}
	if i.metrics != nil {
		i.metrics.RecordManagement(action, err)
	}
	if err != nil {
		err = fmt.Errorf("failed to %s %s: %w", action, i.h.name, err)
		// A backend that accepted the request but did not take effect is a
		// verification anomaly like any other.
		if errors.Is(err, ErrNotChanged) {
			return i.policy.Handle(err)
		}
		i.log.Error("management change failed", "action", action, "name", i.h.name, "error", err)
		return err
	}
	i.log.Audit(logging.AuditEvent{Action: "manage_" + action, Interface: i.h.name, Index: i.h.index})
	return nil
}
