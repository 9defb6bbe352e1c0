package network

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Mode is a wireless interface type as reported by `iw dev X info`.
type Mode string

const (
	ModeManaged Mode = "managed"
	ModeMonitor Mode = "monitor"
	ModeAP      Mode = "ap"
	ModeIBSS    Mode = "ibss"
	ModeMesh    Mode = "mesh"
	ModeWDS     Mode = "wds"
	ModeOCB     Mode = "ocb"
)

// SettableModes are the modes `iw dev X set type` accepts.
var SettableModes = []Mode{ModeManaged, ModeMonitor, ModeAP, ModeIBSS, ModeMesh, ModeWDS, ModeOCB}

func (m Mode) String() string { return string(m) }

// ParseMode maps user input to a settable Mode.
func ParseMode(s string) (Mode, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "adhoc", "ad-hoc":
		return ModeIBSS, nil
	case "master", "__ap":
		return ModeAP, nil
	case "mp", "mesh point":
		return ModeMesh, nil
	default:
		if slices.Contains(SettableModes, Mode(m)) {
			return Mode(m), nil
		}
		return "", &InvalidValueError{Attribute: "mode", Value: s, Reason: "unsupported wireless mode"}
	}
}

// iwType is the argument `iw set type` expects.
func (m Mode) iwType() string {
	if m == ModeAP {
		return "__ap"
	}
	return string(m)
}

// modeFromInfo normalizes the token after `type` ("AP", "IBSS", "mesh" of
// "mesh point", "P2P-client").
func modeFromInfo(token string) Mode {
	return Mode(strings.ToLower(token))
}

// Wireless holds the wireless-only capabilities of an Interface. It shares
// the Interface's lock, policy and handle.
type Wireless struct {
	iface      *Interface
	mode       Mode
	channel    int
	hasChannel bool
}

// readInfo refreshes mode and channel from one `iw dev X info`.
func (w *Wireless) readInfo(ctx context.Context) error {
	out, err := w.iface.h.iw(ctx, "info")
	if err != nil {
		return err
	}
	w.absorb(out)
	return nil
}

func (w *Wireless) absorb(out string) {
	if t, ok := ParseField(out, "type"); ok {
		w.mode = modeFromInfo(t)
	} else {
		w.mode = ""
	}
	w.channel, w.hasChannel = 0, false
	if s, ok := ParseField(out, "channel"); ok {
		if ch, err := strconv.Atoi(s); err == nil && ch > 0 {
			w.channel, w.hasChannel = ch, true
		}
	}
}

// Mode returns the last observed mode. Empty means iw did not report one.
func (w *Wireless) Mode() Mode {
	w.iface.mu.Lock()
	defer w.iface.mu.Unlock()
	return w.mode
}

// Channel returns the last observed channel and whether one was reported.
func (w *Wireless) Channel() (int, bool) {
	w.iface.mu.Lock()
	defer w.iface.mu.Unlock()
	return w.channel, w.hasChannel
}

func (w *Wireless) readMode(ctx context.Context) (Mode, error) {
	if err := w.readInfo(ctx); err != nil {
		return "", err
	}
	return w.mode, nil
}

// readChannel returns 0 when no channel is reported.
func (w *Wireless) readChannel(ctx context.Context) (int, error) {
	if err := w.readInfo(ctx); err != nil {
		return 0, err
	}
	return w.channel, nil
}

// SetMode changes the interface type. Most drivers refuse this while the
// link is up; the resulting *CommandError is returned as is.
func (w *Wireless) SetMode(ctx context.Context, mode Mode) (bool, error) {
	i := w.iface
	i.mu.Lock()
	defer i.mu.Unlock()
	m, err := ParseMode(string(mode))
	if err != nil {
		return i.report(err)
	}
	acc := accessor[Mode]{
		attribute: "mode",
		read:      w.readMode,
		write: func(ctx context.Context, v Mode) error {
			_, err := i.h.iw(ctx, "set", "type", v.iwType())
			return err
		},
	}
	old, cur, err := acc.change(ctx, i.h.name, m)
	return i.finish(acc.attribute, old, cur, err)
}

// SetChannel tunes the interface to channel, which must be positive.
func (w *Wireless) SetChannel(ctx context.Context, channel int) (bool, error) {
	i := w.iface
	i.mu.Lock()
	defer i.mu.Unlock()
	if channel <= 0 {
		return i.report(&InvalidValueError{Attribute: "channel", Value: strconv.Itoa(channel), Reason: "must be positive"})
	}
	acc := accessor[int]{
		attribute: "channel",
		read:      w.readChannel,
		write: func(ctx context.Context, v int) error {
			_, err := i.h.iw(ctx, "set", "channel", strconv.Itoa(v))
			return err
		},
	}
	old, cur, err := acc.change(ctx, i.h.name, channel)
	return i.finish(acc.attribute, old, cur, err)
}

// SupportedChannels will enumerate the channels the hardware can tune to,
// as a finite sequence that can be ranged over more than once. Channel
// capability discovery is not implemented; it always fails with
// ErrNotImplemented so callers cannot mistake it for an empty list.
func (w *Wireless) SupportedChannels(ctx context.Context) (iter.Seq[int], error) {
	return nil, fmt.Errorf("supported channels of %s: %w", w.iface.Name(), ErrNotImplemented)
}
