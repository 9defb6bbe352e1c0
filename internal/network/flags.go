package network

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Flag is a device flag this package can toggle.
type Flag string

const (
	FlagNoARP     Flag = "NOARP"
	FlagMulticast Flag = "MULTICAST"
	FlagAllMulti  Flag = "ALLMULTI"
	FlagPromisc   Flag = "PROMISC"
)

// ToggleableFlags lists every flag accepted by ParseFlag.
var ToggleableFlags = []Flag{FlagNoARP, FlagMulticast, FlagAllMulti, FlagPromisc}

// ParseFlag maps a case-insensitive flag name to a Flag.
func ParseFlag(name string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noarp":
		return FlagNoARP, nil
	case "multicast":
		return FlagMulticast, nil
	case "allmulti", "allmulticast":
		return FlagAllMulti, nil
	case "promisc", "promiscuous":
		return FlagPromisc, nil
	default:
		return "", &UnsupportedFlagError{Flag: name}
	}
}

// args returns the `ip link set` arguments that make the flag's presence
// match enabled. NOARP is the inverse of `arp on`.
func (f Flag) args(enabled bool) []string {
	switch f {
	case FlagNoARP:
		return []string{"arp", onOff(!enabled)}
	case FlagMulticast:
		return []string{"multicast", onOff(enabled)}
	case FlagAllMulti:
		return []string{"allmulticast", onOff(enabled)}
	default:
		return []string{"promisc", onOff(enabled)}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// ParseSetting normalizes a user-supplied flag setting.
func ParseSetting(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1", "enable", "enabled":
		return true, nil
	case "off", "false", "no", "0", "disable", "disabled":
		return false, nil
	default:
		return false, &InvalidValueError{Attribute: "flag setting", Value: s, Reason: "expected on or off"}
	}
}

// DeviceFlags is a sorted set of upper-case device flag tokens.
type DeviceFlags []string

// NewDeviceFlags normalizes tokens into a DeviceFlags set.
func NewDeviceFlags(tokens []string) DeviceFlags {
	flags := make(DeviceFlags, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			flags = append(flags, t)
		}
	}
	slices.Sort(flags)
	return slices.Compact(flags)
}

// Has reports membership, case-insensitively.
func (d DeviceFlags) Has(name string) bool {
	return slices.Contains(d, strings.ToUpper(name))
}

func (d DeviceFlags) String() string {
	return "<" + strings.Join(d, ",") + ">"
}

// FlagSet is a live view of a device's flags. Every call re-queries the
// device and refreshes the owning Interface's snapshot under its lock.
// Errors are returned as-is; the error policy is not applied.
type FlagSet struct {
	iface *Interface
}

// Read queries and parses the device flags.
func (fs *FlagSet) Read(ctx context.Context) (DeviceFlags, error) {
	fs.iface.mu.Lock()
	defer fs.iface.mu.Unlock()
	return fs.read(ctx)
}

// Has reports whether the named flag is currently set.
func (fs *FlagSet) Has(ctx context.Context, name string) (bool, error) {
	fs.iface.mu.Lock()
	defer fs.iface.mu.Unlock()
	return fs.has(ctx, name)
}

// Set toggles a flag and reports whether its membership now matches enabled.
func (fs *FlagSet) Set(ctx context.Context, name string, enabled bool) (bool, error) {
	fs.iface.mu.Lock()
	defer fs.iface.mu.Unlock()
	return fs.set(ctx, name, enabled)
}

// The lowercase variants expect iface.mu to be held.

func (fs *FlagSet) read(ctx context.Context) (DeviceFlags, error) {
	i := fs.iface
	out, err := i.query(ctx)
	if err != nil {
		return nil, err
	}
	tokens, ok := i.h.parser.FlagList(out)
	if !ok {
		return nil, fmt.Errorf("no flag list in link output for %s", i.h.name)
	}
	return NewDeviceFlags(tokens), nil
}

func (fs *FlagSet) has(ctx context.Context, name string) (bool, error) {
	flags, err := fs.read(ctx)
	if err != nil {
		return false, err
	}
	return flags.Has(name), nil
}

func (fs *FlagSet) set(ctx context.Context, name string, enabled bool) (bool, error) {
	flag, err := ParseFlag(name)
	if err != nil {
		return false, err
	}
	if err := fs.iface.h.set(ctx, flag.args(enabled)...); err != nil {
		return false, err
	}
	flags, err := fs.read(ctx)
	if err != nil {
		return false, err
	}
	return flags.Has(string(flag)) == enabled, nil
}
