package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/network"
)

// Attributes accepted by `set`.
var settable = []string{"name", "alias", "address", "state", "flag", "mode", "channel"}

// RunSet changes one attribute of an interface and verifies the result.
func RunSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	var c Common
	c.Register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 3 {
		return fmt.Errorf("usage: %s set IFACE %s VALUE", brand.BinaryName, strings.Join(settable, "|"))
	}
	name, attr, values := fs.Arg(0), fs.Arg(1), fs.Args()[2:]

	return run(fs, &c, false, func(s *session) error {
		iface, err := s.bind(name)
		if err != nil {
			return err
		}
		defer iface.Close()

		changed, err := setAttribute(s.ctx, iface, attr, values)
		if err != nil {
			return err
		}
		s.report(name, attr, strings.Join(values, " "), changed)
		return nil
	})
}

// setAttribute dispatches to the verified setter for attr.
func setAttribute(ctx context.Context, iface *network.Interface, attr string, values []string) (bool, error) {
	value := strings.Join(values, " ")
	attr = strings.ToLower(attr)
	switch attr {
	case "name":
		return iface.SetName(ctx, value)
	case "alias":
		return iface.SetAlias(ctx, value)
	case "address", "mac":
		return iface.SetHardwareAddr(ctx, value)
	case "state":
		return iface.SetState(ctx, network.AdminState(value))
	case "flag":
		name, setting, err := flagArgs(values)
		if err != nil {
			return false, err
		}
		return iface.SetDeviceFlag(ctx, name, setting)
	case "mode", "channel":
		w, ok := iface.Wireless()
		if !ok {
			return false, fmt.Errorf("%s is not a wireless interface", iface.Name())
		}
		if attr == "mode" {
			return w.SetMode(ctx, network.Mode(value))
		}
		ch, err := strconv.Atoi(value)
		if err != nil {
			return false, &network.InvalidValueError{Attribute: "channel", Value: value, Reason: "not a number"}
		}
		return w.SetChannel(ctx, ch)
	default:
		return false, fmt.Errorf("unknown attribute %q (want one of %s)", attr, strings.Join(settable, ", "))
	}
}

// flagArgs accepts "promisc on" or "promisc=on".
func flagArgs(values []string) (string, string, error) {
	switch len(values) {
	case 1:
		if name, setting, ok := strings.Cut(values[0], "="); ok {
			return name, setting, nil
		}
	case 2:
		return values[0], values[1], nil
	}
	return "", "", errors.New("flag takes NAME SETTING, e.g. 'promisc on'")
}

// RunUpDown brings an interface up or down.
func RunUpDown(args []string, up bool) error {
	verb := "down"
	if up {
		verb = "up"
	}
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	var c Common
	c.Register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s %s IFACE", brand.BinaryName, verb)
	}
	name := fs.Arg(0)

	return run(fs, &c, false, func(s *session) error {
		iface, err := s.bind(name)
		if err != nil {
			return err
		}
		defer iface.Close()

		transition := iface.Down
		if up {
			transition = iface.Up
		}
		changed, err := transition(s.ctx)
		if err != nil {
			return err
		}
		if !changed && string(iface.AdminState()) == verb {
			s.p.Fprintf(s.out, "%s is already %s\n", iface.Name(), verb)
			return nil
		}
		s.report(iface.Name(), "state", verb, changed)
		return nil
	})
}

func (s *session) report(name, attr, value string, changed bool) {
	if changed {
		s.p.Fprintf(s.out, "%s: %s set to %s\n", name, attr, value)
		return
	}
	s.p.Fprintf(s.out, "%s: %s was not changed\n", name, attr)
}
