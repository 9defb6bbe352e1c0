package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"

	"grimm.is/linkctl/internal/config"
	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/network"
)

// change is one planned mutation of a bound interface.
type change struct {
	Attribute string
	From      string
	To        string
	apply     func(ctx context.Context) (bool, error)
}

func (c change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Attribute, c.From, c.To)
}

// RunApply drives every interface in the config file to its desired state.
func RunApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	var c Common
	c.Register(fs)
	dryRun := fs.Bool("dry-run", false, "Print the plan without changing anything")
	fs.BoolVar(dryRun, "n", false, "Alias for -dry-run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		c.Config = fs.Arg(0)
	}

	return run(fs, &c, true, func(s *session) error {
		return s.apply(*dryRun)
	})
}

func (s *session) apply(dryRun bool) error {
	for i := range s.cfg.Interfaces {
		block := &s.cfg.Interfaces[i]

		var opts []network.Option
		if k, err := network.ParseKind(block.Kind); block.Kind != "" && err == nil {
			opts = append(opts, network.WithKind(k))
		}
		backend, err := s.backend(block.Manager)
		if err != nil {
			return err
		}
		if backend != nil {
			opts = append(opts, network.WithManager(backend))
		}

		iface, err := s.bind(block.Name, opts...)
		if err != nil && block.Rename != "" && network.IsNoSuchDevice(err) {
			// An earlier run already applied the rename.
			iface, err = s.bind(block.Rename, opts...)
		}
		if err != nil {
			return err
		}
		err = s.applyInterface(iface, block, dryRun)
		iface.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *session) applyInterface(iface *network.Interface, block *config.Interface, dryRun bool) error {
	changes, err := plan(iface, block)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		s.p.Fprintf(s.out, "%s: no changes\n", block.Name)
		return nil
	}

	if dryRun {
		s.p.Fprintf(s.out, "%d change(s) planned for %s\n", len(changes), block.Name)
		for _, c := range changes {
			fmt.Fprintf(s.out, "  %s\n", c)
		}
		cmds, err := s.rehearse(iface, block)
		if err != nil {
			return fmt.Errorf("%s: %w", block.Name, err)
		}
		if len(cmds) > 0 {
			s.p.Fprintf(s.out, "  would run:\n")
		}
		for _, argv := range cmds {
			fmt.Fprintf(s.out, "    %s\n", quoteArgv(argv))
		}
		return nil
	}

	applied := 0
	for _, c := range changes {
		changed, err := c.apply(s.ctx)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", block.Name, c.Attribute, err)
		}
		if changed {
			applied++
		}
		s.report(iface.Name(), c.Attribute, c.To, changed)
	}
	s.p.Fprintf(s.out, "%d change(s) applied to %s\n", applied, block.Name)
	return nil
}

// rehearse runs the plan strictly against a simulated copy of iface and
// returns the ip/iw commands it issued. Manager hand-overs are accepted
// without effect; they already show up as plan lines.
func (s *session) rehearse(iface *network.Interface, block *config.Interface) ([][]string, error) {
	parser, err := network.ParserByName(s.common.Parser)
	if err != nil {
		return nil, err
	}
	sim := network.NewFakeLinkFrom(iface.Snapshot())
	twin, err := network.Bind(s.ctx, sim.Name,
		network.WithExecutor(sim),
		network.WithKind(iface.Kind()),
		network.WithParser(parser),
		network.WithNamespace(s.common.Netns),
		network.WithResolver(nil),
		network.WithHardwareInfo(nil),
		network.WithStrictErrors(true),
		network.WithManager(rehearsalManager{}),
		network.WithLogger(logging.New(logging.Config{Level: logging.LevelError, Output: io.Discard})),
	)
	if err != nil {
		return nil, err
	}
	defer twin.Close()

	changes, err := plan(twin, block)
	if err != nil {
		return nil, err
	}
	for _, c := range changes {
		if _, err := c.apply(s.ctx); err != nil {
			return nil, fmt.Errorf("rehearsal of %s failed: %w", c.Attribute, err)
		}
	}
	return sim.Mutations(), nil
}

type rehearsalManager struct{}

func (rehearsalManager) Include(context.Context, string) error { return nil }
func (rehearsalManager) Exclude(context.Context, string) error { return nil }

func quoteArgv(argv []string) string {
	out := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		out[i] = a
	}
	return strings.Join(out, " ")
}

// plan compares the bound snapshot with the block. Management is released
// first and handed over last so the manager does not fight the changes.
func plan(iface *network.Interface, block *config.Interface) ([]change, error) {
	var changes []change
	add := func(attr, from, to string, apply func(context.Context) (bool, error)) {
		changes = append(changes, change{Attribute: attr, From: from, To: to, apply: apply})
	}
	manage := func(ctx context.Context, start bool) (bool, error) {
		if start {
			return true, iface.StartManagement(ctx)
		}
		return true, iface.StopManagement(ctx)
	}

	if block.Managed != nil && !*block.Managed {
		add("managed", "?", "false", func(ctx context.Context) (bool, error) { return manage(ctx, false) })
	}

	if block.Rename != "" && block.Rename != iface.Name() {
		add("name", iface.Name(), block.Rename, func(ctx context.Context) (bool, error) {
			return iface.SetName(ctx, block.Rename)
		})
	}

	if block.Address != "" {
		want, err := net.ParseMAC(block.Address)
		if err != nil {
			return nil, &network.InvalidValueError{Attribute: "address", Value: block.Address, Reason: "not a hardware address"}
		}
		if cur := iface.HardwareAddr(); cur.String() != want.String() {
			add("address", display(cur.String()), want.String(), func(ctx context.Context) (bool, error) {
				return iface.SetHardwareAddr(ctx, want.String())
			})
		}
	}

	if block.Alias != nil {
		cur, ok := iface.Alias()
		if cur != *block.Alias {
			from := "<none>"
			if ok {
				from = strconv.Quote(cur)
			}
			want := *block.Alias
			add("alias", from, strconv.Quote(want), func(ctx context.Context) (bool, error) {
				return iface.SetAlias(ctx, want)
			})
		}
	}

	names := make([]string, 0, len(block.Flags))
	for name := range block.Flags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fl, err := network.ParseFlag(name)
		if err != nil {
			return nil, err
		}
		on, err := network.ParseSetting(block.Flags[name])
		if err != nil {
			return nil, err
		}
		if iface.DeviceFlags().Has(string(fl)) == on {
			continue
		}
		setting := block.Flags[name]
		add("flag "+strings.ToLower(string(fl)), onOff(!on), onOff(on), func(ctx context.Context) (bool, error) {
			return iface.SetDeviceFlag(ctx, name, setting)
		})
	}

	if block.Mode != "" || block.Channel != 0 {
		w, ok := iface.Wireless()
		if !ok {
			return nil, fmt.Errorf("%s is not a wireless interface", iface.Name())
		}
		if block.Mode != "" {
			mode, err := network.ParseMode(block.Mode)
			if err != nil {
				return nil, err
			}
			if mode != w.Mode() {
				add("mode", display(string(w.Mode())), string(mode), func(ctx context.Context) (bool, error) {
					return w.SetMode(ctx, mode)
				})
			}
		}
		if block.Channel != 0 {
			cur, ok := w.Channel()
			if !ok || cur != block.Channel {
				from := "<none>"
				if ok {
					from = strconv.Itoa(cur)
				}
				add("channel", from, strconv.Itoa(block.Channel), func(ctx context.Context) (bool, error) {
					return w.SetChannel(ctx, block.Channel)
				})
			}
		}
	}

	if block.State != "" {
		want, err := network.ParseRequestedState(block.State)
		if err != nil {
			return nil, err
		}
		if cur := iface.AdminState(); cur != want {
			add("state", string(cur), string(want), func(ctx context.Context) (bool, error) {
				return iface.SetState(ctx, want)
			})
		}
	}

	if block.Managed != nil && *block.Managed {
		add("managed", "?", "true", func(ctx context.Context) (bool, error) { return manage(ctx, true) })
	}
	return changes, nil
}

func display(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
