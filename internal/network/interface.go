package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/metrics"
)

// maxNameLen is IFNAMSIZ minus the terminating NUL.
const maxNameLen = 15

// maxAliasLen is IFALIASZ minus the terminating NUL.
const maxAliasLen = 255

// Interface is a handle on one kernel network device. Reads return the
// snapshot taken by the most recent query; mutators write, re-read and
// verify. All methods are safe for concurrent use.
type Interface struct {
	mu sync.Mutex

	h        *handle
	kind     Kind
	policy   ErrorPolicy
	log      *logging.Logger
	metrics  *metrics.Registry
	manager  ManagerBackend
	hw       HardwareInfo
	flagSet  *FlagSet
	wireless *Wireless
	closers  []io.Closer

	alias     optional
	hwaddr    optional
	permaddr  optional
	state     AdminState
	operState string
	flags     DeviceFlags
	driver    string
}

// Bind queries the named device and returns a handle bound to its ifindex.
func Bind(ctx context.Context, name string, opts ...Option) (*Interface, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	o := bindOptions{exec: DefaultCommandExecutor, parser: TextParser{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.WithComponent("network")
	}
	exec := o.exec
	if o.metrics != nil {
		exec = &InstrumentedExecutor{Next: exec, Metrics: o.metrics}
	}

	i := &Interface{
		policy:  PolicyFor(o.strict, o.logger),
		log:     o.logger,
		metrics: o.metrics,
		manager: o.manager,
		state:   StateUnknown,
	}
	i.h = &handle{name: name, netns: o.netns, exec: exec, parser: o.parser, log: o.logger}
	i.flagSet = &FlagSet{iface: i}

	if o.resolverSet {
		i.h.resolver = o.resolver
	} else if r, err := NewNetlinkResolver(o.netns); err == nil {
		i.h.resolver = r
		i.closers = append(i.closers, r)
	} else {
		o.logger.Debug("netlink resolver unavailable", "error", err)
	}

	if o.hwSet {
		i.hw = o.hw
	} else if o.netns == "" {
		if e, err := NewEthtoolInfo(); err == nil {
			i.hw = e
			i.closers = append(i.closers, e)
		} else {
			o.logger.Debug("ethtool unavailable", "error", err)
		}
	}

	out, err := i.h.show(ctx)
	if err != nil {
		i.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", name, err)
	}
	if s, ok := o.parser.Field(out, MarkerIndex); ok {
		if idx, err := strconv.Atoi(s); err == nil {
			i.h.index = idx
		}
	}
	i.absorb(out)

	i.kind = o.kind
	if i.kind == "" {
		i.kind = detectKind(ctx, i.h)
	}
	if i.kind == KindWireless {
		i.wireless = &Wireless{iface: i}
	}

	if err := i.populate(ctx); err != nil {
		i.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", name, err)
	}
	i.log.Debug("bound interface", "name", i.h.name, "index", i.h.index, "kind", i.kind)
	return i, nil
}

// Close releases netlink and ethtool handles opened by Bind.
func (i *Interface) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	var errs []error
	for _, c := range i.closers {
		errs = append(errs, c.Close())
	}
	i.closers = nil
	return errors.Join(errs...)
}

// Refresh re-reads every attribute from the device.
func (i *Interface) Refresh(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, err := i.query(ctx); err != nil {
		return err
	}
	return i.populate(ctx)
}

// populate fills the parts of the snapshot that do not come from `ip link show`.
func (i *Interface) populate(ctx context.Context) error {
	i.readHardware()
	if i.wireless != nil {
		return i.wireless.readInfo(ctx)
	}
	return nil
}

// query runs `ip link show` and absorbs the answer into the snapshot, so
// derived booleans never disagree with the last observed flag list.
func (i *Interface) query(ctx context.Context) (string, error) {
	out, err := i.h.show(ctx)
	if err != nil {
		return "", err
	}
	i.absorb(out)
	return out, nil
}

func (i *Interface) absorb(out string) {
	p := i.h.parser
	if v, ok := p.Field(out, MarkerAlias); ok {
		i.alias = some(v)
	} else {
		i.alias = optional{}
	}
	if v, ok := p.Field(out, MarkerEther); ok {
		i.hwaddr = some(normalizeMAC(v))
	} else {
		i.hwaddr = optional{}
	}
	if v, ok := p.Field(out, MarkerPermAddr); ok {
		i.permaddr = some(normalizeMAC(v))
	}
	if tokens, ok := p.FlagList(out); ok {
		i.flags = NewDeviceFlags(tokens)
	} else {
		i.flags = nil
	}
	token, _ := p.Field(out, MarkerState)
	i.operState = token
	i.state = ParseAdminState(token, i.flags)
}

// readHardware fills permaddr and driver from ethtool. iproute2 only prints
// permaddr when it differs from the current address.
func (i *Interface) readHardware() {
	if i.hw == nil {
		return
	}
	if !i.permaddr.ok {
		mac, err := i.hw.PermAddr(i.h.name)
		switch {
		case err != nil:
			i.log.Debug("no permanent address", "name", i.h.name, "error", err)
		case len(mac) > 0:
			i.permaddr = some(mac.String())
		}
	}
	if d, err := i.hw.DriverName(i.h.name); err == nil {
		i.driver = d
	}
}

func normalizeMAC(s string) string {
	if mac, err := net.ParseMAC(s); err == nil {
		return mac.String()
	}
	return strings.ToLower(s)
}

// ValidateName checks name against the kernel rules for interface names.
func ValidateName(name string) error {
	reason := ""
	switch {
	case name == "":
		reason = "empty"
	case len(name) > maxNameLen:
		reason = fmt.Sprintf("longer than %d bytes", maxNameLen)
	case name == "." || name == "..":
		reason = "reserved"
	case strings.ContainsAny(name, "/:"):
		reason = "contains '/' or ':'"
	case strings.ContainsFunc(name, unicode.IsSpace):
		reason = "contains whitespace"
	}
	if reason != "" {
		return &InvalidValueError{Attribute: "name", Value: name, Reason: reason}
	}
	return nil
}

// Snapshot accessors.

// Name is the current device name. It follows SetName and external renames.
func (i *Interface) Name() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.h.name
}

// Index is the kernel ifindex the handle is bound to.
func (i *Interface) Index() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.h.index
}

// Kind is fixed at Bind.
func (i *Interface) Kind() Kind { return i.kind }

// Alias returns the alias and whether one is set.
func (i *Interface) Alias() (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.alias.value, i.alias.ok
}

// HardwareAddr returns nil when the link has no ethernet address.
func (i *Interface) HardwareAddr() net.HardwareAddr {
	i.mu.Lock()
	defer i.mu.Unlock()
	return parseOptionalMAC(i.hwaddr)
}

// PermanentAddr returns nil when neither iproute2 nor ethtool reported one.
func (i *Interface) PermanentAddr() net.HardwareAddr {
	i.mu.Lock()
	defer i.mu.Unlock()
	return parseOptionalMAC(i.permaddr)
}

func parseOptionalMAC(o optional) net.HardwareAddr {
	if !o.ok {
		return nil
	}
	mac, err := net.ParseMAC(o.value)
	if err != nil {
		return nil
	}
	return mac
}

// AdminState is derived from the last observed state token and UP flag.
func (i *Interface) AdminState() AdminState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// OperState is the raw `state` token (UP, DOWN, UNKNOWN, DORMANT, ...).
func (i *Interface) OperState() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.operState
}

// DeviceFlags returns a copy of the last observed flag list.
func (i *Interface) DeviceFlags() DeviceFlags {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.flags)
}

// Derived booleans, each a membership test on DeviceFlags.

func (i *Interface) NoARP() bool       { return i.DeviceFlags().Has(string(FlagNoARP)) }
func (i *Interface) Multicast() bool   { return i.DeviceFlags().Has(string(FlagMulticast)) }
func (i *Interface) AllMulti() bool    { return i.DeviceFlags().Has(string(FlagAllMulti)) }
func (i *Interface) Promiscuous() bool { return i.DeviceFlags().Has(string(FlagPromisc)) }

// Driver is the kernel driver name from ethtool, empty if unknown.
func (i *Interface) Driver() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.driver
}

// Manager returns the backend bound with WithManager, or nil.
func (i *Interface) Manager() ManagerBackend { return i.manager }

// Strict reports whether anomalies are returned rather than logged.
func (i *Interface) Strict() bool { return i.policy.Strict() }

// Wireless returns the wireless view, present only for KindWireless.
func (i *Interface) Wireless() (*Wireless, bool) {
	return i.wireless, i.wireless != nil
}

// FlagSet returns the live flag view. Its methods share the Interface's lock
// and report errors without applying the error policy.
func (i *Interface) FlagSet() *FlagSet { return i.flagSet }

// Snapshot is a serializable copy of the last observed state.
type Snapshot struct {
	Name          string      `json:"name"`
	Index         int         `json:"index"`
	Kind          Kind        `json:"kind"`
	Alias         *string     `json:"alias,omitempty"`
	HardwareAddr  string      `json:"address,omitempty"`
	PermanentAddr string      `json:"permaddr,omitempty"`
	AdminState    AdminState  `json:"admin_state"`
	OperState     string      `json:"oper_state,omitempty"`
	Flags         DeviceFlags `json:"flags"`
	NoARP         bool        `json:"noarp"`
	Multicast     bool        `json:"multicast"`
	AllMulti      bool        `json:"allmulti"`
	Promiscuous   bool        `json:"promisc"`
	Driver        string      `json:"driver,omitempty"`
	Mode          Mode        `json:"mode,omitempty"`
	Channel       int         `json:"channel,omitempty"`
}

// Snapshot copies the last observed state without querying the device.
func (i *Interface) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	s := Snapshot{
		Name:        i.h.name,
		Index:       i.h.index,
		Kind:        i.kind,
		AdminState:  i.state,
		OperState:   i.operState,
		Flags:       slices.Clone(i.flags),
		NoARP:       i.flags.Has(string(FlagNoARP)),
		Multicast:   i.flags.Has(string(FlagMulticast)),
		AllMulti:    i.flags.Has(string(FlagAllMulti)),
		Promiscuous: i.flags.Has(string(FlagPromisc)),
		Driver:      i.driver,
	}
	if i.alias.ok {
		alias := i.alias.value
		s.Alias = &alias
	}
	if i.hwaddr.ok {
		s.HardwareAddr = i.hwaddr.value
	}
	if i.permaddr.ok {
		s.PermanentAddr = i.permaddr.value
	}
	if i.wireless != nil {
		s.Mode = i.wireless.mode
		if i.wireless.hasChannel {
			s.Channel = i.wireless.channel
		}
	}
	return s
}

// Live reads. Each one queries the device and refreshes the snapshot.

// ReadName returns the name the kernel reports for the bound index.
func (i *Interface) ReadName(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.readName(ctx)
}

// ReadAlias returns the alias and whether one is set.
func (i *Interface) ReadAlias(ctx context.Context) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, err := i.readAlias(ctx)
	return v.value, v.ok, err
}

// ReadHardwareAddr returns nil when the link has no ethernet address.
func (i *Interface) ReadHardwareAddr(ctx context.Context) (net.HardwareAddr, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, err := i.readHardwareAddr(ctx)
	if err != nil {
		return nil, err
	}
	return parseOptionalMAC(v), nil
}

// ReadState returns the current administrative state.
func (i *Interface) ReadState(ctx context.Context) (AdminState, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.readState(ctx)
}

// HasFlag reports whether a device flag is set right now. Toggleable flag
// spellings (allmulticast, promiscuous) are normalized; other names such as
// UP or LOWER_UP are matched as given.
func (i *Interface) HasFlag(ctx context.Context, name string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if f, err := ParseFlag(name); err == nil {
		name = string(f)
	}
	return i.flagSet.has(ctx, name)
}

func (i *Interface) readName(ctx context.Context) (string, error) {
	out, err := i.query(ctx)
	if err != nil {
		return "", err
	}
	name, ok := i.h.parser.Field(out, MarkerName)
	if !ok {
		return "", fmt.Errorf("no interface name in link output for %s", i.h.name)
	}
	return name, nil
}

func (i *Interface) readAlias(ctx context.Context) (optional, error) {
	if _, err := i.query(ctx); err != nil {
		return optional{}, err
	}
	return i.alias, nil
}

func (i *Interface) readHardwareAddr(ctx context.Context) (optional, error) {
	if _, err := i.query(ctx); err != nil {
		return optional{}, err
	}
	return i.hwaddr, nil
}

func (i *Interface) readState(ctx context.Context) (AdminState, error) {
	if _, err := i.query(ctx); err != nil {
		return StateUnknown, err
	}
	return i.state, nil
}

// Mutators. Each returns (true, nil) on a verified change. Policy errors
// return (false, err) in strict mode and (false, nil) in permissive mode.

// SetName renames the device. Later commands target the new name.
func (i *Interface) SetName(ctx context.Context, name string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := ValidateName(name); err != nil {
		return i.report(err)
	}
	acc := accessor[string]{
		attribute: "name",
		read:      i.readName,
		write:     i.h.rename,
	}
	old, cur, err := acc.change(ctx, i.h.name, name)
	return i.finish(acc.attribute, old, cur, err)
}

// SetAlias sets the interface alias. The value is passed as one argument, so
// spaces are preserved.
func (i *Interface) SetAlias(ctx context.Context, alias string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(alias) > maxAliasLen {
		return i.report(&InvalidValueError{Attribute: "alias", Value: alias, Reason: fmt.Sprintf("longer than %d bytes", maxAliasLen)})
	}
	acc := accessor[optional]{
		attribute: "alias",
		read:      i.readAlias,
		write: func(ctx context.Context, v optional) error {
			return i.h.set(ctx, "alias", v.value)
		},
	}
	old, cur, err := acc.change(ctx, i.h.name, some(alias))
	return i.finish(acc.attribute, old, cur, err)
}

// SetHardwareAddr sets the link-layer address.
func (i *Interface) SetHardwareAddr(ctx context.Context, addr string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	mac, err := net.ParseMAC(addr)
	if err != nil {
		return i.report(&InvalidValueError{Attribute: "address", Value: addr, Reason: "not a hardware address"})
	}
	acc := accessor[optional]{
		attribute: "address",
		read:      i.readHardwareAddr,
		write: func(ctx context.Context, v optional) error {
			return i.h.set(ctx, "address", v.value)
		},
	}
	old, cur, err := acc.change(ctx, i.h.name, some(mac.String()))
	return i.finish(acc.attribute, old, cur, err)
}

// SetState sets the administrative state to up or down.
func (i *Interface) SetState(ctx context.Context, state AdminState) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	want, err := ParseRequestedState(string(state))
	if err != nil {
		return i.report(err)
	}
	acc := accessor[AdminState]{
		attribute: "state",
		read:      i.readState,
		write: func(ctx context.Context, v AdminState) error {
			return i.h.set(ctx, string(v))
		},
	}
	old, cur, err := acc.change(ctx, i.h.name, want)
	return i.finish(acc.attribute, old, cur, err)
}

// Up brings the link up. An already-up link is reported as AlreadyInState
// without running a command.
func (i *Interface) Up(ctx context.Context) (bool, error) {
	return i.transition(ctx, StateUp)
}

// Down brings the link down. An already-down link is reported as
// AlreadyInState without running a command.
func (i *Interface) Down(ctx context.Context) (bool, error) {
	return i.transition(ctx, StateDown)
}

func (i *Interface) transition(ctx context.Context, want AdminState) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	old, err := i.readState(ctx)
	if err != nil {
		return i.report(err)
	}
	if old == want {
		return i.report(&AlreadyInStateError{Interface: i.h.name, State: want})
	}
	if err := i.h.set(ctx, string(want)); err != nil {
		return i.finish("state", old, old, err)
	}
	cur, err := i.readState(ctx)
	if err != nil {
		return i.finish("state", old, cur, err)
	}
	if cur == old {
		return i.finish("state", old, cur, &NotChangedError{Interface: i.h.name, Attribute: "state", Old: old.String(), Requested: want.String()})
	}
	if cur != want {
		return i.finish("state", old, cur, &MismatchError{Interface: i.h.name, Attribute: "state", Requested: want.String(), Observed: cur.String()})
	}
	return i.finish("state", old, cur, nil)
}

// SetDeviceFlag toggles one of ToggleableFlags. setting accepts on/off and
// the usual boolean spellings.
func (i *Interface) SetDeviceFlag(ctx context.Context, flag, setting string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	f, err := ParseFlag(flag)
	if err != nil {
		return i.report(err)
	}
	enabled, err := ParseSetting(setting)
	if err != nil {
		return i.report(err)
	}
	attr := "flag_" + strings.ToLower(string(f))
	before, err := i.flagSet.has(ctx, string(f))
	if err != nil {
		return i.finish(attr, nil, nil, err)
	}
	ok, err := i.flagSet.set(ctx, string(f), enabled)
	if err != nil {
		return i.finish(attr, onOff(before), nil, err)
	}
	if !ok {
		return i.finish(attr, onOff(before), onOff(before), &NotChangedError{
			Interface: i.h.name,
			Attribute: "flag " + string(f),
			Old:       onOff(before),
			Requested: onOff(enabled),
		})
	}
	return i.finish(attr, onOff(before), onOff(enabled), nil)
}

// report routes err through the error policy. Command failures, stale
// handles and unimplemented operations are returned in both modes.
func (i *Interface) report(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if alwaysSurfaced(err) {
		return false, err
	}
	return false, i.policy.Handle(err)
}

// finish records the mutation outcome and audits verified changes.
func (i *Interface) finish(attribute string, old, cur any, err error) (bool, error) {
	if i.metrics != nil {
		i.metrics.RecordMutation(attribute, err, errors.Is(err, ErrNotChanged))
	}
	if err != nil {
		return i.report(err)
	}
	i.log.Audit(logging.AuditEvent{
		Action:    "set_" + attribute,
		Interface: i.h.name,
		Index:     i.h.index,
		From:      display(old),
		To:        display(cur),
	})
	return true, nil
}
