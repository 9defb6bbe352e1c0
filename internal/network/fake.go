package network

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// FakeLink simulates one device behind `ip` and `iw`. It implements
// CommandExecutor so an Interface can be bound to it in tests and dry runs.
type FakeLink struct {
	mu sync.Mutex

	Name     string
	Index    int
	Alias    string
	HasAlias bool
	Address  string
	PermAddr string
	Flags    []string
	// State overrides the `state` token. Empty derives UP/DOWN from Flags.
	State string

	Wireless bool
	Mode     string
	Channel  int

	// Ignore lists set keywords (up, alias, promisc, type, ...) that exit 0
	// without changing anything.
	Ignore map[string]bool
	// Fail maps a set keyword to the stderr of a non-zero exit.
	Fail map[string]string
	// Removed makes every query fail as if the device was deleted.
	Removed bool

	Commands [][]string
}

// NewFakeLink returns a wired link that is administratively down.
func NewFakeLink(name string, index int) *FakeLink {
	return &FakeLink{
		Name:    name,
		Index:   index,
		Address: "52:54:00:12:34:56",
		Flags:   []string{"BROADCAST", "MULTICAST"},
		Ignore:  map[string]bool{},
		Fail:    map[string]string{},
	}
}

// NewFakeWirelessLink returns a managed-mode wireless link on channel 1.
func NewFakeWirelessLink(name string, index int) *FakeLink {
	f := NewFakeLink(name, index)
	f.Address = "02:11:22:33:44:55"
	f.Wireless = true
	f.Mode = "managed"
	f.Channel = 1
	return f
}

// NewFakeLinkFrom seeds a simulated device with an observed snapshot, so a
// plan can be rehearsed against it before touching the real one.
func NewFakeLinkFrom(s Snapshot) *FakeLink {
	f := NewFakeLink(s.Name, s.Index)
	f.Address = s.HardwareAddr
	f.PermAddr = s.PermanentAddr
	f.Flags = slices.Clone(s.Flags)
	if s.Alias != nil {
		f.Alias, f.HasAlias = *s.Alias, true
	}
	if s.Kind == KindWireless {
		f.Wireless = true
		f.Mode = string(s.Mode)
		f.Channel = s.Channel
	}
	return f
}

// CurrentName is the simulated device's name after any renames.
func (f *FakeLink) CurrentName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Name
}

// Mutations returns the recorded commands that tried to change something.
func (f *FakeLink) Mutations() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, c := range f.Commands {
		if slices.Contains(c, "set") {
			out = append(out, c)
		}
	}
	return out
}

// HasFlag reports whether the simulated device carries flag.
func (f *FakeLink) HasFlag(flag string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.Flags, flag)
}

// RunCommand answers `ip link show|set`, `iw dev ... info|set` and their
// namespaced forms from the simulated state.
func (f *FakeLink) RunCommand(ctx context.Context, name string, arg ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, append([]string{name}, arg...))

	switch name {
	case "ip":
		return f.runIP(name, arg)
	case "iw":
		return f.runIW(append([]string{name}, arg...), arg)
	default:
		return "", f.fail([]string{name}, 127, name+": command not found")
	}
}

func (f *FakeLink) runIP(name string, arg []string) (string, error) {
	argv := append([]string{name}, arg...)
	asJSON := false
	for len(arg) > 0 && strings.HasPrefix(arg[0], "-") {
		switch arg[0] {
		case "-n":
			arg = arg[min(2, len(arg)):]
			continue
		case "-j":
			asJSON = true
		}
		arg = arg[1:]
	}
	if len(arg) >= 4 && arg[0] == "netns" && arg[1] == "exec" && arg[3] == "iw" {
		return f.runIW(argv, arg[4:])
	}
	if len(arg) < 4 || arg[0] != "link" || arg[2] != "dev" {
		return "", f.fail(argv, 255, "Command line is not complete.")
	}
	if err := f.lookup(argv, arg[3]); err != nil {
		return "", err
	}
	switch arg[1] {
	case "show":
		if asJSON {
			return f.renderJSON(), nil
		}
		return f.renderText(), nil
	case "set":
		return "", f.setLink(argv, arg[4:])
	default:
		return "", f.fail(argv, 255, fmt.Sprintf("Command %q is unknown.", arg[1]))
	}
}

func (f *FakeLink) lookup(argv []string, dev string) error {
	if f.Removed || dev != f.Name {
		return f.fail(argv, 1, fmt.Sprintf("Device %q does not exist.", dev))
	}
	return nil
}

func (f *FakeLink) fail(argv []string, code int, stderr string) error {
	return &CommandError{
		Argv:     slices.Clone(argv),
		ExitCode: code,
		Stderr:   stderr + "\n",
		Err:      fmt.Errorf("exit status %d", code),
	}
}

func (f *FakeLink) setLink(argv, kv []string) error {
	for len(kv) > 0 {
		key := kv[0]
		var val string
		switch key {
		case "up", "down":
			kv = kv[1:]
		default:
			if len(kv) < 2 {
				return f.fail(argv, 255, fmt.Sprintf("Error: argument %q is required.", key))
			}
			val, kv = kv[1], kv[2:]
		}
		if stderr, ok := f.Fail[key]; ok {
			return f.fail(argv, 2, stderr)
		}
		if f.Ignore[key] {
			continue
		}
		switch key {
		case "up":
			f.toggle("UP", true)
			f.toggle("LOWER_UP", true)
		case "down":
			f.toggle("UP", false)
			f.toggle("LOWER_UP", false)
		case "name":
			f.Name = val
		case "alias":
			f.Alias, f.HasAlias = val, val != ""
		case "address":
			f.Address = strings.ToLower(val)
		case "arp":
			f.toggle("NOARP", val == "off")
		case "multicast":
			f.toggle("MULTICAST", val == "on")
		case "allmulticast":
			f.toggle("ALLMULTI", val == "on")
		case "promisc":
			f.toggle("PROMISC", val == "on")
		default:
			return f.fail(argv, 255, fmt.Sprintf("Error: either \"dev\" is duplicate, or %q is a garbage.", key))
		}
	}
	return nil
}

func (f *FakeLink) toggle(flag string, on bool) {
	has := slices.Contains(f.Flags, flag)
	switch {
	case on && !has:
		f.Flags = append(f.Flags, flag)
	case !on && has:
		f.Flags = slices.DeleteFunc(f.Flags, func(s string) bool { return s == flag })
	}
}

func (f *FakeLink) stateToken() string {
	if f.State != "" {
		return f.State
	}
	if slices.Contains(f.Flags, "UP") {
		return "UP"
	}
	return "DOWN"
}

func (f *FakeLink) renderText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %s: <%s> mtu 1500 qdisc fq_codel state %s mode DEFAULT group default qlen 1000\n",
		f.Index, f.Name, strings.Join(f.Flags, ","), f.stateToken())
	fmt.Fprintf(&b, "    link/ether %s brd ff:ff:ff:ff:ff:ff", f.Address)
	if f.PermAddr != "" && f.PermAddr != f.Address {
		fmt.Fprintf(&b, " permaddr %s", f.PermAddr)
	}
	b.WriteString("\n")
	if f.HasAlias {
		fmt.Fprintf(&b, "    alias %s\n", f.Alias)
	}
	return b.String()
}

func (f *FakeLink) renderJSON() string {
	link := map[string]any{
		"ifindex":   f.Index,
		"ifname":    f.Name,
		"flags":     f.Flags,
		"mtu":       1500,
		"qdisc":     "fq_codel",
		"operstate": f.stateToken(),
		"link_type": "ether",
		"address":   f.Address,
		"broadcast": "ff:ff:ff:ff:ff:ff",
	}
	if f.PermAddr != "" && f.PermAddr != f.Address {
		link["permaddr"] = f.PermAddr
	}
	if f.HasAlias {
		link["ifalias"] = f.Alias
	}
	data, _ := json.Marshal([]map[string]any{link})
	return string(data)
}

func (f *FakeLink) runIW(argv, arg []string) (string, error) {
	if len(arg) < 3 || arg[0] != "dev" {
		return "", f.fail(argv, 1, "Usage: iw [options] command")
	}
	if f.Removed || arg[1] != f.Name {
		return "", f.fail(argv, 237, "command failed: No such device (-19)")
	}
	if !f.Wireless {
		return "", f.fail(argv, 161, "command failed: No such device (-19)")
	}
	switch {
	case arg[2] == "info":
		return f.renderIW(), nil
	case arg[2] == "set" && len(arg) == 5:
		key, val := arg[3], arg[4]
		if stderr, ok := f.Fail[key]; ok {
			return "", f.fail(argv, 240, stderr)
		}
		if f.Ignore[key] {
			return "", nil
		}
		switch key {
		case "type":
			f.Mode = strings.TrimPrefix(val, "__")
		case "channel":
			ch, err := strconv.Atoi(val)
			if err != nil {
				return "", f.fail(argv, 1, "Invalid channel")
			}
			f.Channel = ch
		default:
			return "", f.fail(argv, 1, "Usage: iw [options] command")
		}
		return "", nil
	default:
		return "", f.fail(argv, 1, "Usage: iw [options] command")
	}
}

func (f *FakeLink) renderIW() string {
	mode := f.Mode
	switch mode {
	case "ap", "ibss":
		mode = strings.ToUpper(mode)
	case "mesh":
		mode = "mesh point"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Interface %s\n", f.Name)
	fmt.Fprintf(&b, "\tifindex %d\n", f.Index)
	b.WriteString("\twdev 0x1\n")
	fmt.Fprintf(&b, "\taddr %s\n", f.Address)
	fmt.Fprintf(&b, "\ttype %s\n", mode)
	b.WriteString("\twiphy 0\n")
	if f.Channel > 0 {
		freq := 2407 + 5*f.Channel
		fmt.Fprintf(&b, "\tchannel %d (%d MHz), width: 20 MHz, center1: %d MHz\n", f.Channel, freq, freq)
	}
	b.WriteString("\ttxpower 20.00 dBm\n")
	return b.String()
}
