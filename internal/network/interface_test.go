package network

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/metrics"
)

func newTestLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf}), &buf
}

// bindFake binds to f with real-device collaborators disabled.
func bindFake(t *testing.T, f *FakeLink, opts ...Option) (*Interface, *bytes.Buffer) {
	t.Helper()
	log, buf := newTestLogger()
	kind := KindWired
	if f.Wireless {
		kind = KindWireless
	}
	base := []Option{
		WithExecutor(f),
		WithResolver(nil),
		WithHardwareInfo(nil),
		WithKind(kind),
		WithLogger(log),
	}
	iface, err := Bind(context.Background(), f.Name, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { iface.Close() })
	return iface, buf
}

func TestBind_Snapshot(t *testing.T) {
	for _, parser := range []OutputParser{TextParser{}, JSONParser{}} {
		f := NewFakeLink("eth0", 2)
		f.Flags = []string{"BROADCAST", "MULTICAST", "UP", "LOWER_UP"}
		f.Alias, f.HasAlias = "uplink to core", true
		f.PermAddr = "52:54:00:aa:bb:cc"

		iface, _ := bindFake(t, f, WithParser(parser))

		assert.Equal(t, "eth0", iface.Name())
		assert.Equal(t, 2, iface.Index())
		assert.Equal(t, KindWired, iface.Kind())
		alias, ok := iface.Alias()
		assert.True(t, ok)
		assert.Equal(t, "uplink to core", alias)
		assert.Equal(t, "52:54:00:12:34:56", iface.HardwareAddr().String())
		assert.Equal(t, "52:54:00:aa:bb:cc", iface.PermanentAddr().String())
		assert.Equal(t, StateUp, iface.AdminState())
		assert.Equal(t, "UP", iface.OperState())
		assert.True(t, iface.Multicast())
		assert.False(t, iface.NoARP())
		assert.False(t, iface.AllMulti())
		assert.False(t, iface.Promiscuous())
		assert.Nil(t, iface.Manager())
		assert.False(t, iface.Strict())
		_, wireless := iface.Wireless()
		assert.False(t, wireless)
	}
}

func TestBind_AbsentAlias(t *testing.T) {
	iface, _ := bindFake(t, NewFakeLink("eth0", 2))

	alias, ok := iface.Alias()
	assert.False(t, ok)
	assert.Empty(t, alias)
	assert.Nil(t, iface.PermanentAddr())
	assert.Nil(t, iface.Snapshot().Alias)
}

func TestBind_Errors(t *testing.T) {
	f := NewFakeLink("eth0", 2)

	_, err := Bind(context.Background(), "eth9", WithExecutor(f), WithResolver(nil), WithHardwareInfo(nil), WithKind(KindWired))
	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.ExitCode)
	assert.Contains(t, cerr.Stderr, "does not exist")

	_, err = Bind(context.Background(), "this-name-is-too-long", WithExecutor(f))
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = Bind(context.Background(), "eth 0", WithExecutor(f))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestBind_HardwareInfo(t *testing.T) {
	hw := new(MockHardwareInfo)
	mac, _ := net.ParseMAC("00:1b:21:0a:0b:0c")
	hw.On("PermAddr", "eth0").Return(mac, nil).Once()
	hw.On("DriverName", "eth0").Return("e1000e", nil)

	iface, _ := bindFake(t, NewFakeLink("eth0", 2), WithHardwareInfo(hw))

	assert.Equal(t, mac, iface.PermanentAddr())
	assert.Equal(t, "e1000e", iface.Driver())

	require.NoError(t, iface.Refresh(context.Background()))
	hw.AssertExpectations(t)
}

func TestBind_PermAddrFromOutputSkipsEthtool(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	f.PermAddr = "00:1b:21:0a:0b:0c"
	hw := new(MockHardwareInfo)
	hw.On("DriverName", "eth0").Return("igb", nil)

	iface, _ := bindFake(t, f, WithHardwareInfo(hw))

	assert.Equal(t, "00:1b:21:0a:0b:0c", iface.PermanentAddr().String())
	hw.AssertNotCalled(t, "PermAddr", "eth0")
}

func TestSetName_RetargetsHandle(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	ok, err := iface.SetName(ctx, "wan0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "wan0", iface.Name())
	assert.Equal(t, 2, iface.Index())

	_, err = iface.ReadState(ctx)
	require.NoError(t, err)
	last := f.Commands[len(f.Commands)-1]
	assert.Equal(t, []string{"ip", "link", "show", "dev", "wan0"}, last)

	ok, err = iface.SetAlias(ctx, "wan")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "wan", f.Alias)
}

func TestSetName_Invalid(t *testing.T) {
	iface, _ := bindFake(t, NewFakeLink("eth0", 2), WithStrictErrors(true))

	_, err := iface.SetName(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSetters_NotChanged(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		call    func(*Interface) (bool, error)
	}{
		{"name", "name", func(i *Interface) (bool, error) { return i.SetName(context.Background(), "wan0") }},
		{"alias", "alias", func(i *Interface) (bool, error) { return i.SetAlias(context.Background(), "uplink") }},
		{"address", "address", func(i *Interface) (bool, error) {
			return i.SetHardwareAddr(context.Background(), "02:00:00:00:00:01")
		}},
		{"state", "up", func(i *Interface) (bool, error) { return i.SetState(context.Background(), StateUp) }},
		{"up", "up", func(i *Interface) (bool, error) { return i.Up(context.Background()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/strict", func(t *testing.T) {
			f := NewFakeLink("eth0", 2)
			f.Ignore[tt.keyword] = true
			iface, _ := bindFake(t, f, WithStrictErrors(true))

			ok, err := tt.call(iface)
			assert.False(t, ok)
			var nc *NotChangedError
			require.ErrorAs(t, err, &nc)
			assert.Equal(t, "eth0", nc.Interface)
			assert.Len(t, f.Mutations(), 1, "the write must have been attempted")
		})

		t.Run(tt.name+"/permissive", func(t *testing.T) {
			f := NewFakeLink("eth0", 2)
			f.Ignore[tt.keyword] = true
			iface, logs := bindFake(t, f)

			ok, err := tt.call(iface)
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Contains(t, logs.String(), "[warn]")
			assert.Contains(t, logs.String(), "was not changed")
			assert.Equal(t, "eth0", iface.Name())
		})
	}
}

func TestSetAlias_KeepsSpaces(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))

	ok, err := iface.SetAlias(context.Background(), "uplink to core")
	require.NoError(t, err)
	assert.True(t, ok)

	alias, present := iface.Alias()
	assert.True(t, present)
	assert.Equal(t, "uplink to core", alias)
	assert.Equal(t, []string{"ip", "link", "set", "dev", "eth0", "alias", "uplink to core"}, f.Mutations()[0])
}

func TestSetHardwareAddr(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	ok, err := iface.SetHardwareAddr(ctx, "02:AA:BB:CC:DD:EE")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "02:aa:bb:cc:dd:ee", iface.HardwareAddr().String())

	_, err = iface.SetHardwareAddr(ctx, "not-a-mac")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Len(t, f.Mutations(), 1, "invalid values never reach the device")
}

func TestSetState(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	ok, err := iface.SetState(ctx, StateUp)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateUp, iface.AdminState())

	_, err = iface.SetState(ctx, "sideways")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = iface.SetState(ctx, StateUnknown)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUpDown(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	ok, err := iface.Up(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateUp, iface.AdminState())
	assert.True(t, f.HasFlag("UP"))

	ok, err = iface.Down(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateDown, iface.AdminState())
}

func TestUp_AlreadyUpPermissiveRunsNoCommand(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	f.Flags = append(f.Flags, "UP", "LOWER_UP")
	iface, logs := bindFake(t, f)
	require.Equal(t, StateUp, iface.AdminState())

	ok, err := iface.Up(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.Mutations())
	assert.Contains(t, logs.String(), "already up")
}

func TestUp_AlreadyUpStrict(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	f.Flags = append(f.Flags, "UP", "LOWER_UP")
	iface, _ := bindFake(t, f, WithStrictErrors(true))

	ok, err := iface.Up(context.Background())
	assert.False(t, ok)
	var already *AlreadyInStateError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, StateUp, already.State)
	assert.ErrorIs(t, err, ErrAlreadyInState)
	assert.Empty(t, f.Mutations())
}

func TestDown_AlreadyDownStrict(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))

	_, err := iface.Down(context.Background())
	var already *AlreadyInStateError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, StateDown, already.State)
	assert.Empty(t, f.Mutations())
}

// SetState goes through the generic accessor: it always writes, and a
// request for the current state comes back as not-changed.
func TestSetState_CurrentStateWritesAndReportsNotChanged(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	f.Flags = append(f.Flags, "UP", "LOWER_UP")
	iface, _ := bindFake(t, f, WithStrictErrors(true))

	ok, err := iface.SetState(context.Background(), StateUp)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotChanged)
	assert.NotErrorIs(t, err, ErrAlreadyInState)
	assert.Equal(t, [][]string{{"ip", "link", "set", "dev", "eth0", "up"}}, f.Mutations())
}

func TestUp_Mismatch(t *testing.T) {
	unknown := "2: eth0: mtu 1500 state UNKNOWN\n    link/ether 52:54:00:12:34:56 brd ff:ff:ff:ff:ff:ff\n"
	down := "2: eth0: mtu 1500 state DOWN\n    link/ether 52:54:00:12:34:56 brd ff:ff:ff:ff:ff:ff\n"

	exec := new(MockCommandExecutor)
	exec.On("RunCommand", "ip", "link", "show", "dev", "eth0").Return(unknown, nil).Twice()
	exec.On("RunCommand", "ip", "link", "set", "dev", "eth0", "up").Return("", nil).Once()
	exec.On("RunCommand", "ip", "link", "show", "dev", "eth0").Return(down, nil).Once()

	log, _ := newTestLogger()
	iface, err := Bind(context.Background(), "eth0",
		WithExecutor(exec), WithResolver(nil), WithHardwareInfo(nil),
		WithKind(KindWired), WithLogger(log), WithStrictErrors(true))
	require.NoError(t, err)
	assert.Equal(t, StateUnknown, iface.AdminState())

	ok, err := iface.Up(context.Background())
	assert.False(t, ok)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "up", mismatch.Requested)
	assert.Equal(t, "down", mismatch.Observed)
	assert.ErrorIs(t, err, ErrNotChanged)
	exec.AssertExpectations(t)
}

func TestSetDeviceFlag_RoundTrip(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	for _, flag := range ToggleableFlags {
		name := strings.ToLower(string(flag))

		ok, err := iface.SetDeviceFlag(ctx, name, "on")
		require.NoError(t, err, name)
		assert.True(t, ok, name)
		has, err := iface.HasFlag(ctx, name)
		require.NoError(t, err)
		assert.True(t, has, name)
		assert.True(t, f.HasFlag(string(flag)), name)

		ok, err = iface.SetDeviceFlag(ctx, name, "off")
		require.NoError(t, err, name)
		assert.True(t, ok, name)
		has, err = iface.HasFlag(ctx, name)
		require.NoError(t, err)
		assert.False(t, has, name)
	}
}

func TestSetDeviceFlag_DerivedBooleans(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	_, err := iface.SetDeviceFlag(ctx, "promisc", "on")
	require.NoError(t, err)
	_, err = iface.SetDeviceFlag(ctx, "noarp", "yes")
	require.NoError(t, err)
	_, err = iface.SetDeviceFlag(ctx, "allmulticast", "1")
	require.NoError(t, err)

	assert.True(t, iface.Promiscuous())
	assert.True(t, iface.NoARP())
	assert.True(t, iface.AllMulti())
	assert.Equal(t, iface.DeviceFlags().Has("PROMISC"), iface.Promiscuous())
	assert.Contains(t, f.Mutations(), []string{"ip", "link", "set", "dev", "eth0", "arp", "off"})
	assert.Contains(t, f.Mutations(), []string{"ip", "link", "set", "dev", "eth0", "allmulticast", "on"})
}

func TestSetDeviceFlag_NoOp(t *testing.T) {
	keywords := map[Flag]string{
		FlagNoARP:     "arp",
		FlagMulticast: "multicast",
		FlagAllMulti:  "allmulticast",
		FlagPromisc:   "promisc",
	}

	for _, flag := range ToggleableFlags {
		t.Run(string(flag), func(t *testing.T) {
			f := NewFakeLink("eth0", 2)
			f.Ignore[keywords[flag]] = true
			setting := "on"
			if f.HasFlag(string(flag)) {
				setting = "off"
			}

			strict, _ := bindFake(t, f, WithStrictErrors(true))
			ok, err := strict.SetDeviceFlag(context.Background(), string(flag), setting)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrNotChanged)

			permissive, _ := bindFake(t, f)
			ok, err = permissive.SetDeviceFlag(context.Background(), string(flag), setting)
			assert.False(t, ok)
			assert.NoError(t, err)
		})
	}
}

func TestSetDeviceFlag_Rejected(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	strict, _ := bindFake(t, f, WithStrictErrors(true))
	ctx := context.Background()

	_, err := strict.SetDeviceFlag(ctx, "dynamic", "on")
	assert.ErrorIs(t, err, ErrUnsupportedFlag)
	_, err = strict.SetDeviceFlag(ctx, "promisc", "")
	assert.ErrorIs(t, err, ErrInvalidValue)

	permissive, logs := bindFake(t, f)
	ok, err := permissive.SetDeviceFlag(ctx, "dynamic", "on")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "unsupported device flag")
	assert.Empty(t, f.Mutations())
}

func TestCommandFailureAlwaysSurfaced(t *testing.T) {
	for _, strict := range []bool{true, false} {
		f := NewFakeLink("eth0", 2)
		f.Fail["promisc"] = "RTNETLINK answers: Operation not permitted"
		iface, _ := bindFake(t, f, WithStrictErrors(strict))

		ok, err := iface.SetDeviceFlag(context.Background(), "promisc", "on")
		assert.False(t, ok)
		var cerr *CommandError
		require.ErrorAs(t, err, &cerr, "strict=%v", strict)
		assert.Equal(t, 2, cerr.ExitCode)
		assert.Contains(t, cerr.Stderr, "Operation not permitted")
		assert.Equal(t, []string{"ip", "link", "set", "dev", "eth0", "promisc", "on"}, cerr.Argv)
	}
}

func TestStartManagement(t *testing.T) {
	ctx := context.Background()

	for _, strict := range []bool{true, false} {
		iface, _ := bindFake(t, NewFakeLink("eth0", 2), WithStrictErrors(strict))
		assert.ErrorIs(t, iface.StartManagement(ctx), ErrManagerNotConfigured, "strict=%v", strict)
		assert.ErrorIs(t, iface.StopManagement(ctx), ErrManagerNotConfigured, "strict=%v", strict)
	}

	backend := new(MockManagerBackend)
	backend.On("Include", "eth0").Return(nil).Once()
	backend.On("Exclude", "eth0").Return(errors.New("device is strictly unmanaged")).Once()

	iface, logs := bindFake(t, NewFakeLink("eth0", 2), WithManager(backend))
	assert.Same(t, backend, iface.Manager())
	require.NoError(t, iface.StartManagement(ctx))
	assert.Contains(t, logs.String(), "action=manage_include")

	err := iface.StopManagement(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly unmanaged")
	backend.AssertExpectations(t)
}

func TestManagement_NotChangedFollowsPolicy(t *testing.T) {
	ctx := context.Background()
	unchanged := &NotChangedError{Interface: "eth0", Attribute: "managed", Old: "true", Requested: "false"}

	backend := new(MockManagerBackend)
	backend.On("Exclude", "eth0").Return(unchanged).Twice()

	strict, _ := bindFake(t, NewFakeLink("eth0", 2), WithManager(backend), WithStrictErrors(true))
	err := strict.StopManagement(ctx)
	assert.ErrorIs(t, err, ErrNotChanged)

	permissive, logs := bindFake(t, NewFakeLink("eth0", 2), WithManager(backend))
	assert.NoError(t, permissive.StopManagement(ctx))
	assert.Contains(t, logs.String(), "[warn]")
	assert.Contains(t, logs.String(), "managed of eth0")
	assert.NotContains(t, logs.String(), "action=manage_exclude")

	backend.AssertExpectations(t)
}

func TestFlagSet_ConcurrentUse(t *testing.T) {
	f := NewFakeLink("eth0", 2)
	iface, _ := bindFake(t, f)
	ctx := context.Background()
	fs := iface.FlagSet()

	var wg sync.WaitGroup
	for n := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				switch n {
				case 0:
					_, err := fs.Read(ctx)
					assert.NoError(t, err)
				case 1:
					_, err := fs.Set(ctx, "promisc", j%2 == 0)
					assert.NoError(t, err)
				case 2:
					assert.Equal(t, 2, iface.Snapshot().Index)
				case 3:
					name := "wan0"
					if j%2 == 1 {
						name = "eth0"
					}
					_, err := iface.SetName(ctx, name)
					assert.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, "eth0", iface.Name())
	flags, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.HasFlag("PROMISC"), flags.Has("PROMISC"))
}

func TestAuditAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg, reg)
	f := NewFakeLink("eth0", 2)
	f.Ignore["promisc"] = true
	iface, logs := bindFake(t, f, WithMetrics(m))
	ctx := context.Background()

	_, err := iface.SetAlias(ctx, "uplink")
	require.NoError(t, err)
	_, err = iface.SetDeviceFlag(ctx, "promisc", "on")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "AUDIT")
	assert.Contains(t, logs.String(), "action=set_alias")
	assert.Contains(t, logs.String(), "to=uplink")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("alias", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("flag_promisc", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationFailures.WithLabelValues("flag_promisc")))
	assert.Greater(t, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("ip", "ok")), 3.0)
}

func TestSnapshot(t *testing.T) {
	f := NewFakeWirelessLink("wlan0", 3)
	f.Flags = []string{"BROADCAST", "MULTICAST", "UP", "LOWER_UP"}
	iface, _ := bindFake(t, f)

	s := iface.Snapshot()
	assert.Equal(t, "wlan0", s.Name)
	assert.Equal(t, 3, s.Index)
	assert.Equal(t, KindWireless, s.Kind)
	assert.Equal(t, StateUp, s.AdminState)
	assert.Equal(t, ModeManaged, s.Mode)
	assert.Equal(t, 1, s.Channel)
	assert.True(t, s.Multicast)
	assert.Equal(t, "02:11:22:33:44:55", s.HardwareAddr)
}
