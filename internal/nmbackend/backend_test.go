package nmbackend

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/network"
)

func newTestLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelDebug, Output: new(bytes.Buffer)})
}

func TestNMCLI_Include(t *testing.T) {
	mockExec := new(network.MockCommandExecutor)
	mockExec.On("RunCommand", "nmcli", "device", "set", "eth0", "managed", "yes").Return("", nil).Once()
	mockExec.On("RunCommand", "nmcli", "-g", "GENERAL.STATE", "device", "show", "eth0").Return("30 (disconnected)\n", nil).Once()

	b := NewNMCLI(mockExec, newTestLogger())
	require.NoError(t, b.Include(context.Background(), "eth0"))
	mockExec.AssertExpectations(t)
}

func TestNMCLI_Exclude(t *testing.T) {
	mockExec := new(network.MockCommandExecutor)
	mockExec.On("RunCommand", "nmcli", "device", "set", "eth0", "managed", "no").Return("", nil).Once()
	mockExec.On("RunCommand", "nmcli", "-g", "GENERAL.STATE", "device", "show", "eth0").Return("10 (unmanaged)\n", nil).Once()

	b := NewNMCLI(mockExec, newTestLogger())
	require.NoError(t, b.Exclude(context.Background(), "eth0"))
	mockExec.AssertExpectations(t)
}

func TestNMCLI_Ignored(t *testing.T) {
	mockExec := new(network.MockCommandExecutor)
	mockExec.On("RunCommand", "nmcli", "device", "set", "eth0", "managed", "no").Return("", nil).Once()
	mockExec.On("RunCommand", "nmcli", "-g", "GENERAL.STATE", "device", "show", "eth0").Return("100 (connected)\n", nil).Once()

	b := NewNMCLI(mockExec, newTestLogger())
	err := b.Exclude(context.Background(), "eth0")
	assert.ErrorIs(t, err, network.ErrNotChanged)
}

func TestNMCLI_CommandFailure(t *testing.T) {
	cerr := &network.CommandError{
		Argv:     []string{"nmcli", "device", "set", "eth9", "managed", "yes"},
		ExitCode: 10,
		Stderr:   "Error: Device 'eth9' not found.",
	}
	mockExec := new(network.MockCommandExecutor)
	mockExec.On("RunCommand", "nmcli", "device", "set", "eth9", "managed", "yes").Return("", cerr).Once()

	b := NewNMCLI(mockExec, newTestLogger())
	err := b.Include(context.Background(), "eth9")
	assert.ErrorIs(t, err, network.ErrCommandFailed)
	mockExec.AssertExpectations(t)
}

type fakeDevice struct {
	managed  bool
	ignore   bool
	setErr   error
	setCalls []bool
}

func (d *fakeDevice) GetPropertyManaged() (bool, error) { return d.managed, nil }

func (d *fakeDevice) SetPropertyManaged(v bool) error {
	d.setCalls = append(d.setCalls, v)
	if d.setErr != nil {
		return d.setErr
	}
	if !d.ignore {
		d.managed = v
	}
	return nil
}

func dbusWith(devs map[string]*fakeDevice) *DBus {
	return &DBus{
		lookup: func(iface string) (managedDevice, error) {
			d, ok := devs[iface]
			if !ok {
				return nil, errors.New("No device found for the requested iface")
			}
			return d, nil
		},
		log: newTestLogger(),
	}
}

func TestDBus(t *testing.T) {
	dev := &fakeDevice{}
	b := dbusWith(map[string]*fakeDevice{"wlan0": dev})
	ctx := context.Background()

	require.NoError(t, b.Include(ctx, "wlan0"))
	assert.True(t, dev.managed)
	require.NoError(t, b.Exclude(ctx, "wlan0"))
	assert.False(t, dev.managed)
	assert.Equal(t, []bool{true, false}, dev.setCalls)
}

func TestDBus_Errors(t *testing.T) {
	ignoring := &fakeDevice{ignore: true}
	failing := &fakeDevice{setErr: errors.New("org.freedesktop.DBus.Error.AccessDenied")}
	b := dbusWith(map[string]*fakeDevice{"eth0": ignoring, "eth1": failing})
	ctx := context.Background()

	assert.ErrorIs(t, b.Include(ctx, "eth0"), network.ErrNotChanged)

	err := b.Include(ctx, "eth1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")

	err = b.Include(ctx, "eth9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth9")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, b.Include(cancelled, "eth0"), context.Canceled)
}

func TestNew(t *testing.T) {
	b, err := New("", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = New("none", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = New("NMCLI", new(network.MockCommandExecutor), nil)
	require.NoError(t, err)
	assert.IsType(t, &NMCLI{}, b)

	_, err = New("connman", nil, nil)
	assert.ErrorContains(t, err, "unknown manager backend")
}
