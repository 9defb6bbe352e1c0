package network

import (
	"context"
	"net"

	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a mock implementation of the CommandExecutor interface.
// Expectations are set on the command name followed by each argument.
type MockCommandExecutor struct {
	mock.Mock
}

func (m *MockCommandExecutor) RunCommand(ctx context.Context, name string, arg ...string) (string, error) {
	argsSlice := make([]interface{}, 0, len(arg)+1)
	argsSlice = append(argsSlice, name)
	for _, a := range arg {
		argsSlice = append(argsSlice, a)
	}

	args := m.Called(argsSlice...)
	return args.String(0), args.Error(1)
}

// MockManagerBackend is a mock implementation of the ManagerBackend interface.
type MockManagerBackend struct {
	mock.Mock
}

func (m *MockManagerBackend) Include(ctx context.Context, iface string) error {
	args := m.Called(iface)
	return args.Error(0)
}

func (m *MockManagerBackend) Exclude(ctx context.Context, iface string) error {
	args := m.Called(iface)
	return args.Error(0)
}

// MockLinkResolver is a mock implementation of the LinkResolver interface.
type MockLinkResolver struct {
	mock.Mock
}

func (m *MockLinkResolver) NameByIndex(index int) (string, error) {
	args := m.Called(index)
	return args.String(0), args.Error(1)
}

// MockHardwareInfo is a mock implementation of the HardwareInfo interface.
type MockHardwareInfo struct {
	mock.Mock
}

func (m *MockHardwareInfo) PermAddr(name string) (net.HardwareAddr, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(net.HardwareAddr), args.Error(1)
}

func (m *MockHardwareInfo) DriverName(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}
