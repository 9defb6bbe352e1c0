//go:build linux

package network

import (
	"fmt"
	"net"

	"github.com/safchain/ethtool"
)

// EthtoolInfo reads permanent addresses and driver names over the ethtool ioctl.
type EthtoolInfo struct {
	handle *ethtool.Ethtool
}

func NewEthtoolInfo() (*EthtoolInfo, error) {
	h, err := ethtool.NewEthtool()
	if err != nil {
		return nil, fmt.Errorf("failed to open ethtool handle: %w", err)
	}
	return &EthtoolInfo{handle: h}, nil
}

// PermAddr returns nil without error for devices that have no burned-in address.
func (e *EthtoolInfo) PermAddr(name string) (net.HardwareAddr, error) {
	s, err := e.handle.PermAddr(name)
	if err != nil {
		return nil, err
	}
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, nil
	}
	for _, b := range mac {
		if b != 0 {
			return mac, nil
		}
	}
	return nil, nil
}

func (e *EthtoolInfo) DriverName(name string) (string, error) {
	return e.handle.DriverName(name)
}

func (e *EthtoolInfo) Close() error {
	e.handle.Close()
	return nil
}
