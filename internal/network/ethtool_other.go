//go:build !linux

package network

import (
	"errors"
	"net"
)

// EthtoolInfo is unavailable off Linux.
type EthtoolInfo struct{}

func NewEthtoolInfo() (*EthtoolInfo, error) {
	return nil, errors.New("ethtool is only supported on linux")
}

func (e *EthtoolInfo) PermAddr(name string) (net.HardwareAddr, error) { return nil, nil }

func (e *EthtoolInfo) DriverName(name string) (string, error) { return "", nil }

func (e *EthtoolInfo) Close() error { return nil }
