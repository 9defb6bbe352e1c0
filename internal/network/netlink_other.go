//go:build !linux

package network

import "errors"

// NetlinkResolver is unavailable off Linux.
type NetlinkResolver struct{}

func NewNetlinkResolver(ns string) (*NetlinkResolver, error) {
	return nil, errors.New("netlink is only supported on linux")
}

func (r *NetlinkResolver) NameByIndex(index int) (string, error) {
	return "", ErrLinkNotFound
}

func (r *NetlinkResolver) Close() error { return nil }
