//go:build linux

package network

import (
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// NetlinkResolver looks devices up by ifindex over rtnetlink.
type NetlinkResolver struct {
	h *netlink.Handle
}

// NewNetlinkResolver opens a netlink handle in the named namespace, or in the
// current one when ns is empty.
func NewNetlinkResolver(ns string) (*NetlinkResolver, error) {
	if ns == "" {
		h, err := netlink.NewHandle()
		if err != nil {
			return nil, fmt.Errorf("failed to open netlink handle: %w", err)
		}
		return &NetlinkResolver{h: h}, nil
	}

	nsh, err := netns.GetFromName(ns)
	if err != nil {
		return nil, fmt.Errorf("failed to open netns %s: %w", ns, err)
	}
	defer nsh.Close()

	h, err := netlink.NewHandleAt(nsh)
	if err != nil {
		return nil, fmt.Errorf("failed to open netlink handle in %s: %w", ns, err)
	}
	return &NetlinkResolver{h: h}, nil
}

// NameByIndex returns the current name of the device with the given index.
func (r *NetlinkResolver) NameByIndex(index int) (string, error) {
	link, err := r.h.LinkByIndex(index)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, unix.ENODEV) {
			return "", ErrLinkNotFound
		}
		return "", err
	}
	return link.Attrs().Name, nil
}

func (r *NetlinkResolver) Close() error {
	r.h.Close()
	return nil
}
