//go:build linux

package network

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"

	"grimm.is/linkctl/internal/testutil"
)

// newDummy creates a dummy link for the duration of the test.
func newDummy(t *testing.T, name string) {
	t.Helper()
	link := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: name}}
	require.NoError(t, netlink.LinkAdd(link))
	t.Cleanup(func() {
		if l, err := netlink.LinkByName(name); err == nil {
			netlink.LinkDel(l)
		}
	})
}

func TestIntegration_DummyLink(t *testing.T) {
	testutil.RequireLinkTest(t)
	ctx := context.Background()

	for n, parser := range []OutputParser{TextParser{}, JSONParser{}} {
		name := fmt.Sprintf("lctest%d", n)
		newDummy(t, name)

		iface, err := Bind(ctx, name, WithStrictErrors(true), WithParser(parser))
		require.NoError(t, err)

		assert.Equal(t, KindWired, iface.Kind())
		assert.Positive(t, iface.Index())
		assert.Equal(t, StateDown, iface.AdminState())

		_, err = iface.Up(ctx)
		require.NoError(t, err)
		_, err = iface.Down(ctx)
		require.NoError(t, err)

		_, err = iface.SetDeviceFlag(ctx, "promisc", "on")
		require.NoError(t, err)
		assert.True(t, iface.Promiscuous())

		_, err = iface.SetAlias(ctx, "linkctl integration")
		require.NoError(t, err)
		alias, ok := iface.Alias()
		assert.True(t, ok)
		assert.Equal(t, "linkctl integration", alias)

		_, err = iface.SetHardwareAddr(ctx, "02:00:00:00:10:01")
		require.NoError(t, err)

		require.NoError(t, iface.Close())
	}
}

func TestIntegration_ExternalRename(t *testing.T) {
	testutil.RequireLinkTest(t)
	newDummy(t, "lcren0")
	ctx := context.Background()

	iface, err := Bind(ctx, "lcren0", WithStrictErrors(true))
	require.NoError(t, err)
	defer iface.Close()

	link, err := netlink.LinkByName("lcren0")
	require.NoError(t, err)
	require.NoError(t, netlink.LinkSetName(link, "lcren1"))
	t.Cleanup(func() {
		if l, err := netlink.LinkByName("lcren1"); err == nil {
			netlink.LinkDel(l)
		}
	})

	_, err = iface.ReadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "lcren1", iface.Name())

	require.NoError(t, netlink.LinkDel(link))
	_, err = iface.ReadState(ctx)
	assert.ErrorIs(t, err, ErrStale)
}
