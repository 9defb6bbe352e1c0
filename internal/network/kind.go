package network

import (
	"context"
	"os"
	"path/filepath"
)

// sysClassNet is overridden in tests.
var sysClassNet = "/sys/class/net"

// detectKind tags a device wireless when the kernel exposes cfg80211 state
// for it. Inside a foreign namespace sysfs belongs to the caller's namespace,
// so iw is asked instead.
func detectKind(ctx context.Context, h *handle) Kind {
	if h.netns != "" {
		if _, err := h.iw(ctx, "info"); err == nil {
			return KindWireless
		}
		return KindWired
	}
	for _, entry := range []string{"wireless", "phy80211"} {
		if _, err := os.Stat(filepath.Join(sysClassNet, h.name, entry)); err == nil {
			return KindWireless
		}
	}
	return KindWired
}
