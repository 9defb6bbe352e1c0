package testutil

import (
	"os"
	"testing"
)

// RequireLinkTest skips the test unless LINKCTL_LINK_TEST is set and the
// process runs as root. Such tests create and modify real kernel links, so
// they belong in a throwaway VM or network namespace.
func RequireLinkTest(t *testing.T) {
	t.Helper()
	if os.Getenv("LINKCTL_LINK_TEST") == "" {
		t.Skip("Skipping test: requires LINKCTL_LINK_TEST environment")
	}
	if os.Geteuid() != 0 {
		t.Skip("Skipping test: requires root")
	}
}
