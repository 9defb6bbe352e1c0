package brand

import (
	"path/filepath"
	"testing"
)

func TestIdentity(t *testing.T) {
	if Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if BinaryName != "linkctl" {
		t.Errorf("BinaryName = %q, want linkctl", BinaryName)
	}
}

func TestUserAgent(t *testing.T) {
	if ua := UserAgent("1.0.0"); ua != "linkctl/1.0.0" {
		t.Errorf("UserAgent = %q", ua)
	}
	if ua := UserAgent(""); ua != "linkctl/dev" {
		t.Errorf("UserAgent default = %q", ua)
	}
}

func TestGetDirectories(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "")
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_STATE_DIR", "")

	if ConfigDir() != DefaultConfigDir {
		t.Errorf("Expected default config dir %s, got %s", DefaultConfigDir, ConfigDir())
	}
	if StateDir() != DefaultStateDir {
		t.Errorf("Expected default state dir %s, got %s", DefaultStateDir, StateDir())
	}

	t.Setenv(ConfigEnvPrefix+"_PREFIX", "/opt/linkctl")
	if got, want := ConfigPath(), "/opt/linkctl/config/linkctl.hcl"; got != want {
		t.Errorf("ConfigPath = %s, want %s", got, want)
	}
	if got, want := OUIPath(), "/opt/linkctl/state/oui.db.gz"; got != want {
		t.Errorf("OUIPath = %s, want %s", got, want)
	}

	t.Setenv(ConfigEnvPrefix+"_STATE_DIR", "/tmp/state")
	if got := OUIPath(); got != filepath.Join("/tmp/state", OUIFileName) {
		t.Errorf("OUIPath with override = %s", got)
	}
}
