// Package brand provides centralized naming constants for linkctl.
//
// The identity is loaded from brand.json at compile time via go:embed so
// packaging scripts can read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

//go:embed brand.json
var brandJSON []byte

// identity mirrors brand.json.
type identity struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	BinaryName       string `json:"binaryName"`
	Description      string `json:"description"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	DefaultStateDir  string `json:"defaultStateDir"`
	ConfigFileName   string `json:"configFileName"`
	OUIFileName      string `json:"ouiFileName"`
}

var (
	Name             string
	LowerName        string
	BinaryName       string
	Description      string
	ConfigEnvPrefix  string
	DefaultConfigDir string
	DefaultStateDir  string
	ConfigFileName   string
	OUIFileName      string

	// Set at build time via -ldflags "-X grimm.is/linkctl/internal/brand.Version=..."
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func init() {
	var id identity
	if err := json.Unmarshal(brandJSON, &id); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}
	Name, LowerName, BinaryName, Description = id.Name, id.LowerName, id.BinaryName, id.Description
	ConfigEnvPrefix = id.ConfigEnvPrefix
	DefaultConfigDir, DefaultStateDir = id.DefaultConfigDir, id.DefaultStateDir
	ConfigFileName, OUIFileName = id.ConfigFileName, id.OUIFileName
}

// UserAgent returns the product token sent with HTTP requests.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// dir resolves a directory from PREFIX_<KIND>_DIR, then PREFIX_PREFIX/<kind>,
// then def.
func dir(kind, def string) string {
	if d := os.Getenv(ConfigEnvPrefix + "_" + strings.ToUpper(kind) + "_DIR"); d != "" {
		return d
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, kind)
	}
	return def
}

// ConfigDir is where linkctl looks for its configuration file.
func ConfigDir() string { return dir("config", DefaultConfigDir) }

// StateDir holds downloaded data such as the vendor database.
func StateDir() string { return dir("state", DefaultStateDir) }

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// OUIPath returns the default location of the vendor database.
func OUIPath() string {
	return filepath.Join(StateDir(), OUIFileName)
}
