package config

import (
	"time"

	"grimm.is/linkctl/internal/network"
)

// DefaultCommandTimeout applies when settings.command_timeout is unset.
const DefaultCommandTimeout = network.DefaultCommandTimeout

// Config is the root of a linkctl configuration file.
type Config struct {
	Settings   *Settings   `hcl:"settings,block" json:"settings,omitempty"`
	Interfaces []Interface `hcl:"interface,block" json:"interfaces,omitempty"`
}

// Settings holds process-wide defaults. Command-line flags override them.
type Settings struct {
	Strict         bool   `hcl:"strict,optional" json:"strict,omitempty"`
	CommandTimeout string `hcl:"command_timeout,optional" json:"command_timeout,omitempty"`
	Parser         string `hcl:"parser,optional" json:"parser,omitempty"`       // "text" (default) or "json"
	LogLevel       string `hcl:"log_level,optional" json:"log_level,omitempty"` // debug, info, warn, error
	LogJSON        bool   `hcl:"log_json,optional" json:"log_json,omitempty"`
	Netns          string `hcl:"netns,optional" json:"netns,omitempty"`
	Syslog         string `hcl:"syslog,optional" json:"syslog,omitempty"` // host, host:port or udp://host:port
	OUIDatabase    string `hcl:"oui_db,optional" json:"oui_db,omitempty"`
	MetricsFile    string `hcl:"metrics_file,optional" json:"metrics_file,omitempty"`
}

// Interface is the desired state of one link. Unset attributes are left alone.
type Interface struct {
	Name    string            `hcl:"name,label" json:"name"`
	Kind    string            `hcl:"kind,optional" json:"kind,omitempty"` // wired or wireless; detected when empty
	Manager string            `hcl:"manager,optional" json:"manager,omitempty"`
	Managed *bool             `hcl:"managed,optional" json:"managed,omitempty"`
	Rename  string            `hcl:"rename,optional" json:"rename,omitempty"`
	Alias   *string           `hcl:"alias,optional" json:"alias,omitempty"`
	Address string            `hcl:"address,optional" json:"address,omitempty"`
	State   string            `hcl:"state,optional" json:"state,omitempty"`
	Flags   map[string]string `hcl:"flags,optional" json:"flags,omitempty"`

	// Wireless only.
	Mode    string `hcl:"mode,optional" json:"mode,omitempty"`
	Channel int    `hcl:"channel,optional" json:"channel,omitempty"`
}

// Defaults returns the settings used when the file has no settings block.
func Defaults() Settings {
	return Settings{
		CommandTimeout: DefaultCommandTimeout.String(),
		Parser:         "text",
		LogLevel:       "info",
	}
}

// EffectiveSettings returns the settings block merged over Defaults.
func (c *Config) EffectiveSettings() Settings {
	s := Defaults()
	if c == nil || c.Settings == nil {
		return s
	}
	o := *c.Settings
	if o.CommandTimeout == "" {
		o.CommandTimeout = s.CommandTimeout
	}
	if o.Parser == "" {
		o.Parser = s.Parser
	}
	if o.LogLevel == "" {
		o.LogLevel = s.LogLevel
	}
	return o
}

// Timeout parses CommandTimeout, falling back to the default.
func (s Settings) Timeout() time.Duration {
	d, err := time.ParseDuration(s.CommandTimeout)
	if err != nil || d <= 0 {
		return DefaultCommandTimeout
	}
	return d
}

// Interface returns the block for name, if any.
func (c *Config) Interface(name string) (*Interface, bool) {
	for i := range c.Interfaces {
		if c.Interfaces[i].Name == name {
			return &c.Interfaces[i], true
		}
	}
	return nil, false
}
