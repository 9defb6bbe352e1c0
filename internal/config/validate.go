package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/network"
	"grimm.is/linkctl/internal/nmbackend"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate validates the entire configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	if c.Settings != nil {
		errs = append(errs, c.Settings.validate()...)
	}

	seen := make(map[string]bool)
	for i := range c.Interfaces {
		iface := &c.Interfaces[i]
		if seen[iface.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("interface[%s]", iface.Name),
				Message: "duplicate interface block",
			})
		}
		seen[iface.Name] = true
		errs = append(errs, iface.validate()...)
	}
	return errs
}

func (s *Settings) validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: "settings." + field, Message: fmt.Sprintf(format, args...)})
	}

	if s.CommandTimeout != "" {
		if d, err := time.ParseDuration(s.CommandTimeout); err != nil {
			add("command_timeout", "invalid duration %q", s.CommandTimeout)
		} else if d <= 0 {
			add("command_timeout", "must be positive, got %s", d)
		}
	}
	if s.Parser != "" {
		if _, err := network.ParserByName(s.Parser); err != nil {
			add("parser", "%v", err)
		}
	}
	if s.LogLevel != "" {
		if _, err := logging.ParseLevel(s.LogLevel); err != nil {
			add("log_level", "%v", err)
		}
	}
	if s.Syslog != "" {
		if _, err := logging.ParseSyslogTarget(s.Syslog); err != nil {
			add("syslog", "%v", err)
		}
	}
	if s.Netns != "" && strings.ContainsAny(s.Netns, "/ ") {
		add("netns", "invalid namespace name %q", s.Netns)
	}
	return errs
}

func (i *Interface) validate() ValidationErrors {
	var errs ValidationErrors
	field := fmt.Sprintf("interface[%s]", i.Name)
	add := func(attr, format string, args ...any) {
		f := field
		if attr != "" {
			f += "." + attr
		}
		errs = append(errs, ValidationError{Field: f, Message: fmt.Sprintf(format, args...)})
	}

	if err := network.ValidateName(i.Name); err != nil {
		add("", "%v", err)
	}

	var kind network.Kind
	if i.Kind != "" {
		k, err := network.ParseKind(i.Kind)
		if err != nil {
			add("kind", "%v", err)
		}
		kind = k
	}

	if !nmbackend.Known(i.Manager) {
		add("manager", "unknown manager backend %q", i.Manager)
	}
	if i.Managed != nil && (i.Manager == "" || strings.EqualFold(i.Manager, "none")) {
		add("managed", "requires a manager backend")
	}

	if i.Rename != "" {
		if err := network.ValidateName(i.Rename); err != nil {
			add("rename", "%v", err)
		}
	}
	if i.Alias != nil && len(*i.Alias) > 255 {
		add("alias", "longer than 255 bytes")
	}
	if i.Address != "" {
		if _, err := net.ParseMAC(i.Address); err != nil {
			add("address", "invalid MAC address %q", i.Address)
		}
	}
	if i.State != "" {
		if _, err := network.ParseRequestedState(i.State); err != nil {
			add("state", "%v", err)
		}
	}
	for name, setting := range i.Flags {
		if _, err := network.ParseFlag(name); err != nil {
			add("flags."+name, "%v", err)
		}
		if _, err := network.ParseSetting(setting); err != nil {
			add("flags."+name, "%v", err)
		}
	}

	if kind == network.KindWired && (i.Mode != "" || i.Channel != 0) {
		add("", "mode and channel apply to wireless interfaces only")
	}
	if i.Mode != "" {
		if _, err := network.ParseMode(i.Mode); err != nil {
			add("mode", "%v", err)
		}
	}
	if i.Channel < 0 {
		add("channel", "must be positive, got %d", i.Channel)
	}
	return errs
}
