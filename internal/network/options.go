package network

import (
	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/metrics"
)

// Option configures Bind.
type Option func(*bindOptions)

type bindOptions struct {
	manager     ManagerBackend
	strict      bool
	logger      *logging.Logger
	exec        CommandExecutor
	kind        Kind
	parser      OutputParser
	resolver    LinkResolver
	resolverSet bool
	hw          HardwareInfo
	hwSet       bool
	netns       string
	metrics     *metrics.Registry
}

// WithManager binds a manager backend for Start/StopManagement.
func WithManager(m ManagerBackend) Option {
	return func(o *bindOptions) { o.manager = m }
}

// WithStrictErrors selects the strict (true) or permissive (false) policy.
func WithStrictErrors(strict bool) Option {
	return func(o *bindOptions) { o.strict = strict }
}

// WithLogger sets the logger used for command tracing, policy reports and audit events.
func WithLogger(l *logging.Logger) Option {
	return func(o *bindOptions) { o.logger = l }
}

// WithExecutor replaces the command executor.
func WithExecutor(e CommandExecutor) Option {
	return func(o *bindOptions) { o.exec = e }
}

// WithKind skips kind detection.
func WithKind(k Kind) Option {
	return func(o *bindOptions) { o.kind = k }
}

// WithParser selects the output parsing strategy.
func WithParser(p OutputParser) Option {
	return func(o *bindOptions) { o.parser = p }
}

// WithResolver replaces the netlink index resolver. nil disables external
// rename following.
func WithResolver(r LinkResolver) Option {
	return func(o *bindOptions) {
		o.resolver = r
		o.resolverSet = true
	}
}

// WithHardwareInfo replaces the ethtool-backed hardware info. nil disables it.
func WithHardwareInfo(hw HardwareInfo) Option {
	return func(o *bindOptions) {
		o.hw = hw
		o.hwSet = true
	}
}

// WithNamespace runs every command inside the named network namespace.
func WithNamespace(ns string) Option {
	return func(o *bindOptions) { o.netns = ns }
}

// WithMetrics records command and mutation metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *bindOptions) { o.metrics = r }
}
