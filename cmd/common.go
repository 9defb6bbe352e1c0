package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/message"

	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/config"
	"grimm.is/linkctl/internal/i18n"
	"grimm.is/linkctl/internal/logging"
	"grimm.is/linkctl/internal/metrics"
	"grimm.is/linkctl/internal/network"
	"grimm.is/linkctl/internal/oui"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// Common holds the flags every subcommand accepts. Values left unset on the
// command line fall back to the settings block of the config file.
type Common struct {
	Config      string
	Timeout     time.Duration
	LogLevel    string
	LogJSON     bool
	MetricsFile string
	Netns       string
	Syslog      string
	Parser      string
	Strict      bool
	OUIDatabase string
}

// Register defines the common flags on fs.
func (c *Common) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.Config, "config", brand.ConfigPath(), "Configuration file")
	fs.StringVar(&c.Config, "c", brand.ConfigPath(), "Alias for -config")
	fs.DurationVar(&c.Timeout, "timeout", config.DefaultCommandTimeout, "Timeout for each ip/iw invocation")
	fs.StringVar(&c.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&c.LogJSON, "log-json", false, "Log as JSON")
	fs.StringVar(&c.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	fs.StringVar(&c.Netns, "netns", "", "Operate inside this named network namespace")
	fs.StringVar(&c.Syslog, "syslog", "", "Also send logs to a remote syslog server (host[:port], tcp://host:port)")
	fs.StringVar(&c.Parser, "parser", "text", "ip output parser (text, json)")
	fs.BoolVar(&c.Strict, "strict", false, "Return verification failures as errors instead of warnings")
	fs.StringVar(&c.OUIDatabase, "oui-db", brand.OUIPath(), "Vendor database written by 'oui fetch'")
}

// merge fills flags that were not given explicitly from the config settings.
func (c *Common) merge(fs *flag.FlagSet, s config.Settings) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["timeout"] && s.CommandTimeout != "" {
		c.Timeout = s.Timeout()
	}
	if !set["log-level"] && s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	if !set["log-json"] && s.LogJSON {
		c.LogJSON = true
	}
	if !set["metrics-file"] && s.MetricsFile != "" {
		c.MetricsFile = s.MetricsFile
	}
	if !set["netns"] && s.Netns != "" {
		c.Netns = s.Netns
	}
	if !set["syslog"] && s.Syslog != "" {
		c.Syslog = s.Syslog
	}
	if !set["parser"] && s.Parser != "" {
		c.Parser = s.Parser
	}
	if !set["strict"] && s.Strict {
		c.Strict = true
	}
	if !set["oui-db"] && s.OUIDatabase != "" {
		c.OUIDatabase = s.OUIDatabase
	}
}

// session carries what one CLI invocation needs to bind interfaces.
type session struct {
	ctx     context.Context
	stop    context.CancelFunc
	log     *logging.Logger
	metrics *metrics.Registry
	exec    network.CommandExecutor
	cfg     *config.Config
	common  Common
	out     io.Writer
	p       *message.Printer
	closers []io.Closer

	// extra is appended to every Bind call.
	extra []network.Option
}

// open loads the config file, merges its settings and sets up logging,
// metrics and the command executor. A missing file is only an error when
// requireConfig is set.
func (c *Common) open(fs *flag.FlagSet, requireConfig bool) (*session, error) {
	cfg, err := loadConfig(c.Config, requireConfig)
	if err != nil {
		return nil, err
	}
	c.merge(fs, cfg.EffectiveSettings())
	return newSession(*c, cfg)
}

func loadConfig(path string, required bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return &config.Config{}, nil
		}
		return nil, err
	}
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, errs)
	}
	return cfg, nil
}

func newSession(c Common, cfg *config.Config) (*session, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if _, err := network.ParserByName(c.Parser); err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		common: c,
		out:    os.Stdout,
		p:      Printer,
		exec:   &network.RealCommandExecutor{Timeout: c.Timeout},
	}

	var logOut io.Writer = os.Stderr
	if c.Syslog != "" {
		sc, err := logging.ParseSyslogTarget(c.Syslog)
		if err != nil {
			return nil, err
		}
		w, err := logging.NewSyslogWriter(sc)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to syslog: %w", err)
		}
		s.closers = append(s.closers, w)
		logOut = logging.MultiWriter(os.Stderr, w)
	}
	s.log = logging.New(logging.Config{Level: level, Output: logOut, JSON: c.LogJSON})
	logging.SetDefault(s.log)

	reg := prometheus.NewRegistry()
	s.metrics = metrics.NewRegistry(reg, reg)

	s.ctx, s.stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return s, nil
}

// close writes the metrics textfile and releases the syslog connection.
func (s *session) close() error {
	if s.stop != nil {
		s.stop()
	}
	var errs []error
	if s.common.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(s.common.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// bind binds name with the session's executor, logger, metrics and settings.
func (s *session) bind(name string, opts ...network.Option) (*network.Interface, error) {
	parser, err := network.ParserByName(s.common.Parser)
	if err != nil {
		return nil, err
	}
	all := []network.Option{
		network.WithExecutor(s.exec),
		network.WithLogger(s.log.WithComponent("network")),
		network.WithMetrics(s.metrics),
		network.WithStrictErrors(s.common.Strict),
		network.WithParser(parser),
		network.WithNamespace(s.common.Netns),
	}
	if block, ok := s.cfg.Interface(name); ok && block.Kind != "" {
		if k, err := network.ParseKind(block.Kind); err == nil {
			all = append(all, network.WithKind(k))
		}
	}
	all = append(all, opts...)
	all = append(all, s.extra...)
	return network.Bind(s.ctx, name, all...)
}

// vendors loads the OUI database if one has been fetched.
func (s *session) vendors() *oui.DB {
	if s.common.OUIDatabase == "" {
		return nil
	}
	db, err := oui.LoadFile(s.common.OUIDatabase)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("failed to load vendor database", "path", s.common.OUIDatabase, "error", err)
		}
		return nil
	}
	return db
}

// run wraps a subcommand body with session setup and teardown.
func run(fs *flag.FlagSet, c *Common, requireConfig bool, body func(*session) error) (err error) {
	s, err := c.open(fs, requireConfig)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close())
	}()
	return body(s)
}
