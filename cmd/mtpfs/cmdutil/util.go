// Package cmdutil provides shared utilities for mtpfs commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/internal/cli/prompt"
	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/internal/telemetry"
	"github.com/marmos91/mtpfs/pkg/config"
	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/metrics"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// Version is reported to trace and profile backends. main sets it from
// its build flags.
var Version = "dev"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile    string
	Output        string
	Device        string
	CaseSensitive bool
	CaseSet       bool
	Stats         bool
	NoColor       bool
	Verbose       bool

	// Out receives command output. Nil means stdout.
	Out io.Writer
}

// LoadConfig loads the configuration named by --config, or the default
// file if any, and initializes the logger from it. A .env file in the
// working directory may supply MTPFS_ variables; the real environment wins.
func LoadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLogger initializes the structured logger from configuration.
// --verbose forces DEBUG.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if Flags.Verbose {
		loggerCfg.Level = "DEBUG"
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Printer returns a printer honoring --output and --no-color.
func Printer() (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	var out io.Writer = os.Stdout
	if Flags.Out != nil {
		out = Flags.Out
	}
	color := !Flags.NoColor && output.ColorSupported(out)
	return output.NewPrinter(out, format, color), nil
}

// Provider is an opened emulator behind an optional metrics decorator.
type Provider struct {
	*mtp.Provider

	Config   *config.Config
	Printer  *output.Printer
	emulator *emulator.Emulator
	registry *prometheus.Registry
	shutdown []func(context.Context) error
}

// OpenProvider loads configuration and builds the configured devices.
func OpenProvider(ctx context.Context) (*Provider, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	printer, err := Printer()
	if err != nil {
		return nil, err
	}

	p := &Provider{Config: cfg, Printer: printer}
	if err := p.startTelemetry(ctx); err != nil {
		_ = p.stopTelemetry()
		return nil, err
	}

	emu, err := config.BuildEmulator(ctx, cfg)
	if err != nil {
		_ = p.stopTelemetry()
		return nil, err
	}
	p.emulator = emu

	var driver mtp.Driver = emu
	if cfg.Metrics.Enabled || Flags.Stats {
		p.registry = prometheus.NewRegistry()
		driver = metrics.InstrumentDriver(driver, metrics.NewMetrics(p.registry))
	}
	if cfg.Telemetry.Enabled {
		driver = telemetry.TraceDriver(driver)
	}
	p.Provider = mtp.NewProvider(driver)
	return p, nil
}

// startTelemetry starts the tracer and profiler the configuration enables.
func (p *Provider) startTelemetry(ctx context.Context) error {
	t := p.Config.Telemetry
	stopTrace, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        t.Enabled,
		ServiceName:    "mtpfs",
		ServiceVersion: Version,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		SampleRate:     t.SampleRate,
	})
	if err != nil {
		return err
	}
	p.shutdown = append(p.shutdown, stopTrace)

	stopProfile, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        t.Profiling.Enabled,
		ServiceName:    "mtpfs",
		ServiceVersion: Version,
		Endpoint:       t.Profiling.Endpoint,
		ProfileTypes:   t.Profiling.ProfileTypes,
		Tags:           map[string]string{"device": Flags.Device},
	})
	if err != nil {
		return err
	}
	p.shutdown = append(p.shutdown, func(context.Context) error { return stopProfile() })
	return nil
}

// stopTelemetry flushes traces and stops profiling, newest first.
func (p *Provider) stopTelemetry() error {
	var errs []error
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, p.shutdown[i](context.Background()))
	}
	p.shutdown = nil
	return errors.Join(errs...)
}

// Close shuts the emulator down, printing driver statistics first when
// --stats is set.
func (p *Provider) Close() error {
	if Flags.Stats && p.registry != nil {
		if err := PrintStats(p.Printer, p.registry); err != nil {
			logger.Warn("Failed to print stats", logger.KeyError, err)
		}
	}
	return errors.Join(p.emulator.Close(), p.stopTelemetry())
}

// PrintStats prints driver call counters gathered from g.
func PrintStats(printer *output.Printer, g prometheus.Gatherer) error {
	stats, err := metrics.Snapshot(g)
	if err != nil {
		return err
	}
	if printer.Format() != output.FormatTable {
		return printer.Print(stats)
	}

	table := output.NewTableData("Operation", "Calls", "Errors").AlignRight(1, 2)
	for _, c := range stats.Calls {
		table.AddRow(c.Operation, fmt.Sprint(c.Total()), fmt.Sprint(c.Errors))
	}
	printer.Println()
	if err := output.PrintTable(printer.Writer(), table); err != nil {
		return err
	}
	printer.Printf("\n%d round trips, %s read, %s written\n",
		stats.RoundTrips(), output.HumanSize(stats.BytesRead), output.HumanSize(stats.BytesWritten))
	return nil
}

// Session is one opened device with its root object resolved.
type Session struct {
	*Provider

	Device  *mtp.Device
	Content *mtp.Content
	Root    *mtp.Object
}

// OpenSession opens the device selected by --device. Without the flag a
// single device is used directly and several are offered in a prompt.
func OpenSession(ctx context.Context) (*Session, error) {
	p, err := OpenProvider(ctx)
	if err != nil {
		return nil, err
	}

	s, err := p.open(ctx)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

func (p *Provider) open(ctx context.Context) (*Session, error) {
	info, err := p.SelectDevice(ctx)
	if err != nil {
		return nil, err
	}

	caseSensitive := Flags.CaseSensitive
	if !Flags.CaseSet {
		dc, _ := DeviceConfig(p.Config, info.ID)
		caseSensitive = dc.CaseSensitive
	}

	c := p.Config.Client
	dev, err := info.Open(ctx, mtp.ClientInfo{Name: c.Name, Major: c.Major, Minor: c.Minor, Revision: c.Revision}, caseSensitive)
	if err != nil {
		return nil, err
	}

	content := dev.Content()
	root, err := content.Root(ctx)
	if err != nil {
		_ = content.Close()
		_ = dev.Close()
		return nil, err
	}
	return &Session{Provider: p, Device: dev, Content: content, Root: root}, nil
}

// SelectDevice returns the device named by --device, or asks.
func (p *Provider) SelectDevice(ctx context.Context) (mtp.DeviceInfo, error) {
	if Flags.Device != "" {
		return p.Device(ctx, Flags.Device)
	}

	devices, err := p.Devices(ctx)
	if err != nil {
		return mtp.DeviceInfo{}, err
	}
	if len(devices) == 0 {
		return mtp.DeviceInfo{}, mtp.ErrNotFound
	}

	options := make([]prompt.SelectOption, len(devices))
	for i, d := range devices {
		options[i] = prompt.SelectOption{Label: d.FriendlyName, Value: d.ID, Description: d.ID}
	}
	id, err := prompt.Select("Select a device", options)
	if errors.Is(err, prompt.ErrNotInteractive) {
		return mtp.DeviceInfo{}, errors.New("several devices are attached; choose one with --device")
	}
	if err != nil {
		return mtp.DeviceInfo{}, err
	}
	for _, d := range devices {
		if d.ID == id {
			return d, nil
		}
	}
	return mtp.DeviceInfo{}, mtp.ErrNotFound
}

// DeviceConfig returns the configuration of the device with the given ID.
func DeviceConfig(cfg *config.Config, id string) (config.DeviceConfig, bool) {
	for _, d := range cfg.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return config.DeviceConfig{}, false
}

// Resolve returns the object at a device path. The empty path is the
// device root.
func (s *Session) Resolve(ctx context.Context, path string) (*mtp.Object, error) {
	if len(mtp.SplitPath(path)) == 0 {
		return s.Root, nil
	}
	return s.Root.ResolvePath(ctx, path)
}

// Close releases the content, the device and the emulator.
func (s *Session) Close() error {
	return errors.Join(s.Content.Close(), s.Device.Close(), s.Provider.Close())
}

// CommandContext derives the context of a command: the transfer timeout
// when one is configured and a log context naming the operation.
func CommandContext(cmd *cobra.Command, cfg *config.Config, path string) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx, logger.NewLogContext(Flags.Device).WithOperation(cmd.Name(), path))
	if cfg != nil && cfg.Transfer.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Transfer.Timeout)
	}
	return context.WithCancel(ctx)
}

// Run opens a session, runs fn and closes the session. Close errors are
// reported only when fn succeeded.
func Run(cmd *cobra.Command, path string, fn func(ctx context.Context, s *Session) error) (err error) {
	ctx, cancel := CommandContext(cmd, nil, path)
	defer cancel()

	s, err := OpenSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	if s.Config.Transfer.Timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, s.Config.Transfer.Timeout)
		defer stop()
	}
	return fn(ctx, s)
}

// HandleAbort checks if error is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		out := Flags.Out
		if out == nil {
			out = os.Stdout
		}
		_, _ = fmt.Fprintln(out, "\nAborted.")
		return nil
	}
	return err
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns the value if not empty, otherwise returns the fallback.
// Useful for table display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// Result prints msg as a success line in table format and data otherwise.
func (p *Provider) Result(data any, msg string) error {
	if p.Printer.Format() == output.FormatTable {
		p.Printer.Success(msg)
		return nil
	}
	return p.Printer.Print(data)
}
