package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-overlay/internal/logging"
	"github.com/a3tai/pdf-overlay/internal/overlay"
	"github.com/a3tai/pdf-overlay/internal/pdf"
)

const (
	// Mode constants
	ModeWatch = "watch"
	ModeOnce  = "once"
	ModeStdio = "stdio"

	// Default values
	DefaultPositions   = "./positions"
	DefaultValues      = "./values"
	DefaultEnvFile     = "./.env"
	DefaultColor       = "f21a1a"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// EnvPrefix is prepended to every key when read from the environment
	EnvPrefix = "PDF_OVERLAY"
)

var (
	// ErrMissingSetting is returned when a required key has no value
	ErrMissingSetting = errors.New("missing required setting")
	// ErrHelp is returned by Load when -h or --help was requested
	ErrHelp = pflag.ErrHelp
)

// Settings is the immutable configuration of a run. It is built once by
// Load and passed by value; use With to derive a modified copy.
type Settings struct {
	Input     string
	Output    string
	Positions string
	Values    string

	Font  string
	Color string

	Mode        string
	LogLevel    string
	MaxFileSize int64

	// Directory bounds the paths MCP clients may pass as overrides
	Directory string
	EnvFile   string
	Version   string
}

// Overrides replaces selected paths of a Settings value
type Overrides struct {
	Input     string
	Output    string
	Positions string
	Values    string
}

// DefaultSettings returns settings with defaults for every optional key
func DefaultSettings() Settings {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return Settings{
		Positions:   DefaultPositions,
		Values:      DefaultValues,
		Font:        overlay.DefaultFont,
		Color:       DefaultColor,
		Mode:        ModeWatch,
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
		Directory:   currentDir,
		EnvFile:     DefaultEnvFile,
		Version:     "1.0.0",
	}
}

// Load builds Settings from, in increasing precedence: defaults, the dotenv
// file, PDF_OVERLAY_* environment variables and command line flags.
// args excludes the program name.
func Load(args []string) (Settings, error) {
	cfg := DefaultSettings()

	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet("pdf-overlay", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	defineCommandLineFlags(flags, cfg)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Settings{}, ErrHelp
		}
		return Settings{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := v.BindPFlags(flags); err != nil {
		return Settings{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := readEnvFile(v, flags.Changed("env")); err != nil {
		return Settings{}, err
	}

	cfg = populateFromViper(v)
	cfg.Directory = absPath(cfg.Directory)

	if err := cfg.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg Settings) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("positions", cfg.Positions)
	v.SetDefault("values", cfg.Values)
	v.SetDefault("font", cfg.Font)
	v.SetDefault("color", cfg.Color)
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("env", cfg.EnvFile)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg Settings) {
	flags.String("env", cfg.EnvFile, "Settings file in dotenv format")
	flags.String("input", "", "Template PDF to overlay")
	flags.String("output", "", "Destination of the overlaid PDF")
	flags.String("positions", cfg.Positions, "Position map file")
	flags.String("values", cfg.Values, "Value map file")
	flags.String("font", cfg.Font, "Core font for text fields (Helvetica, Times, Courier)")
	flags.String("color", cfg.Color, "Overlay color as six hex digits")
	flags.String("mode", cfg.Mode, "Run mode: 'watch', 'once' or 'stdio' (MCP server)")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum template PDF size in bytes")
	flags.String("dir", cfg.Directory, "Directory MCP clients are restricted to")
}

// Usage returns the help text for program
func Usage(program string) string {
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	defineCommandLineFlags(flags, DefaultSettings())

	text := fmt.Sprintf("Usage of %s:\n", program)
	text += "\nPDF Overlay - paints position-mapped values onto a template PDF\n\n"
	text += "Options:\n"
	text += flags.FlagUsages()
	text += "\nExamples:\n"
	text += fmt.Sprintf("  %s --input=form.pdf --output=filled.pdf      # run, then rerun on changes\n", program)
	text += fmt.Sprintf("  %s --mode=once --env=./job.env               # single run from a settings file\n", program)
	text += fmt.Sprintf("  %s --mode=stdio --dir=/srv/forms             # MCP server\n", program)
	text += "\nEnvironment Variables:\n"
	for _, key := range []string{"input", "output", "positions", "values", "font", "color", "mode", "loglevel"} {
		text += fmt.Sprintf("  %s_%s\n", EnvPrefix, strings.ToUpper(key))
	}
	return text
}

// readEnvFile merges the dotenv settings file. A missing default file is
// not an error; a missing file named explicitly with --env is.
func readEnvFile(v *viper.Viper, explicit bool) error {
	path := v.GetString("env")
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("cannot access settings file %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	return nil
}

// populateFromViper fills a Settings value from viper
func populateFromViper(v *viper.Viper) Settings {
	return Settings{
		Input:       v.GetString("input"),
		Output:      v.GetString("output"),
		Positions:   v.GetString("positions"),
		Values:      v.GetString("values"),
		Font:        v.GetString("font"),
		Color:       v.GetString("color"),
		Mode:        v.GetString("mode"),
		LogLevel:    v.GetString("loglevel"),
		MaxFileSize: v.GetInt64("maxfilesize"),
		Directory:   v.GetString("dir"),
		EnvFile:     v.GetString("env"),
		Version:     "1.0.0",
	}
}

// Validate checks if the configuration is valid. Input and output are only
// required outside stdio mode, where MCP clients may supply them per call.
func (s Settings) Validate() error {
	if s.Mode != ModeWatch && s.Mode != ModeOnce && s.Mode != ModeStdio {
		return errors.New("mode must be one of 'watch', 'once' or 'stdio'")
	}

	if s.Mode != ModeStdio {
		if err := s.RequirePaths(); err != nil {
			return err
		}
	}

	if s.Positions == "" || s.Values == "" {
		return fmt.Errorf("%w: positions and values paths cannot be empty", ErrMissingSetting)
	}

	if _, err := s.Style(); err != nil {
		return err
	}

	if s.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return err
	}

	return nil
}

// RequirePaths checks the keys that have no defaults
func (s Settings) RequirePaths() error {
	if s.Input == "" {
		return fmt.Errorf("%w: input", ErrMissingSetting)
	}
	if s.Output == "" {
		return fmt.Errorf("%w: output", ErrMissingSetting)
	}
	return nil
}

// Style returns the font and color of the run
func (s Settings) Style() (overlay.Style, error) {
	font, err := pdf.CoreFont(s.Font)
	if err != nil {
		return overlay.Style{}, err
	}
	color, err := overlay.ParseColor(s.Color)
	if err != nil {
		return overlay.Style{}, err
	}
	return overlay.Style{Font: font, Color: color}, nil
}

// With returns a copy of s with the non-empty overrides applied
func (s Settings) With(o Overrides) Settings {
	if o.Input != "" {
		s.Input = o.Input
	}
	if o.Output != "" {
		s.Output = o.Output
	}
	if o.Positions != "" {
		s.Positions = o.Positions
	}
	if o.Values != "" {
		s.Values = o.Values
	}
	return s
}

// WatchedFiles returns the configuration files whose changes trigger a rerun
func (s Settings) WatchedFiles() []string {
	return []string{s.Positions, s.Values}
}

// IsDebug returns true if debug logging is enabled
func (s Settings) IsDebug() bool {
	return s.LogLevel == "debug"
}

// IsStdioMode returns true if the program serves MCP over stdio
func (s Settings) IsStdioMode() bool {
	return s.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (s Settings) String() string {
	return fmt.Sprintf("Settings{Mode: %s, Input: %s, Output: %s, Positions: %s, Values: %s, Font: %s, Color: %s, LogLevel: %s}",
		s.Mode, s.Input, s.Output, s.Positions, s.Values, s.Font, s.Color, s.LogLevel)
}

func absPath(path string) string {
	if path == "" {
		return path
	}
	if expanded, err := filepath.Abs(path); err == nil {
		return expanded
	}
	return path
}
