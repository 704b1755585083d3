package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/leapfmt/internal/config"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// flagKeys maps command-line flags to config keys. Flags not listed here,
// like --config, never reach the config.
var flagKeys = map[string]string{
	"dialect":       "dialect",
	"line-width":    "line_width",
	"indent":        "indent.width",
	"tabs":          "indent.tabs",
	"keyword-case":  "case.keywords",
	"function-case": "case.functions",
	"blank-lines":   "blank_lines",
	"verbose":       "verbose",
	"output":        "output",
}

// Load loads configuration from defaults, the config file, environment
// variables and flags, in increasing order of precedence. With an empty
// cfgFile the nearest leapfmt.yaml at or above the working directory is
// used. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults, err := intconfig.DefaultsMap()
	if err != nil {
		return nil, err
	}
	defaults["verbose"] = false
	defaults["output"] = DefaultOutput
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = intconfig.FindConfigFile(cwd)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: LEAPFMT_CASE__KEYWORDS -> case.keywords
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were set explicitly
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Decode and validate
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("invalid configuration in %s: %w", cfgFile, err)
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context, or the defaults
// when none was loaded.
func GetConfig(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	return &Config{FormatConfig: *intconfig.Defaults(), Output: DefaultOutput}
}
