// Package config resolves the harness configuration from command-line flags,
// DAGBENCH_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "DAGBENCH"

// Config holds all configuration for a run.
type Config struct {
	Store  StoreConfig
	Log    LogConfig
	Run    RunConfig
	Output OutputConfig
}

type StoreConfig struct {
	BaseURL string
	Timeout time.Duration
	// HealthAttempts is how many times the setup health probe is tried.
	HealthAttempts int
	HealthDelay    time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type RunConfig struct {
	Concurrency int
	Count       int
	// Duration selects a duration-bounded run when positive.
	Duration time.Duration

	EventType    string
	PayloadBytes int
	ParentsMode  string
	ParentsK     int

	ReadOp     string
	WarmDepth  int
	ReadOps    []string
	WriteRatio float64

	BuildN           int
	BuildConcurrency int

	Subs        int
	EmitRate    float64
	SettleDelay time.Duration
}

type OutputConfig struct {
	Format string // text or table
}

// Defaults.
const (
	DefaultBaseURL          = "http://127.0.0.1:7777"
	DefaultTimeout          = 10 * time.Second
	DefaultHealthAttempts   = 1
	DefaultHealthDelay      = 500 * time.Millisecond
	DefaultConcurrency      = 200
	DefaultCount            = 20000
	DefaultEventType        = "bench"
	DefaultPayloadBytes     = 128
	DefaultParentsMode      = "chain"
	DefaultParentsK         = 1
	DefaultReadOp           = "event"
	DefaultWarmDepth        = 2
	DefaultWriteRatio       = 0.2
	DefaultBuildN           = 5000
	DefaultBuildConcurrency = 200
	DefaultSubs             = 200
	DefaultEmitRate         = 200
	DefaultSettleDelay      = 500 * time.Millisecond
)

// DefaultReadOps is the read mix of the mixed scenario.
var DefaultReadOps = []string{"event", "children", "heads"}

// flagKeys maps config keys to the flag names they are bound to.
var flagKeys = map[string]string{
	"store.base_url":        "base-url",
	"store.timeout":         "timeout",
	"store.health_attempts": "health-attempts",
	"store.health_delay":    "health-delay",
	"log.level":             "log-level",
	"log.format":            "log-format",
	"run.concurrency":       "concurrency",
	"run.count":             "count",
	"run.duration":          "duration",
	"run.type":              "type",
	"run.payload_bytes":     "payload-bytes",
	"run.parents_mode":      "parents-mode",
	"run.parents_k":         "parents-k",
	"run.read_op":           "read-op",
	"run.warm_depth":        "warm-depth",
	"run.read_ops":          "read-ops",
	"run.write_ratio":       "write-ratio",
	"run.build_n":           "build-n",
	"run.build_concurrency": "build-concurrency",
	"run.subs":              "subs",
	"run.emit_rate":         "emit-rate",
	"run.settle_delay":      "settle-delay",
	"output.format":         "format",
}

// Load builds the configuration. Precedence, highest first: flags set on the
// command line, environment, config file, defaults.
//
// flags may be nil. configFile may be empty, in which case dagbench.{yaml,toml,json}
// is looked up in the working directory and $HOME/.dagbench, and its absence is fine.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variables, e.g. DAGBENCH_STORE_BASE_URL.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("dagbench")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dagbench/")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			BaseURL:        v.GetString("store.base_url"),
			Timeout:        v.GetDuration("store.timeout"),
			HealthAttempts: v.GetInt("store.health_attempts"),
			HealthDelay:    v.GetDuration("store.health_delay"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Run: RunConfig{
			Concurrency:      v.GetInt("run.concurrency"),
			Count:            v.GetInt("run.count"),
			Duration:         v.GetDuration("run.duration"),
			EventType:        v.GetString("run.type"),
			PayloadBytes:     v.GetInt("run.payload_bytes"),
			ParentsMode:      v.GetString("run.parents_mode"),
			ParentsK:         v.GetInt("run.parents_k"),
			ReadOp:           v.GetString("run.read_op"),
			WarmDepth:        v.GetInt("run.warm_depth"),
			ReadOps:          splitList(v.GetStringSlice("run.read_ops")),
			WriteRatio:       v.GetFloat64("run.write_ratio"),
			BuildN:           v.GetInt("run.build_n"),
			BuildConcurrency: v.GetInt("run.build_concurrency"),
			Subs:             v.GetInt("run.subs"),
			EmitRate:         v.GetFloat64("run.emit_rate"),
			SettleDelay:      v.GetDuration("run.settle_delay"),
		},
		Output: OutputConfig{
			Format: v.GetString("output.format"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.base_url", DefaultBaseURL)
	v.SetDefault("store.timeout", DefaultTimeout)
	v.SetDefault("store.health_attempts", DefaultHealthAttempts)
	v.SetDefault("store.health_delay", DefaultHealthDelay)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("run.concurrency", DefaultConcurrency)
	v.SetDefault("run.count", DefaultCount)
	v.SetDefault("run.duration", time.Duration(0))
	v.SetDefault("run.type", DefaultEventType)
	v.SetDefault("run.payload_bytes", DefaultPayloadBytes)
	v.SetDefault("run.parents_mode", DefaultParentsMode)
	v.SetDefault("run.parents_k", DefaultParentsK)
	v.SetDefault("run.read_op", DefaultReadOp)
	v.SetDefault("run.warm_depth", DefaultWarmDepth)
	v.SetDefault("run.read_ops", DefaultReadOps)
	v.SetDefault("run.write_ratio", DefaultWriteRatio)
	v.SetDefault("run.build_n", DefaultBuildN)
	v.SetDefault("run.build_concurrency", DefaultBuildConcurrency)
	v.SetDefault("run.subs", DefaultSubs)
	v.SetDefault("run.emit_rate", DefaultEmitRate)
	v.SetDefault("run.settle_delay", DefaultSettleDelay)

	v.SetDefault("output.format", "text")
}

// splitList flattens comma separated entries, which is how lists arrive from the environment.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
