package config

import (
	"fmt"
	"strings"

	"github.com/xplshn/gclex/pkg/cli"
)

type Feature int

const (
	FeatColor Feature = iota
	FeatLocations
	FeatSpans
	FeatDedupe
	FeatFingerprint
	FeatCount
)

type Warning int

const (
	WarnNul Warning = iota
	WarnOverflow
	WarnMultiChar
	WarnExtra
	WarnCount
)

const DefaultScratchSize = 4096

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features    map[Feature]Info
	Warnings    map[Warning]Info
	FeatureMap  map[string]Feature
	WarningMap  map[string]Warning
	ScratchSize int
	Jobs        int
	Format      string
	MaxErrors   int
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		ScratchSize: DefaultScratchSize,
		Jobs:        4,
		Format:      "text",
	}

	features := map[Feature]Info{
		FeatColor:       {"color", true, "Colorize diagnostics when stderr is a terminal."},
		FeatLocations:   {"locations", false, "Print the line:column of every token."},
		FeatSpans:       {"spans", false, "Print the byte span of every token."},
		FeatDedupe:      {"dedupe", true, "Skip inputs whose content is identical to an earlier input."},
		FeatFingerprint: {"fingerprint", false, "Print a hash of each file's token stream."},
	}

	warnings := map[Warning]Info{
		WarnNul:       {"nul", true, "Warn when a NUL byte ends the token stream before the end of the file."},
		WarnOverflow:  {"overflow", true, "Warn when an integer literal does not fit in 64 bits."},
		WarnMultiChar: {"multichar", false, "Warn on character literals that do not decode to exactly one byte."},
		WarnExtra:     {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// Validate checks the tool settings that the flag parser cannot.
func (c *Config) Validate() error {
	if c.ScratchSize < 1 {
		return fmt.Errorf("scratch size must be positive, got %d", c.ScratchSize)
	}
	if c.Jobs < 1 {
		c.Jobs = 1
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported format '%s'. Supported: 'text', 'json'", c.Format)
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max errors cannot be negative, got %d", c.MaxErrors)
	}
	return nil
}

// ApplyFlag applies a single -W/-F style flag such as "-Wno-nul" or
// "-Ffingerprint". It reports false for names it does not know.
func (c *Config) ApplyFlag(flag string) bool {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
	default:
		return false
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return true
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
			return true
		}
		return false
	}
	if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
		return true
	}
	return false
}

// SetupFlagGroups registers -W<warning>/-Wno-<warning> and
// -F<feature>/-Fno-<feature> on fs. The returned entries are indexed by
// Warning and Feature and must be read back with ApplyFlagGroups after
// parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
		*warningFlags[i].Enabled = info.Enabled
	}

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
		*featureFlags[i].Enabled = info.Enabled
	}

	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning flag", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable specific features", "feature flag", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies parsed group flags back into the config. A
// -Wno-/-Fno- flag wins over its positive form.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil {
			c.SetWarning(Warning(i), *entry.Enabled)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil {
			c.SetFeature(Feature(i), *entry.Enabled)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
