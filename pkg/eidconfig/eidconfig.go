// Package eidconfig defines the engine's typed options surface:
// documented defaults, validation, and a YAML loader for the
// cmd/eidprobe demonstration CLI.
package eidconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anchorkit/anchorkit/pkg/resolver"
)

// Options is the engine's configurable surface, in the shape a YAML
// file or flag set can populate before it is converted to
// resolver.Options.
type Options struct {
	MaxPathDepth          int     `yaml:"maxPathDepth"`
	EnableSVGFingerprint  bool    `yaml:"enableSvgFingerprint"`
	ConfidenceThreshold   float64 `yaml:"confidenceThreshold"`
	FallbackToBody        bool    `yaml:"fallbackToBody"`
	StrictMode            bool    `yaml:"strictMode"`
	RequireUniqueness     bool    `yaml:"requireUniqueness"`
	EnableFallback        bool    `yaml:"enableFallback"`
	MaxCandidates         int     `yaml:"maxCandidates"`
	IncludeUtilityClasses bool    `yaml:"includeUtilityClasses"`
}

// Default returns the documented defaults: a 10-deep path/anchor
// walk, SVG fingerprinting and fallback-to-body on, zero confidence
// threshold (never rejects; this must never silently become 0.1), a
// 100-candidate Phase-1 cap, and utility-class filtering on.
func Default() Options {
	return Options{
		MaxPathDepth:          resolver.DefaultMaxPathDepth,
		EnableSVGFingerprint:  true,
		ConfidenceThreshold:   0.0,
		FallbackToBody:        true,
		StrictMode:            false,
		RequireUniqueness:     false,
		EnableFallback:        true,
		MaxCandidates:         resolver.DefaultMaxCandidates,
		IncludeUtilityClasses: false,
	}
}

// Validate rejects an out-of-range confidence threshold or a
// non-positive depth/candidate cap. Every other field is a bool and
// needs no validation.
func (o Options) Validate() error {
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return fmt.Errorf("eidconfig: confidenceThreshold must be in [0,1], got %v", o.ConfidenceThreshold)
	}
	if o.MaxPathDepth <= 0 {
		return fmt.Errorf("eidconfig: maxPathDepth must be positive, got %d", o.MaxPathDepth)
	}
	if o.MaxCandidates <= 0 {
		return fmt.Errorf("eidconfig: maxCandidates must be positive, got %d", o.MaxCandidates)
	}
	return nil
}

// ToResolverOptions converts the loaded/validated Options into the
// resolver.Options shape GenerateEID and Resolve actually accept.
// The table's "disable"-named flags are the resolver's native zero
// value, so this negates the positive-named fields this package
// exposes to callers.
func (o Options) ToResolverOptions() resolver.Options {
	return resolver.Options{
		MaxPathDepth:          o.MaxPathDepth,
		DisableSVGFingerprint: !o.EnableSVGFingerprint,
		ConfidenceThreshold:   o.ConfidenceThreshold,
		DisableFallbackToBody: !o.FallbackToBody,
		StrictMode:            o.StrictMode,
		RequireUniqueness:     o.RequireUniqueness,
		DisableFallback:       !o.EnableFallback,
		MaxCandidates:         o.MaxCandidates,
		IncludeUtilityClasses: o.IncludeUtilityClasses,
	}
}

// Load reads YAML options from path, starting from Default() so an
// omitted field keeps its documented default rather than zeroing out.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("eidconfig: reading %s: %w", path, err)
	}
	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("eidconfig: parsing %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
