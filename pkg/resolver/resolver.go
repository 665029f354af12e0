// Package resolver is the engine's public orchestration layer: it
// wires anchor discovery, path construction, confidence scoring, CSS
// synthesis, semantic matching, constraints, and fallback recovery
// into the generate/resolve/buildSelector surface the rest of a host
// application calls.
package resolver

import (
	"fmt"
	"sort"
	"time"

	"github.com/anchorkit/anchorkit/pkg/anchor"
	"github.com/anchorkit/anchorkit/pkg/confidence"
	"github.com/anchorkit/anchorkit/pkg/constraints"
	"github.com/anchorkit/anchorkit/pkg/cssgen"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	"github.com/anchorkit/anchorkit/pkg/eidcache"
	"github.com/anchorkit/anchorkit/pkg/eidlog"
	drifterrors "github.com/anchorkit/anchorkit/pkg/errors"
	"github.com/anchorkit/anchorkit/pkg/extract"
	"github.com/anchorkit/anchorkit/pkg/fallback"
	"github.com/anchorkit/anchorkit/pkg/match"
	"github.com/anchorkit/anchorkit/pkg/pathbuild"
)

// Generator identifies this implementation in an EID's metadata.
const Generator = "anchorkit/0.1"

const (
	// DefaultMaxPathDepth bounds both the anchor walk and path chain.
	DefaultMaxPathDepth = 10
	// DefaultMaxCandidates caps Phase 1's CSS-narrowed candidate set.
	DefaultMaxCandidates = 100
)

// Options configures generation and resolution. The zero value matches
// every documented default, including the three "disable"-named flags,
// whose zero value (false) leaves the feature they name enabled.
type Options struct {
	// MaxPathDepth bounds the anchor walk and path chain. Zero means
	// DefaultMaxPathDepth.
	MaxPathDepth int

	// DisableSVGFingerprint turns off semantics.svg population,
	// enabled by default.
	DisableSVGFingerprint bool

	// ConfidenceThreshold rejects a generated EID (GenerateEID returns
	// nil) when its confidence falls below this value. Zero (the
	// default) never rejects.
	ConfidenceThreshold float64

	// DisableFallbackToBody stops the anchor walk from degrading to a
	// body/html fallback; generation instead fails outright when no
	// tiered anchor is found.
	DisableFallbackToBody bool

	// Cache is the engine cache handle. Nil uses the process-wide
	// default.
	Cache *eidcache.Cache

	// StrictMode rejects resolution of an already-degraded EID.
	StrictMode bool

	// RequireUniqueness turns an "ambiguous" resolve result into
	// "error".
	RequireUniqueness bool

	// DisableFallback turns off anchor-only recovery on zero
	// Phase-2 survivors.
	DisableFallback bool

	// MaxCandidates caps Phase 1's candidate set. Zero means
	// DefaultMaxCandidates.
	MaxCandidates int

	// IncludeUtilityClasses disables utility-class filtering during
	// extraction (debug only).
	IncludeUtilityClasses bool

	// Logger observes degraded generations and fallback resolutions.
	// Nil uses a no-op logger, so the engine stays silent unless a
	// host wires one in.
	Logger eidlog.Logger
}

func (o Options) logger() eidlog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return eidlog.Noop()
}

func (o Options) maxPathDepth() int {
	if o.MaxPathDepth > 0 {
		return o.MaxPathDepth
	}
	return DefaultMaxPathDepth
}

func (o Options) maxCandidates() int {
	if o.MaxCandidates > 0 {
		return o.MaxCandidates
	}
	return DefaultMaxCandidates
}

func (o Options) cache() *eidcache.Cache {
	if o.Cache != nil {
		return o.Cache
	}
	return eidcache.Default()
}

func (o Options) extractOptions(baseURL string) extract.Options {
	return extract.Options{
		BaseURL:               baseURL,
		EnableSVGFingerprint:  !o.DisableSVGFingerprint,
		IncludeUtilityClasses: o.IncludeUtilityClasses,
	}
}

func (o Options) fallbackOnMissing() eid.OnMissing {
	if o.DisableFallback {
		return eid.OnMissingNone
	}
	return eid.OnMissingAnchorOnly
}

// GenerateEID produces an EID identifying target, or nil if target is
// detached, has no owning document, or its confidence falls below
// opts.ConfidenceThreshold.
func GenerateEID(target *domtree.Element, opts Options) *eid.EID {
	if target == nil {
		return nil
	}
	doc := target.OwnerDocument()
	if doc == nil || !target.IsConnected() {
		return nil
	}

	cache := opts.cache()
	if cached, ok := cache.GetEID(target); ok {
		return &cached
	}

	baseURL := doc.BaseURL()
	extractOpts := opts.extractOptions(baseURL)

	anchorEl, anchorNode := anchor.FindElement(target, anchor.Options{
		MaxDepth: opts.maxPathDepth(),
		Extract:  extractOpts,
	})
	if anchorNode.Degraded && opts.DisableFallbackToBody {
		return nil
	}

	targetSem := extract.Extract(target, extractOpts)
	targetNode := eid.TargetNode{NodeRef: eid.NodeRef{
		Tag:       target.TagName(),
		Semantics: targetSem,
		Score:     targetSem.SemanticScore(),
		NthChild:  target.NthChild(),
	}}

	pathResult := pathbuild.Build(target, anchorEl, anchorNode, targetNode, doc, pathbuild.Options{
		MaxDepth: opts.maxPathDepth(),
		Extract:  extractOpts,
	})

	conf := confidence.Score(confidence.Inputs{
		AnchorScore:         anchorNode.Score,
		PathDegraded:        pathResult.Degraded,
		TargetSemanticScore: targetSem.SemanticScore(),
		AnchorDegraded:      anchorNode.Degraded,
	})
	if opts.ConfidenceThreshold > 0 && conf < opts.ConfidenceThreshold {
		return nil
	}

	degraded := anchorNode.Degraded || pathResult.Degraded
	reason := pathResult.DegradationReason
	if reason == "" && anchorNode.Degraded {
		reason = drifterrors.ReasonWeakAnchor
	}
	if degraded {
		opts.logger().Warn("resolver: generated a degraded EID", "tag", target.TagName(), "reason", reason)
	}

	result := eid.EID{
		Version: eid.Version,
		Anchor:  anchorNode,
		Path:    pathResult.Path,
		Target:  targetNode,
		Fallback: eid.Fallback{
			OnMultiple: eid.OnMultipleBestScore,
			OnMissing:  opts.fallbackOnMissing(),
			MaxDepth:   opts.maxPathDepth(),
		},
		Meta: eid.Meta{
			Confidence:        conf,
			GeneratedAt:       time.Now(),
			Generator:         Generator,
			Degraded:          degraded,
			DegradationReason: reason,
		},
	}

	cache.PutEID(target, result)
	return &result
}

// GenerateEIDBatch runs GenerateEID over every element in targets,
// sharing one cache across the batch.
func GenerateEIDBatch(targets []*domtree.Element, opts Options) []*eid.EID {
	opts.Cache = opts.cache()
	out := make([]*eid.EID, len(targets))
	for i, t := range targets {
		out[i] = GenerateEID(t, opts)
	}
	return out
}

// BuildSelector renders e's baseline selector without touching a
// document; see cssgen.Build.
func BuildSelector(e eid.EID) string {
	return cssgen.Build(e)
}

// BuildSelectorUnique renders e's selector and, given a live root,
// escalates it toward uniqueness; see cssgen.BuildUnique.
func BuildSelectorUnique(e eid.EID, opts cssgen.BuildOptions) (cssgen.Result, error) {
	return cssgen.BuildUnique(e, opts)
}

// Status is one of resolve's four terminal outcomes.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusAmbiguous        Status = "ambiguous"
	StatusDegradedFallback Status = "degraded-fallback"
	StatusError            Status = "error"
)

// ResolveResult is resolve's return value.
type ResolveResult struct {
	Status     Status
	Elements   []*domtree.Element
	Confidence float64
	Warnings   []string
}

func errResult(format string, args ...any) ResolveResult {
	return ResolveResult{Status: StatusError, Warnings: []string{fmt.Sprintf(format, args...)}}
}

type scoredCandidate struct {
	el       *domtree.Element
	score    float64
	docOrder int
}

// Resolve replays e against root — a possibly-mutated document or
// subtree — through the five-phase pipeline: CSS narrowing, semantic
// filtering, a uniqueness short-circuit, constraints, and finally
// ambiguity/fallback handling.
func Resolve(e eid.EID, root domtree.Root, opts Options) ResolveResult {
	rootEl, doc, err := domtree.Resolve(root)
	if err != nil {
		return errResult("resolver: %v", err)
	}
	baseURL := ""
	if doc != nil {
		baseURL = doc.BaseURL()
	}
	if opts.StrictMode && e.Meta.Degraded {
		return errResult("resolver: strict mode rejects a degraded EID (%s)", e.Meta.DegradationReason)
	}

	// Phase 1: CSS narrowing.
	selector := cssgen.Build(e)
	candidates, err := domtree.QuerySelectorAll(rootEl, selector)
	if err != nil {
		return errResult("resolver: selector %q: %v", selector, err)
	}
	if max := opts.maxCandidates(); len(candidates) > max {
		candidates = candidates[:max]
	}

	// Phase 2: semantic filtering.
	extractOpts := opts.extractOptions(baseURL)
	survivors := make([]scoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		sem := extract.Extract(c, extractOpts)
		score := match.Score(sem, e.Target.Semantics, baseURL)
		if match.Passes(score) {
			survivors = append(survivors, scoredCandidate{el: c, score: score, docOrder: i})
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].score > survivors[j].score })

	// Phase 3: uniqueness short-circuit.
	if len(survivors) == 1 {
		return ResolveResult{Status: StatusSuccess, Elements: []*domtree.Element{survivors[0].el}, Confidence: e.Meta.Confidence}
	}

	// Phase 4: constraints.
	if len(survivors) > 1 && len(e.Constraints) > 0 {
		cands := make([]constraints.Candidate, len(survivors))
		for i, s := range survivors {
			cands[i] = constraints.Candidate{Element: s.el, Score: s.score, DocOrder: s.docOrder}
		}
		applied, err := constraints.Apply(cands, e.Constraints)
		if err != nil {
			return errResult("resolver: %v", err)
		}
		survivors = survivors[:0]
		for _, c := range applied {
			survivors = append(survivors, scoredCandidate{el: c.Element, score: c.Score, docOrder: c.DocOrder})
		}
	}

	// Phase 5: ambiguity/fallback.
	switch len(survivors) {
	case 1:
		return ResolveResult{Status: StatusSuccess, Elements: []*domtree.Element{survivors[0].el}, Confidence: e.Meta.Confidence}
	case 0:
		if !opts.DisableFallback && e.Fallback.OnMissing == eid.OnMissingAnchorOnly {
			if result, ok := runFallback(e, rootEl, baseURL, extractOpts); ok {
				opts.logger().Warn("resolver: resolved via degraded fallback", "selector", selector, "confidence", result.Confidence)
				return result
			}
		}
		return errResult("resolver: no candidates matched %q", selector)
	default:
		if opts.RequireUniqueness {
			return errResult("resolver: %d candidates survived and requireUniqueness is set", len(survivors))
		}
		elements := make([]*domtree.Element, len(survivors))
		for i, s := range survivors {
			elements[i] = s.el
		}
		return ResolveResult{Status: StatusAmbiguous, Elements: elements, Confidence: survivors[0].score}
	}
}

// runFallback re-runs matching anchor-only at a relaxed threshold,
// reporting a reduced confidence on success.
func runFallback(e eid.EID, rootEl *domtree.Element, baseURL string, extractOpts extract.Options) (ResolveResult, bool) {
	anchorSelector := cssgen.NodeSelector(e.Anchor.NodeRef, false)
	anchorEls, err := domtree.QuerySelectorAll(rootEl, anchorSelector)
	if err != nil || len(anchorEls) == 0 {
		return ResolveResult{}, false
	}

	candidates := fallback.Run(anchorEls[0], e.Target, fallback.Options{BaseURL: baseURL, Extract: extractOpts})
	if len(candidates) == 0 {
		return ResolveResult{}, false
	}
	best := candidates[0]
	return ResolveResult{
		Status:     StatusDegradedFallback,
		Elements:   []*domtree.Element{best.Element},
		Confidence: fallback.Confidence(best.Score),
		Warnings:   []string{"resolved via anchor-only fallback at relaxed threshold"},
	}, true
}
