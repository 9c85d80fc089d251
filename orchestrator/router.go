package orchestrator

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/registry"
)

// Mode tells the dispatcher how to run a plan's targets.
type Mode string

const (
	// ModeSequential runs targets one at a time in plan order.
	ModeSequential Mode = "sequential"
	// ModeParallel runs all targets concurrently and joins on completion.
	ModeParallel Mode = "parallel"
)

// Target is one routed destination with its matching score.
type Target struct {
	AgentType string `json:"agent_type"`
	Score     int    `json:"score"`
}

// Plan is the routing outcome for one request. An empty target list means
// no agent qualified.
type Plan struct {
	Targets []Target `json:"targets"`
	Mode    Mode     `json:"mode"`
}

// RouterStrategy turns a request into a dispatch plan over the candidate
// agents. Candidates arrive in registration order, which doubles as the
// tie-break order.
type RouterStrategy interface {
	Route(ctx context.Context, req core.Request, candidates []registry.Entry) Plan
}

// KeywordRouterOptions configures a KeywordRouter.
type KeywordRouterOptions struct {
	// MinScore is the number of keyword matches an agent needs to become a
	// target. Defaults to 1.
	MinScore int
}

// KeywordRouter scores candidates by how many of their capability keywords
// appear in the request message. Single-word keywords match whole tokens;
// multi-word keywords match as phrases.
type KeywordRouter struct {
	minScore int
}

// NewKeywordRouter creates a keyword scoring router.
func NewKeywordRouter(optFns ...func(o *KeywordRouterOptions)) *KeywordRouter {
	opts := KeywordRouterOptions{MinScore: 1}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MinScore < 1 {
		opts.MinScore = 1
	}
	return &KeywordRouter{minScore: opts.MinScore}
}

// Route scores every candidate and orders qualifying targets by score, with
// registration order breaking ties.
func (r *KeywordRouter) Route(_ context.Context, req core.Request, candidates []registry.Entry) Plan {
	lowered := strings.ToLower(req.Message)
	tokens := tokenize(lowered)

	targets := make([]Target, 0, len(candidates))
	for _, entry := range candidates {
		score := 0
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(kw)
			if strings.ContainsRune(kw, ' ') {
				if strings.Contains(lowered, kw) {
					score++
				}
				continue
			}
			if _, ok := tokens[kw]; ok {
				score++
			}
		}
		if score >= r.minScore {
			targets = append(targets, Target{AgentType: entry.AgentType, Score: score})
		}
	}

	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Score > targets[j].Score })
	return Plan{Targets: targets, Mode: modeFor(len(targets))}
}

func modeFor(targetCount int) Mode {
	if targetCount > 1 {
		return ModeParallel
	}
	return ModeSequential
}

// tokenize splits a lowered message into its word tokens. Underscores stay
// inside tokens so entity identifiers like ENG_PART_001 survive intact.
func tokenize(lowered string) map[string]struct{} {
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
