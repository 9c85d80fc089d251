package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/model"
	"github.com/hangarhq/aeromesh/registry"
)

const routerInstruction = `You route requests in an aviation operations system to specialized agents.
Reply with the agent types that should handle the request, comma separated, nothing else.
Reply NONE when no listed agent fits.`

// ModelRouterOptions configures a ModelRouter.
type ModelRouterOptions struct {
	// Fallback handles routing when the model fails or names no known
	// agent. Defaults to a KeywordRouter with default options.
	Fallback RouterStrategy
	// Logger receives fallback diagnostics.
	Logger logging.Logger
}

// ModelRouter asks the reasoning model to pick target agents from the
// candidate list. Any model failure or unusable reply falls back to
// keyword scoring, so routing always produces a deterministic plan.
type ModelRouter struct {
	model    model.Model
	fallback RouterStrategy
	logger   logging.Logger
}

// NewModelRouter creates a model-backed router over the given model.
func NewModelRouter(m model.Model, optFns ...func(o *ModelRouterOptions)) *ModelRouter {
	opts := ModelRouterOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Fallback == nil {
		opts.Fallback = NewKeywordRouter()
	}
	return &ModelRouter{model: m, fallback: opts.Fallback, logger: opts.Logger}
}

// Route asks the model for target agent types and validates them against
// the candidates. Unknown names are discarded; duplicates collapse.
func (r *ModelRouter) Route(ctx context.Context, req core.Request, candidates []registry.Entry) Plan {
	if r.model == nil {
		return r.fallback.Route(ctx, req, candidates)
	}

	var sb strings.Builder
	sb.WriteString("Available agents:\n")
	for _, entry := range candidates {
		sb.WriteString(fmt.Sprintf("- %s: %s (keywords: %s)\n", entry.AgentType, entry.Description, strings.Join(entry.Keywords, ", ")))
	}
	sb.WriteString("\nRequest: ")
	sb.WriteString(req.Message)

	resp, err := r.model.Infer(ctx, model.Request{Instructions: routerInstruction, Input: sb.String()})
	if err != nil {
		r.logger.Warn("router.model.fallback", "error", err.Error())
		return r.fallback.Route(ctx, req, candidates)
	}

	targets := parseTargets(resp.Text, candidates)
	if len(targets) == 0 {
		if strings.Contains(strings.ToUpper(resp.Text), "NONE") {
			return Plan{Mode: ModeSequential}
		}
		r.logger.Warn("router.model.fallback", "reply", resp.Text)
		return r.fallback.Route(ctx, req, candidates)
	}
	return Plan{Targets: targets, Mode: modeFor(len(targets))}
}

// parseTargets keeps the candidate agent types the model named, in
// candidate registration order.
func parseTargets(reply string, candidates []registry.Entry) []Target {
	tokens := tokenize(strings.ToLower(reply))
	targets := make([]Target, 0, len(candidates))
	for _, entry := range candidates {
		if _, ok := tokens[strings.ToLower(entry.AgentType)]; ok {
			targets = append(targets, Target{AgentType: entry.AgentType, Score: 1})
		}
	}
	return targets
}
