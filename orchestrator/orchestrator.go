package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/internal/util"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/model"
	"github.com/hangarhq/aeromesh/registry"
)

// DefaultSubtaskTimeout bounds how long one dispatched child may run.
const DefaultSubtaskTimeout = 45 * time.Second

const orchestratorInstruction = `You are the Aviation Multi-Agent System Orchestrator responsible for coordinating specialized aviation agents to fulfill user requests.

Your role is to:
1. Analyze incoming user requests
2. Determine which specialized agents are needed
3. Aggregate and synthesize responses from sub-agents
4. Provide comprehensive responses to users

Always provide clear, professional responses that leverage the appropriate specialized capabilities.`

// Options configures an Orchestrator.
type Options struct {
	// Router picks the dispatch targets. Defaults to a KeywordRouter with
	// MinScore.
	Router RouterStrategy
	// MinScore feeds the default KeywordRouter; ignored when Router is set.
	MinScore int
	// Model writes the combined summary when several agents respond.
	// Optional; without it synthesis degrades to concatenation.
	Model model.Model
	// SubtaskTimeout bounds each dispatched child task.
	SubtaskTimeout time.Duration
	// Logger receives routing and dispatch diagnostics.
	Logger logging.Logger
}

// Orchestrator is the executor that fans a request out to the registered
// domain agents and synthesizes their responses into one composite result.
// It is stateless across requests and safe for concurrent use.
type Orchestrator struct {
	registry       *registry.Registry
	router         RouterStrategy
	model          model.Model
	subtaskTimeout time.Duration
	logger         logging.Logger
}

// New creates an orchestrator over the given agent registry.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MinScore:       1,
		SubtaskTimeout: DefaultSubtaskTimeout,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SubtaskTimeout <= 0 {
		opts.SubtaskTimeout = DefaultSubtaskTimeout
	}
	router := opts.Router
	if router == nil {
		router = NewKeywordRouter(func(o *KeywordRouterOptions) { o.MinScore = opts.MinScore })
	}
	return &Orchestrator{
		registry:       reg,
		router:         router,
		model:          opts.Model,
		subtaskTimeout: opts.SubtaskTimeout,
		logger:         opts.Logger,
	}
}

// AgentType returns the stable routing key.
func (o *Orchestrator) AgentType() string { return "orchestrator" }

// Name returns the human-readable display name.
func (o *Orchestrator) Name() string { return "Aviation Orchestrator Agent" }

// Description summarizes the executor's capabilities.
func (o *Orchestrator) Description() string {
	return "Routes requests to the specialized aviation agents and synthesizes their responses"
}

// outcome pairs a dispatch target with its terminal child task.
type outcome struct {
	agentType string
	task      *core.Task
}

// ExecuteTask routes the request, dispatches the plan and synthesizes the
// terminal child results into a composite artifact.
func (o *Orchestrator) ExecuteTask(ctx context.Context, req core.Request, up *core.Updater) error {
	up.Working("Analyzing request and routing to agents", 10)

	plan := o.router.Route(ctx, req, o.candidates())
	if len(plan.Targets) == 0 {
		return core.NewTaskError(core.KindNoMatchingAgent, fmt.Sprintf("no registered agent matches %q", req.Message))
	}

	up.Working(fmt.Sprintf("Delegating to %d agent(s)", len(plan.Targets)), 25)

	var outcomes []outcome
	if plan.Mode == ModeParallel {
		outcomes = o.dispatchParallel(ctx, plan.Targets, req, up)
	} else {
		outcomes = o.dispatchSequential(ctx, plan.Targets, req, up)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	up.Working("Synthesizing agent responses", 75)

	succeeded := 0
	var causes []core.TaskError
	for _, out := range outcomes {
		if out.task.Status == core.StatusCompleted {
			succeeded++
			continue
		}
		causes = append(causes, causeFor(out))
	}
	if succeeded == 0 {
		return core.NewTaskError(core.KindAllTargetsFailed, fmt.Sprintf("all %d targets failed", len(outcomes)), causes...)
	}

	responses := make(map[string]any, succeeded)
	failures := make(map[string]string)
	for _, out := range outcomes {
		if out.task.Status == core.StatusCompleted {
			responses[out.agentType] = primaryContent(out.task)
		} else {
			failures[out.agentType] = failureNote(out.task)
		}
	}
	composite := map[string]any{
		"summary":   o.summarize(ctx, req, outcomes),
		"responses": responses,
	}
	if len(failures) > 0 {
		composite["failures"] = failures
	}

	subAgents := make([]string, 0, len(plan.Targets))
	for _, target := range plan.Targets {
		subAgents = append(subAgents, target.AgentType)
	}
	up.AddArtifact("orchestrated_response", "orchestrated_response", composite, map[string]any{
		"agent_type":      "orchestrator",
		"sub_agents_used": subAgents,
		"tenant_id":       req.TenantID,
	})

	up.Complete(fmt.Sprintf("Orchestration completed: %d/%d agent(s) succeeded", succeeded, len(outcomes)))
	return nil
}

// candidates lists the registered agents the router may target, excluding
// the orchestrator itself.
func (o *Orchestrator) candidates() []registry.Entry {
	entries := o.registry.List()
	filtered := make([]registry.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.AgentType == o.AgentType() {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// dispatchSequential runs targets one at a time in plan order. A failed
// target is recorded and the loop continues; only an all-failed plan fails
// the orchestration.
func (o *Orchestrator) dispatchSequential(ctx context.Context, targets []Target, req core.Request, up *core.Updater) []outcome {
	outcomes := make([]outcome, 0, len(targets))
	for _, target := range targets {
		outcomes = append(outcomes, o.dispatchOne(ctx, target.AgentType, req, up))
	}
	return outcomes
}

// dispatchParallel runs all targets concurrently and joins on every child
// reaching a terminal status. Outcomes keep plan order.
func (o *Orchestrator) dispatchParallel(ctx context.Context, targets []Target, req core.Request, up *core.Updater) []outcome {
	var wg sync.WaitGroup
	outcomes := make([]outcome, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func(i int, agentType string) {
			defer wg.Done()
			outcomes[i] = o.dispatchOne(ctx, agentType, req, up)
		}(i, target.AgentType)
	}
	wg.Wait()
	return outcomes
}

// dispatchOne runs a single child task under the subtask timeout. A child
// that outlives its context is forced terminal so the join never blocks on
// a stuck executor.
func (o *Orchestrator) dispatchOne(ctx context.Context, agentType string, req core.Request, up *core.Updater) outcome {
	childCtx, cancel := context.WithTimeout(ctx, o.subtaskTimeout)
	defer cancel()
	child := up.Child(childCtx, agentType, req)

	exec, err := o.registry.Get(agentType)
	if err != nil {
		child.Fail(core.KindUnknownAgentType, err.Error())
		return o.observed(outcome{agentType: agentType, task: child.Task()})
	}

	done := make(chan *core.Task, 1)
	go func() { done <- core.Run(childCtx, exec, req, child) }()

	select {
	case task := <-done:
		return o.observed(outcome{agentType: agentType, task: task})
	case <-childCtx.Done():
		if errors.Is(childCtx.Err(), context.DeadlineExceeded) {
			child.Fail(core.KindTimeout, fmt.Sprintf("agent %s exceeded the %s dispatch budget", agentType, o.subtaskTimeout))
		} else {
			child.Cancel("orchestration canceled")
		}
		return o.observed(outcome{agentType: agentType, task: child.Task()})
	}
}

func (o *Orchestrator) observed(out outcome) outcome {
	if out.task.Status != core.StatusCompleted {
		o.logger.Warn(
			"orchestrator.target.failed",
			"agent_type", out.agentType,
			"task_id", out.task.ID,
			"status", string(out.task.Status),
		)
	}
	return out
}

// summarize produces the human-readable combined response: passthrough for
// a single agent, model synthesis for several, concatenation when no model
// is reachable.
func (o *Orchestrator) summarize(ctx context.Context, req core.Request, outcomes []outcome) string {
	if len(outcomes) == 1 {
		return primaryContent(outcomes[0].task)
	}
	if o.model != nil {
		resp, err := o.model.Infer(ctx, model.Request{
			Instructions: orchestratorInstruction,
			Input:        synthesisPrompt(req.Message, outcomes),
		})
		if err == nil {
			return resp.Text
		}
		o.logger.Warn("orchestrator.synthesis.fallback", "error", err.Error())
	}
	return concatenated(outcomes)
}

func synthesisPrompt(message string, outcomes []outcome) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Based on the user query: %q\n\nThe following specialized agents have provided responses:\n\n", message))
	for _, out := range outcomes {
		display := util.TitleWords(out.agentType)
		if out.task.Status == core.StatusCompleted {
			sb.WriteString(fmt.Sprintf("**%s Agent Response:**\n%s\n\n", display, primaryContent(out.task)))
		} else {
			sb.WriteString(fmt.Sprintf("**%s Agent:** Failed to process request\n\n", display))
		}
	}
	sb.WriteString("Please synthesize these responses into a single, coherent response that addresses the user's query comprehensively. Organize the information logically and highlight key insights from each agent.")
	return sb.String()
}

func concatenated(outcomes []outcome) string {
	var sb strings.Builder
	sb.WriteString("Here are the responses from our specialized agents:\n\n")
	for _, out := range outcomes {
		if out.task.Status != core.StatusCompleted {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s Agent:\n%s\n\n", util.TitleWords(out.agentType), primaryContent(out.task)))
	}
	return sb.String()
}

// primaryContent extracts the child's response text from its artifacts.
func primaryContent(task *core.Task) string {
	art, ok := task.PrimaryArtifact()
	if !ok {
		return ""
	}
	if s, ok := art.Content.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", art.Content)
}

func causeFor(out outcome) core.TaskError {
	if out.task.Error != nil {
		cause := out.task.Error.Clone()
		cause.Message = fmt.Sprintf("agent %s: %s", out.agentType, cause.Message)
		return cause
	}
	return core.TaskError{
		Kind:    core.KindInternalContractViolation,
		Message: fmt.Sprintf("agent %s ended %s without error detail", out.agentType, out.task.Status),
	}
}

func failureNote(task *core.Task) string {
	if task.Error != nil {
		return task.Error.Error()
	}
	return fmt.Sprintf("ended %s without error detail", task.Status)
}
