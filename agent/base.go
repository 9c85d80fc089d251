package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/internal/util"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/model"
	"github.com/hangarhq/aeromesh/tool"
)

// Options configures a domain executor.
type Options struct {
	// Model performs the reasoning step. Optional; without it executors
	// degrade to deterministic responses.
	Model model.Model
	// Logger receives reasoning and tool diagnostics.
	Logger logging.Logger
}

// BaseAgent bundles the identity, reasoning and tool plumbing shared by the
// domain executors. Embed it and supply an ExecuteTask method to satisfy
// core.Executor. A BaseAgent is immutable after construction and safe for
// concurrent use.
type BaseAgent struct {
	agentType   string
	name        string
	description string
	instruction string

	model  model.Model
	tools  map[string]tool.Tool
	logger logging.Logger
}

// NewBaseAgent wires identity, instruction, model and tools together.
func NewBaseAgent(agentType, name, description, instruction string, tools []tool.Tool, opts Options) BaseAgent {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	indexed := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		indexed[t.Name()] = t
	}
	return BaseAgent{
		agentType:   agentType,
		name:        name,
		description: description,
		instruction: instruction,
		model:       opts.Model,
		tools:       indexed,
		logger:      logger,
	}
}

// AgentType returns the stable routing key.
func (b *BaseAgent) AgentType() string { return b.agentType }

// Name returns the human-readable display name.
func (b *BaseAgent) Name() string { return b.name }

// Description summarizes the executor's capabilities.
func (b *BaseAgent) Description() string { return b.description }

// reason runs the model over the request and returns its text. Model
// failures degrade to a deterministic response instead of failing the task;
// domain actions still run either way.
func (b *BaseAgent) reason(ctx context.Context, req core.Request) string {
	if b.model == nil {
		return b.fallbackText(req)
	}

	instructions, err := util.RenderPrompt(b.instruction, map[string]any{
		"tenant_id": req.TenantID,
		"user_id":   req.UserID,
	})
	if err != nil {
		b.logger.Warn("agent.instruction.render_failed", "agent_type", b.agentType, "error", err.Error())
		instructions = b.instruction
	}

	resp, err := b.model.Infer(ctx, model.Request{Instructions: instructions, Input: req.Message})
	if err != nil {
		b.logger.Warn("agent.reason.fallback", "agent_type", b.agentType, "error", err.Error())
		return b.fallbackText(req)
	}
	return resp.Text
}

func (b *BaseAgent) fallbackText(req core.Request) string {
	return fmt.Sprintf("%s received your request: %q. The reasoning model is unavailable right now; the system actions below were performed directly.", b.name, req.Message)
}

// trigger binds request keywords to one tool invocation.
type trigger struct {
	keywords []string
	toolName string
	args     map[string]any
}

// toolResult records one tool invocation for response assembly.
type toolResult struct {
	Tool   string
	Result any
}

// runTriggeredTools invokes every tool whose keywords appear in the message.
// A hard tool error aborts and is returned for the caller to record as a
// tool invocation failure; in-band error envelopes pass through as results.
func (b *BaseAgent) runTriggeredTools(ctx context.Context, message string, triggers []trigger) ([]toolResult, error) {
	messageLower := strings.ToLower(message)

	var results []toolResult
	for _, tr := range triggers {
		if !containsAny(messageLower, tr.keywords) {
			continue
		}
		t, ok := b.tools[tr.toolName]
		if !ok {
			return nil, tool.NewToolError(tr.toolName, "tool is not configured for this agent", "EXECUTION_ERROR")
		}
		out, err := t.Call(ctx, tr.args)
		if err != nil {
			return nil, err
		}
		results = append(results, toolResult{Tool: tr.toolName, Result: out})
	}
	return results, nil
}

func containsAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// combineResponses appends a system-actions section to the reasoning text,
// one block per tool invocation with its envelope fields in stable order.
func (b *BaseAgent) combineResponses(header, llmText string, results []toolResult) string {
	if len(results) == 0 {
		return llmText
	}

	var sb strings.Builder
	sb.WriteString(llmText)
	sb.WriteString("\n\n## ")
	sb.WriteString(header)
	sb.WriteString(":\n\n")

	for _, res := range results {
		sb.WriteString(fmt.Sprintf("✅ **%s:**\n", util.TitleWords(res.Tool)))
		if envelope, ok := res.Result.(map[string]any); ok {
			for _, key := range sortedKeys(envelope) {
				sb.WriteString(fmt.Sprintf("   - %s: %v\n", util.TitleWords(key), envelope[key]))
			}
		} else {
			sb.WriteString(fmt.Sprintf("   - Result: %v\n", res.Result))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// taskRef derives the short reference the executors embed in placeholder
// entity identifiers, mirroring the dataset reference style.
func taskRef(taskID string) string {
	if len(taskID) > 8 {
		return taskID[:8]
	}
	return taskID
}
