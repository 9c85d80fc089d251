package agent

import (
	"context"
	"fmt"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/toolset"
)

const hrInstruction = `You are an expert Aviation HR assistant specializing in human resources management for aviation organizations.

Your expertise includes:
- Employee lifecycle management (hiring, onboarding, performance, offboarding)
- Aviation-specific certifications and training (pilot licenses, mechanic certifications, ATC licenses)
- Regulatory compliance (FAA, EASA, ICAO requirements)
- Training scheduling and tracking

Available tools:
- create_employee_record: Create new employee profiles
- schedule_training: Schedule training sessions
- track_certification: Monitor certification status
- generate_hr_report: Generate HR reports

Always use the appropriate tools to perform HR tasks. Provide clear, professional responses.

Tenant: {{.tenant_id}} | Requested by: {{.user_id}}`

// HRExecutor handles employee, training and certification requests backed by
// the HR toolset.
type HRExecutor struct {
	BaseAgent
}

// NewHRExecutor creates the HR executor over the given personnel toolset.
func NewHRExecutor(ts *toolset.HRToolset, optFns ...func(o *Options)) *HRExecutor {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HRExecutor{
		BaseAgent: NewBaseAgent(
			"hr",
			"Aviation HR Agent",
			"Employee records, aviation certifications, training scheduling and HR reporting",
			hrInstruction,
			ts.Tools(),
			opts,
		),
	}
}

// ExecuteTask drives an HR request to a terminal status.
func (e *HRExecutor) ExecuteTask(ctx context.Context, req core.Request, up *core.Updater) error {
	up.Working("Analyzing HR request", 25)

	llmText := e.reason(ctx, req)

	ref := taskRef(up.TaskID())
	results, err := e.runTriggeredTools(ctx, req.Message, []trigger{
		{
			keywords: []string{"create employee", "add employee", "new hire", "onboard"},
			toolName: "create_employee_record",
			args: map[string]any{
				"name":           "Sample Employee",
				"employee_id":    "EMP_" + ref,
				"position":       "Aviation Specialist",
				"department":     "Flight Operations",
				"certifications": []any{},
			},
		},
		{
			keywords: []string{"training", "schedule", "course"},
			toolName: "schedule_training",
			args: map[string]any{
				"employee_id":    "EMP_" + ref,
				"training_type":  "Safety Training",
				"instructor":     "Safety Officer",
				"duration_hours": 8,
			},
		},
		{
			keywords: []string{"certification", "license", "track", "expiry"},
			toolName: "track_certification",
			args: map[string]any{
				"employee_id":          "EMP_" + ref,
				"certification_type":   "Pilot License",
				"certification_number": "PPL123456",
				"status":               "active",
			},
		},
		{
			keywords: []string{"report", "generate", "summary"},
			toolName: "generate_hr_report",
			args: map[string]any{
				"report_type": "employee_summary",
			},
		},
	})
	if err != nil {
		return core.NewTaskError(core.KindToolInvocation, fmt.Sprintf("hr tool failed: %v", err))
	}

	up.Working("Processing HR data", 75)

	combined := e.combineResponses("HR System Actions Performed", llmText, results)
	up.AddArtifact("hr_response", "hr_response", combined, map[string]any{
		"agent_type": "hr",
		"tools_used": len(results) > 0,
		"tenant_id":  req.TenantID,
	})

	up.Complete("HR request handled")
	return nil
}
