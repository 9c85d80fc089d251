package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/toolset"
)

const supplyChainInstruction = `You are an expert Aviation Supply Chain Management assistant specializing in inventory, procurement, and supplier management for aviation organizations.

Your expertise includes:
- Aviation parts inventory management
- Procurement and purchase orders
- Supplier qualification and performance
- Stock level monitoring and reorder planning

Available tools:
- track_inventory: Check current stock levels
- order_parts: Place parts orders with suppliers
- check_supplier_status: Review supplier status and performance
- generate_inventory_report: Generate inventory reports

Always use the appropriate tools to perform supply chain tasks. Provide clear, actionable responses.

Tenant: {{.tenant_id}} | Requested by: {{.user_id}}`

// SupplyChainExecutor handles inventory, ordering and supplier requests
// backed by the parts toolset.
type SupplyChainExecutor struct {
	BaseAgent
}

// NewSupplyChainExecutor creates the supply chain executor over the given
// parts toolset.
func NewSupplyChainExecutor(ts *toolset.SupplyChainToolset, optFns ...func(o *Options)) *SupplyChainExecutor {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SupplyChainExecutor{
		BaseAgent: NewBaseAgent(
			"supply_chain",
			"Aviation Supply Chain Agent",
			"Parts inventory tracking, procurement, supplier checks and stock reporting",
			supplyChainInstruction,
			ts.Tools(),
			opts,
		),
	}
}

// ExecuteTask drives a supply chain request to a terminal status.
func (e *SupplyChainExecutor) ExecuteTask(ctx context.Context, req core.Request, up *core.Updater) error {
	up.Working("Analyzing supply chain request", 25)

	llmText := e.reason(ctx, req)

	partNumber := extractPartNumber(req.Message)
	if partNumber == "" {
		partNumber = "ENG_PART_001"
	}

	results, err := e.runTriggeredTools(ctx, req.Message, []trigger{
		{
			keywords: []string{"inventory", "stock", "check parts", "track"},
			toolName: "track_inventory",
			args: map[string]any{
				"part_number": partNumber,
				"location":    "Main Warehouse",
				"check_type":  "current_stock",
			},
		},
		{
			keywords: []string{"order", "purchase", "buy parts", "procurement"},
			toolName: "order_parts",
			args: map[string]any{
				"part_number": partNumber,
				"quantity":    5,
				"supplier_id": "SUP_001",
				"priority":    "normal",
				"cost_center": "Maintenance",
			},
		},
		{
			keywords: []string{"supplier", "vendor", "check supplier"},
			toolName: "check_supplier_status",
			args: map[string]any{
				"supplier_id": "SUP_001",
				"check_type":  "full_status",
			},
		},
		{
			keywords: []string{"report", "inventory report", "summary"},
			toolName: "generate_inventory_report",
			args: map[string]any{
				"report_type": "low_stock_alert",
			},
		},
	})
	if err != nil {
		return core.NewTaskError(core.KindToolInvocation, fmt.Sprintf("supply chain tool failed: %v", err))
	}

	up.Working("Processing supply chain data", 75)

	combined := e.combineResponses("Supply Chain System Actions Performed", llmText, results)
	up.AddArtifact("supply_chain_response", "supply_chain_response", combined, map[string]any{
		"agent_type": "supply_chain",
		"tools_used": len(results) > 0,
		"tenant_id":  req.TenantID,
	})

	up.Complete("Supply chain request handled")
	return nil
}

// extractPartNumber finds the first known part number in the message.
func extractPartNumber(message string) string {
	upper := strings.ToUpper(message)
	ids := make([]string, 0, len(toolset.Parts))
	for id := range toolset.Parts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if strings.Contains(upper, id) {
			return id
		}
	}
	return ""
}
