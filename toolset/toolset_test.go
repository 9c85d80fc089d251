package toolset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangarhq/aeromesh/tool"
)

func callTool(t *testing.T, tools []tool.Tool, name string, args map[string]any) map[string]any {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() != name {
			continue
		}
		out, err := tl.Call(context.Background(), args)
		require.NoError(t, err)
		envelope, ok := out.(map[string]any)
		require.True(t, ok, "tool %s must return an envelope", name)
		return envelope
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

// -------------------- Supply Chain --------------------

func TestSupplyChain_TrackInventory(t *testing.T) {
	tools := NewSupplyChainToolset().Tools()

	out := callTool(t, tools, "track_inventory", map[string]any{"part_number": "ENG_PART_001"})
	assert.Equal(t, "success", out["status"])
	details := out["details"].(map[string]any)
	assert.Equal(t, "Turbine Blade Set", details["part_name"])
	assert.Equal(t, 15, details["current_stock"])
	assert.Equal(t, "normal", details["stock_status"])
	assert.Equal(t, false, details["reorder_needed"])

	out = callTool(t, tools, "track_inventory", map[string]any{"part_number": "NO_SUCH_PART"})
	assert.Equal(t, "success", out["status"])
	details = out["details"].(map[string]any)
	assert.Equal(t, "not_found", details["status"])
}

func TestSupplyChain_OrderParts(t *testing.T) {
	ts := NewSupplyChainToolset()
	tools := ts.Tools()

	out := callTool(t, tools, "order_parts", map[string]any{
		"part_number": "AVIONICS_A1",
		"quantity":    float64(4), // JSON numbers decode to float64
		"supplier_id": "SUP_002",
	})
	assert.Equal(t, "success", out["status"])
	order := out["details"].(map[string]any)
	assert.Equal(t, "Navigation Computer", order["part_name"])
	assert.Equal(t, "Aviation Parts Direct", order["supplier_name"])
	assert.Equal(t, 4*1500, order["estimated_cost"])
	assert.Equal(t, "pending", order["status"])

	status := callTool(t, tools, "check_supplier_status", map[string]any{"supplier_id": "SUP_002"})
	supplier := status["details"].(map[string]any)
	assert.Equal(t, 1, supplier["active_orders"])
	assert.Equal(t, "B+", supplier["rating"])
}

func TestSupplyChain_LowStockReport(t *testing.T) {
	tools := NewSupplyChainToolset().Tools()

	out := callTool(t, tools, "generate_inventory_report", map[string]any{})
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "low_stock_alert", out["report_type"])
	content := out["content"].(map[string]any)
	// Seed data keeps every part above its minimum
	assert.Equal(t, 0, content["low_stock_count"])
	assert.Equal(t, len(Parts), content["total_parts"])
}

// -------------------- Meetings --------------------

func TestMeeting_BookAndCancel(t *testing.T) {
	tools := NewMeetingToolset().Tools()

	out := callTool(t, tools, "book_meeting_room", map[string]any{
		"room_id":       "EXEC_01",
		"meeting_title": "Fleet review",
		"organizer":     "Ops",
	})
	assert.Equal(t, "success", out["status"])
	booking := out["details"].(map[string]any)
	assert.Equal(t, "Executive Boardroom", booking["room_name"])
	assert.Equal(t, "confirmed", booking["status"])

	bookingID := out["booking_id"].(string)
	cancelled := callTool(t, tools, "cancel_booking", map[string]any{"booking_id": bookingID})
	assert.Equal(t, "success", cancelled["status"])
	assert.Equal(t, "cancelled", cancelled["details"].(map[string]any)["status"])

	missing := callTool(t, tools, "cancel_booking", map[string]any{"booking_id": "BOOK_none"})
	assert.Equal(t, "error", missing["status"])
	assert.Contains(t, missing["message"], "not found")
}

func TestMeeting_Availability(t *testing.T) {
	tools := NewMeetingToolset().Tools()

	out := callTool(t, tools, "check_room_availability", map[string]any{"room_id": "CONF_B1"})
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Pilot Briefing Room", out["room_name"])
	assert.Equal(t, 4, out["total_available_slots"])
}

func TestMeeting_UtilizationReport(t *testing.T) {
	ts := NewMeetingToolset()
	tools := ts.Tools()

	callTool(t, tools, "book_meeting_room", map[string]any{"room_id": "TRAIN_A"})
	out := callTool(t, tools, "generate_meeting_report", map[string]any{"report_type": "room_utilization"})

	content := out["content"].(map[string]any)
	assert.Equal(t, len(Rooms), content["total_rooms"])
	assert.Equal(t, 1, content["total_bookings"])
	assert.Equal(t, 1, content["active_bookings"])
}

// -------------------- HR --------------------

func TestHR_EmployeeLifecycle(t *testing.T) {
	ts := NewHRToolset()
	tools := ts.Tools()

	created := callTool(t, tools, "create_employee_record", map[string]any{
		"name":       "Dana Reyes",
		"position":   "Avionics Technician",
		"department": "Engineering",
	})
	assert.Equal(t, "success", created["status"])
	employeeID := created["employee_id"].(string)
	assert.NotEmpty(t, employeeID)

	training := callTool(t, tools, "schedule_training", map[string]any{
		"employee_id":   employeeID,
		"training_type": "Avionics Safety Refresher",
	})
	assert.Equal(t, "success", training["status"])
	assert.Equal(t, 8, training["details"].(map[string]any)["duration_hours"])

	cert := callTool(t, tools, "track_certification", map[string]any{
		"employee_id":        employeeID,
		"certification_type": "A&P License",
	})
	assert.Equal(t, "success", cert["status"])

	report := callTool(t, tools, "generate_hr_report", map[string]any{"report_type": "employee_summary"})
	content := report["content"].(map[string]any)
	assert.Equal(t, 1, content["total_employees"])
	assert.Equal(t, 1, content["active_employees"])
	assert.Contains(t, content["departments"], "Engineering")
}

func TestHR_InvalidDepartment(t *testing.T) {
	tools := NewHRToolset().Tools()

	out := callTool(t, tools, "create_employee_record", map[string]any{
		"name":       "Kim Osei",
		"department": "Space Operations",
	})
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["message"], "Invalid department")
	assert.Contains(t, out["message"], "Flight Operations")
}

func TestHR_GenericReportCounts(t *testing.T) {
	ts := NewHRToolset()
	tools := ts.Tools()

	callTool(t, tools, "create_employee_record", map[string]any{"name": "Lee"})
	callTool(t, tools, "schedule_training", map[string]any{"employee_id": "EMP_X"})
	callTool(t, tools, "track_certification", map[string]any{"employee_id": "EMP_X"})

	report := callTool(t, tools, "generate_hr_report", map[string]any{"report_type": "totals"})
	data := report["content"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, 1, data["employees"])
	assert.Equal(t, 1, data["trainings"])
	assert.Equal(t, 1, data["certifications"])
}
