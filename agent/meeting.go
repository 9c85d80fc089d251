package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/toolset"
)

const meetingInstruction = `You are an expert Aviation Meeting Room Management assistant specializing in conference room booking and meeting coordination for aviation organizations.

Your expertise includes:
- Meeting room booking and management
- Room availability checking
- Equipment and resource coordination
- Special aviation briefings

Available tools:
- book_meeting_room: Reserve meeting rooms
- check_room_availability: Check room schedules
- cancel_booking: Cancel room reservations
- generate_meeting_report: Generate meeting reports

Always use the appropriate tools to perform meeting management tasks. Provide clear, helpful responses for meeting coordination.

Tenant: {{.tenant_id}} | Requested by: {{.user_id}}`

// MeetingExecutor coordinates room bookings, availability checks and meeting
// reports. A booking request that names no known room asks the caller to
// choose one before proceeding.
type MeetingExecutor struct {
	BaseAgent
}

// NewMeetingExecutor creates the meeting executor over the given room toolset.
func NewMeetingExecutor(ts *toolset.MeetingToolset, optFns ...func(o *Options)) *MeetingExecutor {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MeetingExecutor{
		BaseAgent: NewBaseAgent(
			"meeting",
			"Aviation Meeting Agent",
			"Conference room booking, availability checks and meeting coordination",
			meetingInstruction,
			ts.Tools(),
			opts,
		),
	}
}

// ExecuteTask drives a meeting request to a terminal status.
func (e *MeetingExecutor) ExecuteTask(ctx context.Context, req core.Request, up *core.Updater) error {
	up.Working("Analyzing meeting request", 25)

	llmText := e.reason(ctx, req)

	message := req.Message
	roomID := extractRoomID(message)
	if wantsBooking(message) && roomID == "" {
		up.RequireInput(roomPrompt())
		answer, err := up.AwaitInput(ctx)
		if err != nil {
			return err
		}
		roomID = extractRoomID(answer)
		if roomID == "" {
			roomID = "CONF_A1"
		}
	}
	if roomID == "" {
		roomID = "CONF_A1"
	}

	organizer := req.UserID
	if organizer == "" {
		organizer = "system"
	}

	ref := taskRef(up.TaskID())
	results, err := e.runTriggeredTools(ctx, message, []trigger{
		{
			keywords: []string{"book", "reserve", "schedule meeting", "room booking"},
			toolName: "book_meeting_room",
			args: map[string]any{
				"room_id":          roomID,
				"meeting_title":    "Aviation Team Meeting",
				"organizer":        organizer,
				"attendees":        []any{"team@aviation.com"},
				"equipment_needed": []any{"projector", "conference_phone"},
			},
		},
		{
			keywords: []string{"availability", "check", "available", "free"},
			toolName: "check_room_availability",
			args: map[string]any{
				"room_id": roomID,
			},
		},
		{
			keywords: []string{"cancel", "delete", "remove booking"},
			toolName: "cancel_booking",
			args: map[string]any{
				"booking_id": "BOOK_" + ref,
				"reason":     "User requested cancellation",
			},
		},
		{
			keywords: []string{"report", "summary", "meeting stats"},
			toolName: "generate_meeting_report",
			args: map[string]any{
				"report_type": "room_utilization",
			},
		},
	})
	if err != nil {
		return core.NewTaskError(core.KindToolInvocation, fmt.Sprintf("meeting tool failed: %v", err))
	}

	up.Working("Processing meeting data", 75)

	combined := e.combineResponses("Meeting System Actions Performed", llmText, results)
	up.AddArtifact("meeting_response", "meeting_response", combined, map[string]any{
		"agent_type": "meeting",
		"tools_used": len(results) > 0,
		"tenant_id":  req.TenantID,
	})

	up.Complete("Meeting request handled")
	return nil
}

// wantsBooking reports whether the message carries booking intent, the one
// flow that needs a concrete room before any tool runs.
func wantsBooking(message string) bool {
	return containsAny(strings.ToLower(message), []string{"book", "reserve", "schedule meeting", "room booking"})
}

// extractRoomID finds the first known room identifier in the message.
func extractRoomID(message string) string {
	upper := strings.ToUpper(message)
	ids := make([]string, 0, len(toolset.Rooms))
	for id := range toolset.Rooms {
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

func roomPrompt() string {
	ids := make([]string, 0, len(toolset.Rooms))
	for id := range toolset.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString("Which room should be booked? Available rooms:\n")
	for _, id := range ids {
		room := toolset.Rooms[id]
		sb.WriteString(fmt.Sprintf("- %s: %s (capacity %d)\n", id, room.Name, room.Capacity))
	}
	return sb.String()
}
