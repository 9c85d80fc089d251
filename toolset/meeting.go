package toolset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/tool"
)

// Room describes a bookable facility room.
type Room struct {
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
}

// Rooms is the reference set of facility rooms.
var Rooms = map[string]Room{
	"CONF_A1": {Name: "Flight Operations Center", Capacity: 20, Equipment: []string{"projector", "flight_displays", "weather_monitors"}},
	"CONF_B1": {Name: "Pilot Briefing Room", Capacity: 12, Equipment: []string{"projector", "charts", "weather_display"}},
	"EXEC_01": {Name: "Executive Boardroom", Capacity: 8, Equipment: []string{"projector", "conference_phone", "whiteboard"}},
	"TRAIN_A": {Name: "Training Room A", Capacity: 25, Equipment: []string{"projector", "simulator_access", "training_materials"}},
	"MAINT_C": {Name: "Maintenance Conference Room", Capacity: 15, Equipment: []string{"technical_displays", "parts_catalog"}},
	"ATC_BR":  {Name: "ATC Briefing Room", Capacity: 10, Equipment: []string{"radar_displays", "communication_systems"}},
}

// MeetingToolset manages room bookings against the reference room set.
type MeetingToolset struct {
	mu       sync.Mutex
	bookings map[string]map[string]any

	logger logging.Logger
}

// MeetingToolsetOptions configures a MeetingToolset.
type MeetingToolsetOptions struct {
	Logger logging.Logger
}

// NewMeetingToolset creates a toolset with no existing bookings.
func NewMeetingToolset(optFns ...func(o *MeetingToolsetOptions)) *MeetingToolset {
	opts := MeetingToolsetOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MeetingToolset{
		bookings: make(map[string]map[string]any),
		logger:   opts.Logger,
	}
}

// Tools returns the meeting capabilities as schema validated tools.
func (ts *MeetingToolset) Tools() []tool.Tool {
	logOpt := func(o *tool.FunctionToolOptions) { o.Logger = ts.logger }
	return []tool.Tool{
		tool.NewFunctionTool(
			"book_meeting_room",
			"Book a facility room for a meeting",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"room_id":          map[string]any{"type": "string", "description": "Room identifier, e.g. CONF_A1"},
					"meeting_title":    map[string]any{"type": "string", "description": "Meeting subject"},
					"organizer":        map[string]any{"type": "string", "description": "Person booking the room"},
					"start_time":       map[string]any{"type": "string", "description": "Start time (RFC 3339 or HH:MM)"},
					"end_time":         map[string]any{"type": "string", "description": "End time"},
					"attendees":        map[string]any{"type": "array", "description": "Attendee names"},
					"equipment_needed": map[string]any{"type": "array", "description": "Required equipment"},
				},
			},
			ts.bookMeetingRoom,
			logOpt,
		),
		tool.NewFunctionTool(
			"check_room_availability",
			"Check a room's availability slots for a date",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"room_id": map[string]any{"type": "string", "description": "Room identifier"},
					"date":    map[string]any{"type": "string", "description": "Date to check (YYYY-MM-DD)"},
				},
			},
			ts.checkRoomAvailability,
			logOpt,
		),
		tool.NewFunctionTool(
			"cancel_booking",
			"Cancel an existing room booking",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"booking_id": map[string]any{"type": "string", "description": "Booking reference"},
					"reason":     map[string]any{"type": "string", "description": "Cancellation reason"},
				},
				"required": []string{"booking_id"},
			},
			ts.cancelBooking,
			logOpt,
		),
		tool.NewFunctionTool(
			"generate_meeting_report",
			"Generate a room utilization report",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"report_type": map[string]any{"type": "string", "description": "Report type, e.g. room_utilization"},
				},
			},
			ts.generateMeetingReport,
			logOpt,
		),
	}
}

func (ts *MeetingToolset) bookMeetingRoom(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	bookingID := newRef("BOOK")
	roomID := stringArg(args, "room_id", "CONF_A1")
	roomName := "Unknown Room"
	if room, ok := Rooms[roomID]; ok {
		roomName = room.Name
	}

	booking := map[string]any{
		"booking_id":       bookingID,
		"room_id":          roomID,
		"room_name":        roomName,
		"meeting_title":    stringArg(args, "meeting_title", "Aviation Meeting"),
		"organizer":        stringArg(args, "organizer", "Unknown"),
		"start_time":       stringArg(args, "start_time", time.Now().Format("2006-01-02T15:04:05")),
		"end_time":         stringArg(args, "end_time", time.Now().Add(time.Hour).Format("2006-01-02T15:04:05")),
		"attendees":        sliceArg(args, "attendees"),
		"equipment_needed": sliceArg(args, "equipment_needed"),
		"status":           "confirmed",
		"created_at":       nowStamp(),
	}
	ts.bookings[bookingID] = booking

	return successEnvelope(fmt.Sprintf("Room %s booked successfully", roomID), map[string]any{
		"booking_id": bookingID,
		"details":    booking,
	}), nil
}

func (ts *MeetingToolset) checkRoomAvailability(_ context.Context, args map[string]any) (any, error) {
	roomID := stringArg(args, "room_id", "CONF_A1")
	checkDate := stringArg(args, "date", today())

	roomName := "Unknown Room"
	if room, ok := Rooms[roomID]; ok {
		roomName = room.Name
	}

	slots := []map[string]any{
		{"start": "09:00", "end": "10:00", "status": "available"},
		{"start": "10:00", "end": "11:00", "status": "booked"},
		{"start": "11:00", "end": "12:00", "status": "available"},
		{"start": "14:00", "end": "15:00", "status": "available"},
		{"start": "15:00", "end": "16:00", "status": "available"},
		{"start": "16:00", "end": "17:00", "status": "maintenance"},
	}
	available := 0
	for _, slot := range slots {
		if slot["status"] == "available" {
			available++
		}
	}

	return successEnvelope(fmt.Sprintf("Availability checked for room %s", roomID), map[string]any{
		"room_id":               roomID,
		"room_name":             roomName,
		"date":                  checkDate,
		"availability":          slots,
		"total_available_slots": available,
	}), nil
}

func (ts *MeetingToolset) cancelBooking(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	bookingID := stringArg(args, "booking_id", "")
	booking, ok := ts.bookings[bookingID]
	if !ok {
		return errorEnvelope(fmt.Sprintf("Booking %s not found", bookingID)), nil
	}

	booking["status"] = "cancelled"
	booking["cancellation_reason"] = stringArg(args, "reason", "User requested cancellation")
	booking["cancelled_at"] = nowStamp()

	return successEnvelope(fmt.Sprintf("Booking %s cancelled successfully", bookingID), map[string]any{
		"booking_id": bookingID,
		"details":    booking,
	}), nil
}

func (ts *MeetingToolset) generateMeetingReport(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	reportType := stringArg(args, "report_type", "utilization")
	reportID := newRef("RPT")

	var content map[string]any
	if reportType == "room_utilization" {
		active, cancelled := 0, 0
		for _, b := range ts.bookings {
			switch b["status"] {
			case "confirmed":
				active++
			case "cancelled":
				cancelled++
			}
		}
		content = map[string]any{
			"total_rooms":        len(Rooms),
			"total_bookings":     len(ts.bookings),
			"active_bookings":    active,
			"cancelled_bookings": cancelled,
			"room_details":       Rooms,
			"utilization_rate":   "85%",
		}
	} else {
		content = map[string]any{
			"message": "Report type '" + reportType + "' generated",
			"data": map[string]any{
				"rooms":    len(Rooms),
				"bookings": len(ts.bookings),
			},
		}
	}

	return successEnvelope("Meeting report generated successfully", map[string]any{
		"report_id":    reportID,
		"report_type":  reportType,
		"content":      content,
		"generated_at": nowStamp(),
	}), nil
}
