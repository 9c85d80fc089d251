package toolset

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/tool"
)

// ValidDepartments lists the aviation departments HR records may reference.
var ValidDepartments = []string{
	"Flight Operations", "Maintenance", "Ground Services", "Air Traffic Control",
	"Safety & Security", "Customer Service", "Cargo Operations", "Engineering",
	"Quality Assurance", "Training", "Human Resources", "Finance",
}

func validDepartment(name string) bool {
	for _, d := range ValidDepartments {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// HRToolset manages employee records, trainings and certifications against
// an in-memory personnel dataset.
type HRToolset struct {
	mu             sync.Mutex
	employees      map[string]map[string]any
	trainings      map[string][]map[string]any
	certifications map[string][]map[string]any

	logger logging.Logger
}

// HRToolsetOptions configures an HRToolset.
type HRToolsetOptions struct {
	Logger logging.Logger
}

// NewHRToolset creates an empty personnel dataset.
func NewHRToolset(optFns ...func(o *HRToolsetOptions)) *HRToolset {
	opts := HRToolsetOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HRToolset{
		employees:      make(map[string]map[string]any),
		trainings:      make(map[string][]map[string]any),
		certifications: make(map[string][]map[string]any),
		logger:         opts.Logger,
	}
}

// Tools returns the HR capabilities as schema validated tools.
func (ts *HRToolset) Tools() []tool.Tool {
	logOpt := func(o *tool.FunctionToolOptions) { o.Logger = ts.logger }
	return []tool.Tool{
		tool.NewFunctionTool(
			"create_employee_record",
			"Create a new employee record with position, department and certifications",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id":    map[string]any{"type": "string", "description": "Existing identifier; generated when omitted"},
					"name":           map[string]any{"type": "string", "description": "Employee full name"},
					"position":       map[string]any{"type": "string", "description": "Job position"},
					"department":     map[string]any{"type": "string", "description": "Aviation department"},
					"hire_date":      map[string]any{"type": "string", "description": "Hire date (YYYY-MM-DD)"},
					"certifications": map[string]any{"type": "array", "description": "Held certifications"},
				},
			},
			ts.createEmployeeRecord,
			logOpt,
		),
		tool.NewFunctionTool(
			"schedule_training",
			"Schedule a training session for an employee",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id":    map[string]any{"type": "string", "description": "Employee to train"},
					"training_type":  map[string]any{"type": "string", "description": "Training program name"},
					"scheduled_date": map[string]any{"type": "string", "description": "Session date (YYYY-MM-DD)"},
					"instructor":     map[string]any{"type": "string", "description": "Assigned instructor"},
					"duration_hours": map[string]any{"type": "integer", "description": "Session length in hours"},
				},
			},
			ts.scheduleTraining,
			logOpt,
		),
		tool.NewFunctionTool(
			"track_certification",
			"Record or update an employee certification",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id":          map[string]any{"type": "string", "description": "Certified employee"},
					"certification_type":   map[string]any{"type": "string", "description": "Certification name"},
					"certification_number": map[string]any{"type": "string", "description": "Issuing authority number"},
					"issue_date":           map[string]any{"type": "string", "description": "Issue date (YYYY-MM-DD)"},
					"expiry_date":          map[string]any{"type": "string", "description": "Expiry date (YYYY-MM-DD)"},
					"status":               map[string]any{"type": "string", "description": "Certification status"},
				},
			},
			ts.trackCertification,
			logOpt,
		),
		tool.NewFunctionTool(
			"generate_hr_report",
			"Generate an HR summary report",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"report_type": map[string]any{"type": "string", "description": "Report type, e.g. employee_summary"},
				},
			},
			ts.generateHRReport,
			logOpt,
		),
	}
}

func (ts *HRToolset) createEmployeeRecord(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	department := stringArg(args, "department", "General")
	if department != "General" && !validDepartment(department) {
		return errorEnvelope(fmt.Sprintf("Invalid department %q. Must be one of: %s",
			department, strings.Join(ValidDepartments, ", "))), nil
	}

	employeeID := stringArg(args, "employee_id", newRef("EMP"))
	employee := map[string]any{
		"employee_id":    employeeID,
		"name":           stringArg(args, "name", "Unknown"),
		"position":       stringArg(args, "position", "Staff"),
		"department":     department,
		"hire_date":      stringArg(args, "hire_date", today()),
		"certifications": sliceArg(args, "certifications"),
		"status":         "active",
		"created_at":     nowStamp(),
	}
	ts.employees[employeeID] = employee

	return successEnvelope("Employee "+employee["name"].(string)+" created successfully", map[string]any{
		"employee_id": employeeID,
		"details":     employee,
	}), nil
}

func (ts *HRToolset) scheduleTraining(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	trainingID := newRef("TRN")
	employeeID := stringArg(args, "employee_id", "")
	training := map[string]any{
		"training_id":    trainingID,
		"employee_id":    employeeID,
		"training_type":  stringArg(args, "training_type", "General Training"),
		"scheduled_date": stringArg(args, "scheduled_date", today()),
		"instructor":     stringArg(args, "instructor", "TBD"),
		"duration_hours": intArg(args, "duration_hours", 8),
		"status":         "scheduled",
		"created_at":     nowStamp(),
	}
	ts.trainings[employeeID] = append(ts.trainings[employeeID], training)

	return successEnvelope("Training scheduled successfully", map[string]any{
		"training_id": trainingID,
		"details":     training,
	}), nil
}

func (ts *HRToolset) trackCertification(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	certID := newRef("CERT")
	employeeID := stringArg(args, "employee_id", "")
	certification := map[string]any{
		"certification_id":     certID,
		"employee_id":          employeeID,
		"certification_type":   stringArg(args, "certification_type", "Unknown"),
		"certification_number": stringArg(args, "certification_number", ""),
		"issue_date":           stringArg(args, "issue_date", today()),
		"expiry_date":          stringArg(args, "expiry_date", ""),
		"status":               stringArg(args, "status", "active"),
		"created_at":           nowStamp(),
	}
	ts.certifications[employeeID] = append(ts.certifications[employeeID], certification)

	return successEnvelope("Certification tracked successfully", map[string]any{
		"certification_id": certID,
		"details":          certification,
	}), nil
}

func (ts *HRToolset) generateHRReport(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	reportType := stringArg(args, "report_type", "summary")
	reportID := newRef("RPT")

	var content map[string]any
	if reportType == "employee_summary" {
		active := 0
		departments := make(map[string]struct{})
		recentHires := make([]map[string]any, 0)
		cutoff := time.Now().AddDate(0, 0, -30)
		for _, e := range ts.employees {
			if e["status"] == "active" {
				active++
			}
			if d, ok := e["department"].(string); ok {
				departments[d] = struct{}{}
			}
			if hired, err := time.Parse("2006-01-02", stringArg(e, "hire_date", "")); err == nil && hired.After(cutoff) {
				recentHires = append(recentHires, e)
			}
		}
		names := make([]string, 0, len(departments))
		for d := range departments {
			names = append(names, d)
		}
		content = map[string]any{
			"total_employees":  len(ts.employees),
			"active_employees": active,
			"departments":      names,
			"recent_hires":     recentHires,
		}
	} else {
		certs, sessions := 0, 0
		for _, c := range ts.certifications {
			certs += len(c)
		}
		for _, s := range ts.trainings {
			sessions += len(s)
		}
		content = map[string]any{
			"message": "Report type '" + reportType + "' generated",
			"data": map[string]any{
				"employees":      len(ts.employees),
				"certifications": certs,
				"trainings":      sessions,
			},
		}
	}

	return successEnvelope("HR report generated successfully", map[string]any{
		"report_id":    reportID,
		"report_type":  reportType,
		"content":      content,
		"generated_at": nowStamp(),
	}), nil
}
