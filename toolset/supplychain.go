package toolset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/tool"
)

// Part describes a stocked aviation part.
type Part struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
}

// Supplier describes an approved parts supplier.
type Supplier struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Rating   string `json:"rating"`
	Location string `json:"location"`
}

// Reference datasets for the supply chain tools.
var (
	Parts = map[string]Part{
		"ENG_PART_001": {Name: "Turbine Blade Set", Category: "Engine", CurrentStock: 15, MinStock: 5},
		"LAND_GEAR_01": {Name: "Landing Gear Assembly", Category: "Landing System", CurrentStock: 3, MinStock: 2},
		"AVIONICS_A1":  {Name: "Navigation Computer", Category: "Avionics", CurrentStock: 8, MinStock: 3},
		"HYDRAULIC_P1": {Name: "Hydraulic Pump", Category: "Hydraulics", CurrentStock: 12, MinStock: 4},
		"BRAKE_DISC_1": {Name: "Carbon Brake Disc", Category: "Braking System", CurrentStock: 20, MinStock: 8},
	}

	Suppliers = map[string]Supplier{
		"SUP_001": {Name: "AeroTech Industries", Status: "active", Rating: "A", Location: "Seattle, WA"},
		"SUP_002": {Name: "Aviation Parts Direct", Status: "active", Rating: "B+", Location: "Miami, FL"},
		"SUP_003": {Name: "Global Aviation Supply", Status: "pending", Rating: "A-", Location: "Dallas, TX"},
	}
)

// SupplyChainToolset manages inventory, orders and suppliers against a
// seeded parts dataset.
type SupplyChainToolset struct {
	mu        sync.Mutex
	inventory map[string]Part
	suppliers map[string]Supplier
	orders    map[string]map[string]any

	logger logging.Logger
}

// SupplyChainToolsetOptions configures a SupplyChainToolset.
type SupplyChainToolsetOptions struct {
	Logger logging.Logger
}

// NewSupplyChainToolset creates a toolset seeded with the reference parts
// and supplier data.
func NewSupplyChainToolset(optFns ...func(o *SupplyChainToolsetOptions)) *SupplyChainToolset {
	opts := SupplyChainToolsetOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	inventory := make(map[string]Part, len(Parts))
	for id, part := range Parts {
		inventory[id] = part
	}
	suppliers := make(map[string]Supplier, len(Suppliers))
	for id, supplier := range Suppliers {
		suppliers[id] = supplier
	}
	return &SupplyChainToolset{
		inventory: inventory,
		suppliers: suppliers,
		orders:    make(map[string]map[string]any),
		logger:    opts.Logger,
	}
}

// Tools returns the supply chain capabilities as schema validated tools.
func (ts *SupplyChainToolset) Tools() []tool.Tool {
	logOpt := func(o *tool.FunctionToolOptions) { o.Logger = ts.logger }
	return []tool.Tool{
		tool.NewFunctionTool(
			"track_inventory",
			"Track current stock levels for an aviation part",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"part_number": map[string]any{"type": "string", "description": "Part identifier, e.g. ENG_PART_001"},
					"location":    map[string]any{"type": "string", "description": "Warehouse location"},
					"check_type":  map[string]any{"type": "string", "description": "Kind of stock check"},
				},
			},
			ts.trackInventory,
			logOpt,
		),
		tool.NewFunctionTool(
			"order_parts",
			"Place a parts order with a supplier",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"part_number":   map[string]any{"type": "string", "description": "Part to order"},
					"quantity":      map[string]any{"type": "integer", "description": "Units to order"},
					"supplier_id":   map[string]any{"type": "string", "description": "Supplier identifier, e.g. SUP_001"},
					"priority":      map[string]any{"type": "string", "description": "Order priority"},
					"delivery_date": map[string]any{"type": "string", "description": "Requested delivery date (YYYY-MM-DD)"},
					"cost_center":   map[string]any{"type": "string", "description": "Charging cost center"},
				},
			},
			ts.orderParts,
			logOpt,
		),
		tool.NewFunctionTool(
			"check_supplier_status",
			"Check an approved supplier's status and performance",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"supplier_id": map[string]any{"type": "string", "description": "Supplier identifier"},
					"check_type":  map[string]any{"type": "string", "description": "Kind of status check"},
				},
			},
			ts.checkSupplierStatus,
			logOpt,
		),
		tool.NewFunctionTool(
			"generate_inventory_report",
			"Generate an inventory or supply chain report",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"report_type": map[string]any{"type": "string", "description": "Report type, e.g. low_stock_alert"},
				},
			},
			ts.generateInventoryReport,
			logOpt,
		),
	}
}

func (ts *SupplyChainToolset) trackInventory(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	partNumber := stringArg(args, "part_number", "ENG_PART_001")
	location := stringArg(args, "location", "Main Warehouse")

	var details map[string]any
	if part, ok := ts.inventory[partNumber]; ok {
		status := "normal"
		if part.CurrentStock <= part.MinStock {
			status = "low"
		}
		details = map[string]any{
			"part_number":    partNumber,
			"part_name":      part.Name,
			"category":       part.Category,
			"current_stock":  part.CurrentStock,
			"minimum_stock":  part.MinStock,
			"location":       location,
			"stock_status":   status,
			"reorder_needed": part.CurrentStock <= part.MinStock,
		}
	} else {
		details = map[string]any{
			"part_number": partNumber,
			"status":      "not_found",
			"message":     fmt.Sprintf("Part %s not found in inventory", partNumber),
		}
	}

	return successEnvelope(fmt.Sprintf("Inventory tracked for part %s", partNumber), map[string]any{
		"details": details,
	}), nil
}

func (ts *SupplyChainToolset) orderParts(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	orderID := newRef("ORDER")
	partNumber := stringArg(args, "part_number", "ENG_PART_001")
	quantity := intArg(args, "quantity", 1)
	supplierID := stringArg(args, "supplier_id", "SUP_001")

	partName := "Unknown Part"
	if part, ok := ts.inventory[partNumber]; ok {
		partName = part.Name
	}
	supplierName := "Unknown Supplier"
	if supplier, ok := ts.suppliers[supplierID]; ok {
		supplierName = supplier.Name
	}

	order := map[string]any{
		"order_id":      orderID,
		"part_number":   partNumber,
		"part_name":     partName,
		"quantity":      quantity,
		"supplier_id":   supplierID,
		"supplier_name": supplierName,
		"priority":      stringArg(args, "priority", "normal"),
		"delivery_date": stringArg(args, "delivery_date", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		"cost_center":   stringArg(args, "cost_center", "Maintenance"),
		// Flat-rate estimate until supplier pricing feeds are wired up
		"estimated_cost": quantity * 1500,
		"status":         "pending",
		"created_at":     nowStamp(),
	}
	ts.orders[orderID] = order

	return successEnvelope("Order placed successfully", map[string]any{
		"order_id": orderID,
		"details":  order,
	}), nil
}

func (ts *SupplyChainToolset) checkSupplierStatus(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	supplierID := stringArg(args, "supplier_id", "SUP_001")

	var details map[string]any
	if supplier, ok := ts.suppliers[supplierID]; ok {
		activeOrders := 0
		for _, order := range ts.orders {
			if order["supplier_id"] == supplierID {
				activeOrders++
			}
		}
		details = map[string]any{
			"supplier_id":         supplierID,
			"supplier_name":       supplier.Name,
			"status":              supplier.Status,
			"rating":              supplier.Rating,
			"location":            supplier.Location,
			"active_orders":       activeOrders,
			"last_delivery":       "2024-01-15",
			"on_time_performance": "92%",
		}
	} else {
		details = map[string]any{
			"supplier_id": supplierID,
			"status":      "not_found",
			"message":     fmt.Sprintf("Supplier %s not found", supplierID),
		}
	}

	return successEnvelope(fmt.Sprintf("Supplier status checked for %s", supplierID), map[string]any{
		"details": details,
	}), nil
}

func (ts *SupplyChainToolset) generateInventoryReport(_ context.Context, args map[string]any) (any, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	reportType := stringArg(args, "report_type", "low_stock_alert")
	reportID := newRef("RPT")

	var content map[string]any
	if reportType == "low_stock_alert" {
		lowStock := make([]map[string]any, 0)
		for partID, part := range ts.inventory {
			if part.CurrentStock <= part.MinStock {
				lowStock = append(lowStock, map[string]any{
					"part_number":   partID,
					"name":          part.Name,
					"current_stock": part.CurrentStock,
					"minimum_stock": part.MinStock,
					"shortage":      part.MinStock - part.CurrentStock,
				})
			}
		}
		pending := 0
		for _, order := range ts.orders {
			if order["status"] == "pending" {
				pending++
			}
		}
		content = map[string]any{
			"total_parts":     len(ts.inventory),
			"low_stock_items": lowStock,
			"low_stock_count": len(lowStock),
			"total_orders":    len(ts.orders),
			"pending_orders":  pending,
		}
	} else {
		content = map[string]any{
			"message": "Report type '" + reportType + "' generated",
			"data": map[string]any{
				"inventory_items": len(ts.inventory),
				"suppliers":       len(ts.suppliers),
				"orders":          len(ts.orders),
			},
		}
	}

	return successEnvelope("Supply chain report generated successfully", map[string]any{
		"report_id":    reportID,
		"report_type":  reportType,
		"content":      content,
		"generated_at": nowStamp(),
	}), nil
}
