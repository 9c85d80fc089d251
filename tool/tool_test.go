package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hangarhq/aeromesh/internal/util"
)

// -------------------- Schema & Validation Tests --------------------

type sampleArgs struct {
	ItemID string  `json:"item_id" description:"Inventory item identifier"`
	Count  *int    `json:"count" description:"Optional quantity"`
	Note   string  `json:"note,omitempty" description:"Optional note"`
	Urgent bool    `json:"urgent" description:"Rush handling"`
	Grade  string  `json:"grade" enum:"standard,expedited" description:"Service grade"`
	Weight float64 `json:"weight" description:"Shipment weight"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleArgs{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "item_id")
	assert.Contains(t, props, "count")
	assert.Contains(t, props, "note")

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"item_id", "urgent", "grade", "weight"}, req)

	grade, _ := props["grade"].(map[string]any)
	assert.Equal(t, []any{"standard", "expedited"}, grade["enum"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quantity": map[string]any{"type": "integer"},
		},
		// []any mirrors a JSON decoded schema shape
		"required": []any{"quantity"},
	}

	// Success
	err := util.ValidateParameters(map[string]any{"quantity": 5}, schema)
	assert.NoError(t, err)

	// Missing required
	err = util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "quantity", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	// Wrong type
	err = util.ValidateParameters(map[string]any{"quantity": "many"}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Contains(t, vErr.Message, "expected type integer")
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestValidateParameters_StringRequiredAndEnum(t *testing.T) {
	// Go-built schemas carry required as []string; both shapes must enforce.
	schema := util.CreateSchema(sampleArgs{})
	err := util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)

	args := map[string]any{
		"item_id": "ENG_PART_001",
		"urgent":  false,
		"grade":   "overnight",
		"weight":  12.5,
	}
	err = util.ValidateParameters(args, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "grade", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	args["grade"] = "expedited"
	assert.NoError(t, util.ValidateParameters(args, schema))
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ context.Context, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	result, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tl := NewFunctionTool("test", "Test", params, func(_ context.Context, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tl.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	tl := NewFunctionTool("broken", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		})

	_, err := tl.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "backend unavailable", toolErr.Message)
}

func TestFunctionTool_ToolErrorPassthrough(t *testing.T) {
	custom := NewToolError("lookup", "item not indexed", "NOT_INDEXED")
	tl := NewFunctionTool("lookup", "Lookup",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, custom
		})

	_, err := tl.Call(context.Background(), map[string]any{})
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Same(t, custom, toolErr)
}

func TestFunctionTool_FromStruct(t *testing.T) {
	type args struct {
		RoomID string `json:"room_id" description:"Room identifier"`
	}
	tl := NewFunctionToolFromStruct("book_room", "Book a meeting room", args{},
		func(_ context.Context, a map[string]any) (any, error) {
			return "booked " + a["room_id"].(string), nil
		})

	assert.Equal(t, "book_room", tl.Name())

	_, err := tl.Call(context.Background(), map[string]any{})
	assert.Error(t, err) // room_id required

	out, err := tl.Call(context.Background(), map[string]any{"room_id": "CONF_A1"})
	assert.NoError(t, err)
	assert.Equal(t, "booked CONF_A1", out)
}

func TestToolError_ErrorString(t *testing.T) {
	withCode := NewToolError("check_inventory", "item not found", "EXECUTION_ERROR")
	assert.Equal(t, "tool error [EXECUTION_ERROR] in check_inventory: item not found", withCode.Error())

	noCode := &ToolError{Tool: "check_inventory", Message: "item not found"}
	assert.Equal(t, "tool error in check_inventory: item not found", noCode.Error())
}
