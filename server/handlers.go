package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/registry"
	"github.com/hangarhq/aeromesh/runner"
	"github.com/hangarhq/aeromesh/task"
	"github.com/hangarhq/aeromesh/tenant"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	AgentType      string `json:"agent_type"`
	TenantID       string `json:"tenant_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// ChatResponse carries the terminal outcome of one submission.
type ChatResponse struct {
	Response      string         `json:"response"`
	AgentType     string         `json:"agent_type"`
	AgentName     string         `json:"agent_name"`
	TaskID        string         `json:"task_id"`
	Status        string         `json:"status"`
	ExecutionTime float64        `json:"execution_time"`
	Metadata      map[string]any `json:"metadata"`
}

// TaskInputRequest is the body of POST /tasks/:id/input.
type TaskInputRequest struct {
	Input string `json:"input" binding:"required"`
}

func (s *Server) handleIndex(c *gin.Context) {
	agents := make([]string, 0)
	for _, e := range s.runner.ListAgents() {
		agents = append(agents, e.AgentType)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "aeromesh multi-agent api",
		"endpoints": gin.H{
			"chat":    "/chat",
			"agents":  "/agents",
			"tenants": "/tenants",
			"health":  "/health",
		},
		"available_agents": agents,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"agents": len(s.runner.ListAgents()),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleChat(c *gin.Context) {
	s.chat(c, "")
}

func (s *Server) handleAgentChat(c *gin.Context) {
	s.chat(c, c.Param("type"))
}

func (s *Server) chat(c *gin.Context, agentOverride string) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = tenant.DefaultID
	}
	ten, err := s.tenants.Get(tenantID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	agentType := req.AgentType
	if agentOverride != "" {
		agentType = agentOverride
	}
	if agentType == "" {
		agentType = ten.DefaultAgent
	}
	if !ten.Allows(agentType) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("agent %s is not enabled for tenant %s", agentType, tenantID)})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "system"
	}

	start := time.Now()
	final, err := s.runner.Submit(c.Request.Context(), agentType, core.Request{
		Message:        req.Message,
		TenantID:       tenantID,
		ConversationID: req.ConversationID,
		UserID:         userID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:      responseText(final),
		AgentType:     agentType,
		AgentName:     s.agentName(agentType),
		TaskID:        final.ID,
		Status:        string(final.Status),
		ExecutionTime: time.Since(start).Seconds(),
		Metadata: map[string]any{
			"tenant_id":       tenantID,
			"agent_type":      agentType,
			"status":          string(final.Status),
			"artifacts_count": len(final.Artifacts),
		},
	})
}

func (s *Server) handleTaskStatus(c *gin.Context) {
	t, err := s.runner.Status(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleTaskInput(c *gin.Context) {
	var req TaskInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.runner.Resume(c.Param("id"), req.Input); err != nil {
		if errors.Is(err, runner.ErrTaskNotActive) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleTaskCancel(c *gin.Context) {
	if err := s.runner.Cancel(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleAgents(c *gin.Context) {
	tenants := make([]string, 0)
	for _, t := range s.tenants.List() {
		tenants = append(tenants, t.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"agents":  s.runner.ListAgents(),
		"tenants": tenants,
		"status":  "operational",
	})
}

func (s *Server) handleAgentDetail(c *gin.Context) {
	agentType := c.Param("type")
	for _, e := range s.runner.ListAgents() {
		if e.AgentType == agentType {
			c.JSON(http.StatusOK, e)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("agent %s not found", agentType)})
}

func (s *Server) handleTenants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tenants": s.tenants.List()})
}

func (s *Server) handleTenantDetail(c *gin.Context) {
	ten, err := s.tenants.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ten)
}

// writeError maps runner and registry errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrUnknownAgentType),
		errors.Is(err, tenant.ErrUnknownTenant),
		errors.Is(err, task.ErrNotFound),
		errors.Is(err, runner.ErrTaskNotActive):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, runner.ErrConversationBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("server.request.failed", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) agentName(agentType string) string {
	for _, e := range s.runner.ListAgents() {
		if e.AgentType == agentType {
			return e.Name
		}
	}
	return agentType
}

// responseText extracts the chat answer from a terminal task.
func responseText(t *core.Task) string {
	switch t.Status {
	case core.StatusCompleted:
		if content := primaryContent(t); content != "" {
			return content
		}
		return "I apologize, but I couldn't process your request."
	case core.StatusFailed:
		if t.Error != nil {
			return "I encountered an error: " + t.Error.Message
		}
		return "I encountered an error: unknown error"
	case core.StatusCanceled:
		return "The request was canceled before completion."
	default:
		return "I apologize, but I couldn't process your request."
	}
}

// primaryContent renders the first artifact by name order.
func primaryContent(t *core.Task) string {
	art, ok := t.PrimaryArtifact()
	if !ok {
		return ""
	}
	return renderContent(art.Content)
}

func renderContent(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case map[string]any:
		if s, ok := c["summary"].(string); ok {
			return s
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
