package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cadre-oss/brains/internal/agent"
	"github.com/cadre-oss/brains/internal/crew"
	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/service"
)

// --- Helpers ---

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := s.svc.Health(r.Context())
	status := "ok"
	for _, v := range checks {
		if v != "ok" {
			status = "degraded"
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":   status,
		"name":     s.svc.Config().Name,
		"provider": s.svc.ProviderName(),
		"checks":   checks,
	})
}

// --- Agents ---

type agentView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Kind          string   `json:"type"`
	Domain        string   `json:"domain,omitempty"`
	Expertise     []string `json:"expertise"`
	Collaborators []string `json:"collaborators,omitempty"`
	IsCoordinator bool     `json:"is_project_brain"`
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	reg := s.svc.Registry()
	profiles := s.svc.Profiles()
	agents := make([]agentView, 0, len(profiles))
	for _, p := range profiles {
		agents = append(agents, agentView{
			ID:            p.ID,
			Name:          p.DisplayName(),
			Description:   p.Description,
			Kind:          string(p.Kind),
			Domain:        p.Domain,
			Expertise:     p.Keywords,
			Collaborators: p.Collaborators,
			IsCoordinator: reg.IsCoordinator(p.ID),
		})
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"agents":      agents,
		"coordinator": reg.Coordinator(),
		"multi_agent": s.svc.MultiAgentDefault(),
	})
}

// --- Chat ---

type chatRequest struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	AgentID     string `json:"agent_id"`
	TargetAgent string `json:"target_agent"`
	MultiAgent  *bool  `json:"multi_agent"`
}

type specialistView struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Content   string `json:"content"`
	Error     string `json:"error,omitempty"`
}

type chatReply struct {
	Content        string            `json:"content"`
	Error          string            `json:"error,omitempty"`
	Mode           string            `json:"mode"`
	RunID          string            `json:"run_id,omitempty"`
	ProjectSummary *string           `json:"project_summary"`
	Specialists    []specialistView  `json:"specialists"`
	Metadata       map[string]string `json:"metadata"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonError(w, http.StatusBadRequest, "消息不能为空")
		return
	}
	reg := s.svc.Registry()
	if req.AgentID != "" && !reg.Has(req.AgentID) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("agent not found: %s", req.AgentID))
		return
	}

	multi := s.svc.MultiAgentDefault()
	if req.MultiAgent != nil {
		multi = *req.MultiAgent
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	reply := chatReply{Specialists: []specialistView{}}
	var resp *agent.ChatResponse
	if multi {
		res := s.svc.Orchestrate(ctx, service.OrchestrateInput{
			UserID:     req.UserID,
			SessionID:  req.SessionID,
			Message:    req.Message,
			TargetRole: req.TargetAgent,
		})
		resp = res.FinalResponse
		reply.Mode = res.Mode
		reply.RunID = res.RunID
		reply.ProjectSummary = &res.ProjectSummary
		reply.Specialists = s.specialists(res.SpecialistOutputs)
	} else {
		resp = s.svc.Chat(ctx, service.ChatInput{
			UserID:    req.UserID,
			SessionID: req.SessionID,
			RoleID:    req.AgentID,
			Message:   req.Message,
		})
		reply.Mode = "single"
	}

	reply.Content = resp.Content
	reply.Error = resp.Error
	scope, domain := reg.ScopeFor(resp.RoleID)
	reply.Metadata = map[string]string{
		"user_id":        resp.UserID,
		"agent_id":       resp.RoleID,
		"session_id":     resp.SessionID,
		"memories_count": strconv.Itoa(resp.MemoryCount),
		"memory_used":    strconv.FormatBool(resp.MemoryUsed),
		"collaborators":  strings.Join(resp.Collaborators, ", "),
		"target_agent":   req.TargetAgent,
		"memory_type":    string(scope),
		"expert_domain":  domain,
	}
	jsonResponse(w, http.StatusOK, reply)
}

func (s *Server) specialists(outputs []crew.SpecialistResult) []specialistView {
	reg := s.svc.Registry()
	views := make([]specialistView, 0, len(outputs))
	for _, o := range outputs {
		views = append(views, specialistView{
			AgentID:   o.RoleID,
			AgentName: reg.Name(o.RoleID),
			Content:   o.Content,
			Error:     o.Error,
		})
	}
	return views
}

// --- Users ---

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.svc.Stats(r.Context(), r.PathValue("id")))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	s.svc.ClearHistory(userID)
	jsonResponse(w, http.StatusOK, map[string]string{"status": "cleared", "user_id": userID})
}

func (s *Server) handleUserMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	records, err := s.svc.Memories(r.Context(), service.MemoryQuery{
		UserID: r.PathValue("id"),
		RoleID: q.Get("agent_id"),
		Query:  q.Get("q"),
		Limit:  limit,
	})
	if err != nil {
		status := http.StatusBadGateway
		if brerrors.HasCode(err, brerrors.CodeProfileNotFound) {
			status = http.StatusNotFound
		}
		jsonError(w, status, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"memories": records, "count": len(records)})
}

// --- Metrics ---

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, s.svc.Metrics())
}

// --- SSE Events ---

func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, "")
}

func (s *Server) handleSSEEventsFiltered(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, r.PathValue("runID"))
}

func (s *Server) serveSSE(w http.ResponseWriter, r *http.Request, runID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	client := s.broker.Subscribe(r.Context(), clientID, runID)

	// Send initial connected event.
	data, _ := json.Marshal(map[string]string{"type": "connected", "client_id": clientID})
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()

	for ev := range client.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
