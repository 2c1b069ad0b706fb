// ABOUTME: HTTP JSON API server for tasks and calendar endpoints
// ABOUTME: Thin request/response glue over storage and the sync core
package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
	"github.com/tmccall/focal/sync"
)

// userHeader carries the authenticated local user id. The real identity
// layer sits in front of this server; we only read its result.
const userHeader = "X-Focal-User"

type Server struct {
	db          *sql.DB
	reader      *sync.Reader
	aggregator  *sync.Aggregator
	trigger     *sync.Trigger
	oauthConfig *oauth2.Config
	continueURL string
	mux         *http.ServeMux
}

func NewServer(database *sql.DB, reader *sync.Reader, aggregator *sync.Aggregator, trigger *sync.Trigger, oauthConfig *oauth2.Config, continueURL string) *Server {
	s := &Server{
		db:          database,
		reader:      reader,
		aggregator:  aggregator,
		trigger:     trigger,
		oauthConfig: oauthConfig,
		continueURL: continueURL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendar/calendars", s.handleListCalendars)
	mux.HandleFunc("GET /calendar/events", s.handleListEvents)
	mux.HandleFunc("POST /calendar/freebusy", s.handleFreeBusy)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
	mux.HandleFunc("DELETE /calendar/connection", s.handleDisconnect)

	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	s.mux = mux
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting API server at http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeSyncError maps sync-core errors onto HTTP statuses.
func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sync.ErrNotConnected):
		writeError(w, http.StatusNotFound, "calendar not connected")
	case errors.Is(err, sync.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "timeMin must be before timeMax")
	case errors.Is(err, sync.ErrCalendarUnavailable):
		writeError(w, http.StatusBadGateway, "calendar unavailable")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type taskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	WorkspaceName string `json:"workspace_name"`
	Status        string `json:"status"`
	DueDate       string `json:"due_date"`
	ClearDueDate  bool   `json:"clear_due_date"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	workspaceName := req.WorkspaceName
	if workspaceName == "" {
		workspaceName = "inbox"
	}
	workspace, err := db.FindWorkspaceByName(s.db, workspaceName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if workspace == nil {
		workspace = &models.Workspace{Name: workspaceName}
		if err := db.CreateWorkspace(s.db, workspace); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	task := &models.Task{
		WorkspaceID: workspace.ID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "due_date must be RFC3339")
			return
		}
		task.DueDate = &due
	}

	if err := db.CreateTask(s.db, task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Sync runs off the request path; this response does not wait for it.
	s.trigger.TaskChanged(userID, nil, task)

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.userID(w, r); !ok {
		return
	}

	var workspaceID *uuid.UUID
	if name := r.URL.Query().Get("workspace"); name != "" {
		workspace, err := db.FindWorkspaceByName(s.db, name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if workspace == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": []*models.Task{}})
			return
		}
		workspaceID = &workspace.ID
	}

	tasks, err := db.ListTasks(s.db, workspaceID, r.URL.Query().Get("status"), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.userID(w, r); !ok {
		return
	}

	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	before := *task

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		switch req.Status {
		case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
			task.Status = req.Status
		default:
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		if req.Status == models.TaskStatusDone && task.CompletedAt == nil {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
	}
	if req.ClearDueDate {
		task.DueDate = nil
	} else if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "due_date must be RFC3339")
			return
		}
		task.DueDate = &due
	}

	if err := db.UpdateTask(s.db, task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.trigger.TaskChanged(userID, &before, task)

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	if err := db.DeleteTask(s.db, task.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.trigger.TaskChanged(userID, task, nil)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return nil, false
	}

	task, err := db.GetTask(s.db, taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}

	return task, true
}
