package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vespa"
)

// maxUploadBytes caps one uploaded file.
const maxUploadBytes = 64 << 20

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// A fresh session id is minted when the client does not send one; the
	// client carries it forward to continue the conversation.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.logger.Debug("chat request", zap.String("session_id", sessionID))

	answer, err := s.engine.Answer(r.Context(), req.Question, sessionID)
	if err != nil {
		s.logger.Error("chat failed", zap.String("session_id", sessionID), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chatResponse{Answer: answer, SessionID: sessionID})
}

type ingestRequest struct {
	Text         string `json:"text"`
	ResourceType string `json:"resource_type"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resource, err := s.pipeline.Ingest(r.Context(), req.Text, req.ResourceType)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"resource_id":   resource.ID,
		"resource_type": resource.Type,
		"status":        "ingested",
	})
}

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	text, resourceType, err := extract.NewExtractor().ExtractBytes(content, ext)
	if err != nil {
		s.logger.Error("extraction failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	resource, err := s.pipeline.Ingest(r.Context(), text, resourceType)
	if err != nil {
		s.logger.Error("ingest failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"resource_id":   resource.ID,
		"resource_type": resource.Type,
		"filename":      header.Filename,
		"status":        "ingested",
	})
}

func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("remove session request", zap.String("session_id", id))
	if err := s.engine.RemoveSession(id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "removed"})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("purge requested")
	if err := s.pipeline.PurgeAll(r.Context()); err != nil {
		s.logger.Error("purge failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"sessions": s.sessions.Len(),
	}
	if s.manifest != nil {
		if n, err := s.manifest.Count(r.Context()); err == nil {
			resp["tracked_files"] = n
		}
	}
	storeUp := true
	if _, err := s.store.Query(r.Context(), vespa.QueryBody{
		YQL:  "select * from resources where true limit 1",
		Hits: 1,
	}); err != nil {
		storeUp = false
	}
	resp["store_reachable"] = storeUp
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondErr maps domain errors onto HTTP status codes.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case models.IsNotFound(err):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
