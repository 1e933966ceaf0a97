package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codeassist-ai/codeassist/internal/fileio"
	"github.com/codeassist-ai/codeassist/internal/logging"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/output"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

// maxUploadBytes caps multipart uploads.
const maxUploadBytes = 10 << 20 // 10 MiB

// sessionResponse is the wire form of a session.
type sessionResponse struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivity   time.Time `json:"lastActivity"`
	MessageCount   int       `json:"messageCount"`
	Files          []string  `json:"files"`
	PrimaryFile    string    `json:"primaryFile,omitempty"`
	RecentMentions []string  `json:"recentMentions,omitempty"`
}

// sendMessageRequest is the body for POST /session/{id}/message.
//
// FilePath names an already-uploaded file to attach with the turn; the
// optional Filename overrides the name under which it is attached (uploads
// are stored under a random prefix).
type sendMessageRequest struct {
	Message     string `json:"message"`
	FilePath    string `json:"filePath,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Description string `json:"description,omitempty"`
}

type attachFileRequest struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

// createSession creates a new session. If the model has never been
// initialized, creation kicks off a background load so the first message
// finds it ready, matching the lazy-init contract: creation itself never
// blocks on the load.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := s.orchestrator.StartSession()

	if s.models.State() == model.StateUninitialized {
		go func() {
			if err := s.models.Initialize(context.Background()); err != nil {
				logging.Error().Err(err).Msg("background model initialization failed")
			}
		}()
	}

	logging.Info().Str("session", id).Msg("session created")
	s.writeSession(w, http.StatusCreated, id)
}

// getSession returns a session summary.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, http.StatusOK, chi.URLParam(r, "sessionID"))
}

func (s *Server) writeSession(w http.ResponseWriter, status int, id string) {
	sess, err := s.store.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	conv, err := s.orchestrator.Conversation(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	files := make([]string, 0, conv.FileCount())
	for name := range conv.Files() {
		files = append(files, name)
	}
	sort.Strings(files)

	writeJSON(w, status, sessionResponse{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastActivity:   sess.LastActivity,
		MessageCount:   len(conv.History()),
		Files:          files,
		PrimaryFile:    conv.PrimaryFile(),
		RecentMentions: conv.RecentlyMentioned(),
	})
}

// deleteSession ends a session. Idempotent: deleting an unknown session
// still returns 204.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	s.orchestrator.EndSession(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// sendMessage handles one user turn. The response carries the full
// assistant reply; chunk-level streaming is delivered over /event.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "message is required")
		return
	}

	var newFile *types.ProjectFile
	if req.FilePath != "" {
		path, ok := s.uploadPath(req.FilePath)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest,
				"filePath must point inside the upload directory")
			return
		}
		content, err := fileio.NewLocal("").ReadFile(path)
		if err != nil {
			if errors.Is(err, fileio.ErrNotFound) {
				writeError(w, http.StatusNotFound, ErrCodeFileNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
			return
		}
		name := req.Filename
		if name == "" {
			name = filepath.Base(req.FilePath)
		}
		newFile = &types.ProjectFile{
			Filename:    name,
			Content:     content,
			Description: req.Description,
		}
	}

	sink := output.NewBusSink(s.bus, sessionID)
	reply, err := s.orchestrator.HandleMessage(r.Context(), sessionID, req.Message, newFile, sink)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionID": sessionID,
		"response":  reply,
	})
}

// uploadPath resolves a client-supplied path against the upload directory
// and rejects anything escaping it. Relative paths are taken relative to
// the upload directory; only uploaded files may be attached by path.
func (s *Server) uploadPath(p string) (string, bool) {
	base, err := filepath.Abs(s.uploads.Dir())
	if err != nil {
		return "", false
	}

	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(base, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// attachFile attaches an inline project file to the session.
func (s *Server) attachFile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req attachFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "filename is required")
		return
	}

	file := types.ProjectFile{
		Filename:    req.Filename,
		Content:     req.Content,
		Description: req.Description,
	}
	if err := s.orchestrator.AddFile(sessionID, file); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionID": sessionID,
		"filename":  req.Filename,
	})
}

// detachFile removes a project file from the session.
func (s *Server) detachFile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filename := chi.URLParam(r, "filename")

	removed, err := s.orchestrator.RemoveFile(sessionID, filename)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, ErrCodeFileNotFound, "file not attached: "+filename)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// modelStatus reports the model lifecycle state.
func (s *Server) modelStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"state": s.models.State().String(),
		"ready": s.models.IsReady(),
	}
	if err := s.models.Err(); err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// initializeModel triggers a model load. The winning caller performs the
// load and gets its outcome; a caller arriving while a load is in flight
// gets 202 and polls /model/status.
func (s *Server) initializeModel(w http.ResponseWriter, r *http.Request) {
	if err := s.models.Initialize(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if s.models.IsInitializing() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{
		"state": s.models.State().String(),
		"ready": s.models.IsReady(),
	})
}

// uploadFile stores a multipart upload and returns the stored path, which
// a later sendMessage can reference via filePath.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "file field is required")
		return
	}
	defer file.Close()

	path, err := s.uploads.Save(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	logging.Info().Str("filename", header.Filename).Str("path", path).Msg("file uploaded")
	writeJSON(w, http.StatusCreated, map[string]any{
		"filename": header.Filename,
		"path":     path,
	})
}

// health is a liveness probe.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
		"model":    s.models.State().String(),
	})
}
