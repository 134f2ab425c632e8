package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"genia/assistant/contract"
	"genia/rag"
	"genia/todo"
)

const maxUploadBytes = 32 << 20

type chatRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
}

type uploadResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.assistant.Answer(r.Context(), ownerOrDefault(req.UserID), req.Question)
	if err != nil {
		writeAnswerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is unsupported by response writer")
		return
	}

	sub := s.streams.Register()
	defer sub.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, open := <-sub.C:
			if !open {
				return
			}
			if _, err := io.WriteString(w, payload+"\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !rag.Supported(name) {
		writeError(w, http.StatusBadRequest, "unsupported document type")
		return
	}

	path := filepath.Join(s.uploadDir, name)
	if err := saveUpload(path, file); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to persist upload")
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	chunks, err := s.ingestor.Ingest(r.Context(), path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to index document")
		writeError(w, http.StatusInternalServerError, "failed to index document")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Status: "indexed", Chunks: chunks})
}

func (s *Server) handleTodos(w http.ResponseWriter, r *http.Request) {
	owner := ownerOrDefault(r.URL.Query().Get("user_id"))

	tasks, err := s.tasks.List(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("failed to list tasks")
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func ownerOrDefault(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return defaultOwner
	}
	return owner
}

func saveUpload(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func writeAnswerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contract.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contract.ErrModelInvoke), errors.Is(err, contract.ErrRetrieval):
		log.Error().Err(err).Msg("upstream failure while answering")
		writeError(w, http.StatusBadGateway, "upstream dependency failed")
	default:
		log.Error().Err(err).Msg("failed to answer question")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}
