// Package server exposes the assistant over HTTP: chat, live todo
// updates, document upload, and the raw task list.
package server

import (
	"context"
	"errors"
	"net/http"

	"genia/assistant/contract"
	"genia/events"
	"genia/todo"
)

const defaultOwner = "local"

var (
	errNilAnswerer = errors.New("server: answerer is required")
	errNilTasks    = errors.New("server: task lister is required")
	errNilIngestor = errors.New("server: ingestor is required")
	errNilStreams  = errors.New("server: stream registry is required")
)

// Answerer produces a grounded answer for an owner's question.
type Answerer interface {
	Answer(ctx context.Context, owner string, question string) (contract.Answer, error)
}

// TaskLister returns every task belonging to an owner.
type TaskLister interface {
	List(ctx context.Context, owner string) ([]todo.Task, error)
}

// DocumentIngestor chunks, embeds, and indexes a document on disk,
// returning the number of chunks stored.
type DocumentIngestor interface {
	Ingest(ctx context.Context, path string) (int, error)
}

// Streams hands out live subscriptions to todo update events.
type Streams interface {
	Register() *events.Subscription
}

type Server struct {
	assistant Answerer
	tasks     TaskLister
	ingestor  DocumentIngestor
	streams   Streams
	uploadDir string
}

func New(assistant Answerer, tasks TaskLister, ingestor DocumentIngestor, streams Streams, uploadDir string) (*Server, error) {
	if assistant == nil {
		return nil, errNilAnswerer
	}
	if tasks == nil {
		return nil, errNilTasks
	}
	if ingestor == nil {
		return nil, errNilIngestor
	}
	if streams == nil {
		return nil, errNilStreams
	}

	return &Server{
		assistant: assistant,
		tasks:     tasks,
		ingestor:  ingestor,
		streams:   streams,
		uploadDir: uploadDir,
	}, nil
}

// Handler builds the route table wrapped in permissive CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /todos", s.handleTodos)
	return allowAllCORS(mux)
}

func allowAllCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
