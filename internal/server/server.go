// Package server exposes the extraction engine over HTTP: one resolution
// pass per request, item returned as JSON.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/inject"
	"github.com/pageloom/pageloom/pkg/page"
)

// Options configures a Server.
type Options struct {
	Injector *inject.Injector
	Catalog  *page.Catalog
	Logger   *log.Logger
}

// Server is the HTTP front end over one Injector.
type Server struct {
	injector *inject.Injector
	catalog  *page.Catalog
	logger   *log.Logger
	router   chi.Router
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		injector: opts.Injector,
		catalog:  opts.Catalog,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/items", s.handleItems)
	r.Post("/extract", s.handleExtract)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type extractRequest struct {
	URL    string            `json:"url"`
	Item   string            `json:"item"`
	Params map[string]string `json:"params,omitempty"`
}

type extractResponse struct {
	Item      any    `json:"item"`
	Fetched   bool   `json:"fetched"`
	RequestID string `json:"request_id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Retry bool   `json:"retry,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleItems lists the extractable item and page-object type names.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"pages": s.catalog.Names()})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var in extractRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if in.URL == "" || in.Item == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url and item are required"})
		return
	}

	itemType, err := s.catalog.ItemByName(in.Item)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
		return
	}

	req := fetch.NewRequest(in.URL)
	req.PageParams = in.Params

	start := time.Now()
	item, res, err := s.injector.Run(r.Context(), req, inject.CallbackForType(itemType))
	if err != nil {
		s.logger.Error("extraction failed", "url", in.URL, "item", in.Item, "error", err)
		writeJSON(w, statusFor(err), errorFor(err))
		return
	}

	s.logger.Info("extracted item",
		"url", in.URL,
		"item", in.Item,
		"fetched", res.Fetched,
		"duration", time.Since(start))
	writeJSON(w, http.StatusOK, extractResponse{Item: item, Fetched: res.Fetched, RequestID: req.ID})
}

func statusFor(err error) int {
	if _, ok := page.IsRetry(err); ok {
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeUnresolvableType, errors.ErrCodeDeadlock, errors.ErrCodeUndeclaredType, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorFor(err error) errorResponse {
	if retry, ok := page.IsRetry(err); ok {
		return errorResponse{Error: retry.Error(), Retry: true}
	}
	return errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
