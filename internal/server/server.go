package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kataras/golog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Divas-Gupta30/support-triage/internal/app"
	"github.com/Divas-Gupta30/support-triage/internal/graph"
)

// Service is what the HTTP layer needs from the application.
type Service interface {
	Suggest(ctx context.Context, subject, description string) (string, graph.Route, error)
	CreateTicket(ctx context.Context, subject, description, email string) (string, error)
	Ping(ctx context.Context) error
}

type SuggestionRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type SuggestionResponse struct {
	Answer string      `json:"answer"`
	Route  graph.Route `json:"route"`
}

type TicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

type TicketResponse struct {
	TicketID string `json:"ticket_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the support API.
type Handler struct {
	svc     Service
	timeout time.Duration
}

// NewRouter returns the API routes plus /health and /metrics. A zero timeout
// leaves request contexts untouched.
func NewRouter(svc Service, timeout time.Duration) *mux.Router {
	h := &Handler{svc: svc, timeout: timeout}

	router := mux.NewRouter()
	router.HandleFunc("/get_suggestion", h.handleGetSuggestion).Methods("POST")
	router.HandleFunc("/create_ticket", h.handleCreateTicket).Methods("POST")
	router.HandleFunc("/health", h.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())
	return router
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) handleGetSuggestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("POST", "/get_suggestion").Observe(time.Since(start).Seconds())
	}()

	var req SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestsTotal.WithLabelValues("POST", "/get_suggestion", "error").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	answer, route, err := h.svc.Suggest(ctx, req.Subject, req.Description)
	if err != nil {
		requestsTotal.WithLabelValues("POST", "/get_suggestion", "error").Inc()
		if errors.Is(err, app.ErrNotInitialized) {
			writeError(w, http.StatusInternalServerError, "Suggestion system not initialized")
			return
		}
		golog.Errorf("Error during suggestion graph invocation: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process the suggestion request.")
		return
	}

	requestsTotal.WithLabelValues("POST", "/get_suggestion", "success").Inc()
	writeJSONResponse(w, http.StatusOK, SuggestionResponse{Answer: answer, Route: route})
}

func (h *Handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("POST", "/create_ticket").Observe(time.Since(start).Seconds())
	}()

	var req TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestsTotal.WithLabelValues("POST", "/create_ticket", "error").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, err := h.svc.CreateTicket(ctx, req.Subject, req.Description, req.Email)
	if err != nil {
		requestsTotal.WithLabelValues("POST", "/create_ticket", "error").Inc()
		if errors.Is(err, app.ErrNotInitialized) {
			writeError(w, http.StatusInternalServerError, "Triage system not initialized")
			return
		}
		golog.Errorf("Error during triage graph invocation: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create the ticket.")
		return
	}

	requestsTotal.WithLabelValues("POST", "/create_ticket", "success").Inc()
	writeJSONResponse(w, http.StatusOK, TicketResponse{TicketID: id})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		golog.Warnf("Health check failed: %v", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, errorResponse{Error: msg})
}

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
