package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/logging"
	"github.com/teemow/inboxsizer/internal/review"
	"github.com/teemow/inboxsizer/internal/tools/batch"
)

const maxLabelRequestBytes = 1 << 20

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Account       string `json:"account"`
}

// AuthResponse is returned by GET /api/auth.
type AuthResponse struct {
	URL string `json:"url"`
}

// LabelRequest is the body of POST /api/label.
type LabelRequest struct {
	LabelsToApply []review.Decision `json:"labelsToApply"`
	BatchID       string            `json:"batchId,omitempty"`
}

// LabelResponse is returned by POST /api/label.
type LabelResponse struct {
	Success bool `json:"success"`
	batch.BatchResult
}

type errorResponse struct {
	Error string `json:"error"`
}

// API serves the review JSON endpoints used by browser front ends.
type API struct {
	sc *ServerContext
}

// NewAPI creates the review API.
func NewAPI(sc *ServerContext) *API {
	return &API{sc: sc}
}

// Register adds the API routes to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", a.handleStatus)
	mux.HandleFunc("GET /api/auth", a.handleAuth)
	mux.HandleFunc("GET /api/emails", a.handleEmails)
	mux.HandleFunc("POST /api/label", a.handleLabel)
}

func (a *API) account(r *http.Request) string {
	if account := r.URL.Query().Get("account"); account != "" {
		return account
	}
	return a.sc.DefaultAccount()
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	account := a.account(r)
	writeJSON(w, http.StatusOK, StatusResponse{
		Authenticated: a.sc.HasToken(account),
		Account:       account,
	})
}

func (a *API) handleAuth(w http.ResponseWriter, r *http.Request) {
	url := a.sc.AuthURL(a.account(r))
	if url == "" {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "OAuth client is not configured"})
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{URL: url})
}

func (a *API) handleEmails(w http.ResponseWriter, r *http.Request) {
	account := a.account(r)
	if !a.sc.HasToken(account) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}
	svc, err := a.sc.ReviewService(account)
	if err != nil {
		a.sc.Logger().Error("failed to create review service", logging.Account(account), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch emails"})
		return
	}

	b, err := svc.FetchBatch(r.Context(), r.URL.Query().Get("pageToken"))
	if err != nil {
		a.sc.Logger().Error("failed to fetch batch", logging.Account(account), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch emails"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) handleLabel(w http.ResponseWriter, r *http.Request) {
	account := a.account(r)
	if !a.sc.HasToken(account) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}

	var req LabelRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxLabelRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.LabelsToApply) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "labelsToApply is required"})
		return
	}
	for i := range req.LabelsToApply {
		if req.LabelsToApply[i].ID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "every decision needs an id"})
			return
		}
		if req.LabelsToApply[i].BatchID == "" {
			req.LabelsToApply[i].BatchID = req.BatchID
		}
	}

	svc, err := a.sc.ReviewService(account)
	if err != nil {
		a.sc.Logger().Error("failed to create review service", logging.Account(account), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to apply labels"})
		return
	}

	summary := batch.Summarize(svc.Apply(r.Context(), req.LabelsToApply))
	writeJSON(w, http.StatusOK, LabelResponse{
		Success:     summary.Failed == 0,
		BatchResult: summary,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Debug("failed to write response", logging.Err(err))
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// InstrumentHandler records http_requests_total for every request served by
// mux. The route pattern, not the raw path, is used as the path label.
func InstrumentHandler(metrics *instrumentation.Metrics, mux *http.ServeMux) http.Handler {
	if metrics == nil {
		return mux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		_, pattern := mux.Handler(r)
		mux.ServeHTTP(rec, r)

		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Context(), r.Method, pattern, rec.status, time.Since(start))
	})
}
