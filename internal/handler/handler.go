package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/mortgage-service/internal/integrations/cbr"
	"github.com/Dan9191/mortgage-service/internal/middleware"
	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/service"
	"github.com/Dan9191/mortgage-service/internal/session"
	"github.com/Dan9191/mortgage-service/internal/synchronizer"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Plain-text replies of the order form
const (
	orderSuccess = "SUCCESS"
	orderFailure = "FAILURE"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc      *service.Service
	sessions *session.Manager
	keyRate  *cbr.KeyRateCache
	log      *logrus.Logger
}

func NewHandler(svc *service.Service, sessions *session.Manager, keyRate *cbr.KeyRateCache, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, keyRate: keyRate, log: log}
}

// Routes registers every endpoint on r; protected routes go through auth
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/programs", h.Programs).Methods("GET")
	r.HandleFunc("/calculate", h.Calculate).Methods("POST")
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE")
	r.HandleFunc("/sessions/{id}/events", h.SessionEvent).Methods("POST")
	r.HandleFunc("/sessions/{id}/commit", h.SessionCommit).Methods("POST")
	r.HandleFunc("/sessions/{id}/schedule", h.SessionSchedule).Methods("GET")
	r.HandleFunc("/mail.php", h.SubmitOrder).Methods("POST")
	r.HandleFunc("/orders", h.SubmitOrder).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/key-rate", h.KeyRate).Methods("GET")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth)
	admin.HandleFunc("/orders", h.ListOrders).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// writeError maps domain errors onto HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case session.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, mortgage.ErrUnknownOrigin),
		errors.Is(err, mortgage.ErrUnknownProgram),
		errors.Is(err, synchronizer.ErrUnknownControl):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Programs lists the available mortgage programs
func (h *Handler) Programs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Programs())
}

type calculateRequest struct {
	ProgramID   string   `json:"program_id"`
	Price       *float64 `json:"price"`
	DownPayment *float64 `json:"down_payment"`
	TermYears   *float64 `json:"term_years"`
}

type calculateResponse struct {
	Data    models.LoanConfiguration `json:"data"`
	Results models.LoanResult        `json:"results"`
}

// Calculate runs a stateless calculation
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	data, res, err := h.svc.Calculate(req.ProgramID, req.Price, req.DownPayment, req.TermYears)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{Data: data, Results: res})
}

// CreateSession starts a calculator with default parameters
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession returns the full state of a calculator
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSession drops a calculator
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type eventRequest struct {
	Origin models.Origin `json:"onUpdate"`
	Value  string        `json:"value"`
}

// SessionEvent applies one control edit and returns the resynced siblings
func (h *Handler) SessionEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ev, err := h.sessions.Edit(r.Context(), mux.Vars(r)["id"], req.Origin, req.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// SessionCommit handles the change event of a control
func (h *Handler) SessionCommit(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	st, err := h.sessions.Commit(r.Context(), mux.Vars(r)["id"], req.Origin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SessionSchedule returns the amortization schedule; ?start=YYYY-MM-DD sets the first month
func (h *Handler) SessionSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Invalid start date", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	rows, err := h.sessions.Schedule(r.Context(), mux.Vars(r)["id"], start)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// SubmitOrder accepts the lead-capture form and answers in plain text
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var order models.Order
	if err := decodeJSON(r, &order); err != nil {
		h.log.Warnf("Invalid order body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, orderFailure)
		return
	}

	if err := h.svc.SubmitOrder(r.Context(), &order); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrInvalidOrder):
			status = http.StatusBadRequest
		case errors.Is(err, service.ErrSubmissionInFlight):
			status = http.StatusConflict
		}
		h.log.Errorf("Order submission failed: %v", err)
		w.WriteHeader(status)
		io.WriteString(w, orderFailure)
		return
	}
	io.WriteString(w, orderSuccess)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles operator authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListOrders returns recent orders; ?limit= defaults to 50
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	orders, err := h.svc.ListOrders(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.WithField("operator", r.Context().Value(middleware.OperatorKey)).Infof("Listed %d orders", len(orders))
	writeJSON(w, http.StatusOK, orders)
}

// KeyRate returns the last fetched reference rate
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	rate, ok := h.keyRate.Get()
	if !ok {
		http.Error(w, "Key rate is not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}
