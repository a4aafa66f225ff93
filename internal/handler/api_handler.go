package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/uvm-fablab/scheduler/internal/logger"
	"github.com/uvm-fablab/scheduler/internal/models"
	"github.com/uvm-fablab/scheduler/internal/service"
	"github.com/uvm-fablab/scheduler/internal/store"
)

type APIHandler struct {
	reservations *service.ReservationService
	auth         *service.AuthService
	logger       *logger.Logger
	publicDir    string
}

func NewAPIHandler(reservations *service.ReservationService, auth *service.AuthService, log *logger.Logger, publicDir string) *APIHandler {
	if log == nil {
		log = logger.New()
	}
	return &APIHandler{
		reservations: reservations,
		auth:         auth,
		logger:       log,
		publicDir:    publicDir,
	}
}

// Routes builds the request mux: the JSON API plus, when a public dir is
// configured, static UI delivery with an SPA fallback to index.html.
func (h *APIHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("GET /api/bookings", h.ListBookings)
	mux.HandleFunc("POST /api/bookings", h.CreateBooking)
	mux.HandleFunc("PUT /api/bookings/{id}", h.UpdateBooking)
	mux.HandleFunc("DELETE /api/bookings/{id}", h.DeleteBooking)
	mux.HandleFunc("GET /api/printers", h.ListPrinters)
	if h.publicDir != "" {
		mux.HandleFunc("/", h.ServeStatic)
	}
	return mux
}

type loginRequest struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`
}

type createBookingRequest struct {
	ID      string    `json:"id"`
	Printer int       `json:"printer"`
	Owner   string    `json:"owner"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

type updateBookingRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.auth.Authenticate(req.Name, req.Pin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Login succeeded", logger.Action("login"), logger.User(user.Name))
	h.writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var (
		bookings []*models.Booking
		err      error
	)
	if q := r.URL.Query().Get("printer"); q != "" {
		printer, perr := strconv.Atoi(q)
		if perr != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid printer id."})
			return
		}
		bookings, err = h.reservations.ListBookingsByPrinter(printer)
	} else {
		bookings, err = h.reservations.ListBookings()
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	h.writeJSON(w, http.StatusOK, bookings)
}

func (h *APIHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	b := &models.Booking{
		ID:      req.ID,
		Printer: req.Printer,
		Owner:   req.Owner,
		Title:   req.Title,
		Start:   req.Start,
		End:     req.End,
	}
	if err := h.reservations.Create(b); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Booking created",
		logger.Action("create"),
		logger.BookingID(b.ID),
		logger.Printer(b.Printer),
		logger.User(b.Owner))
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": b.ID})
}

func (h *APIHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.reservations.Update(id, req.Start, req.End); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Booking updated", logger.Action("update"), logger.BookingID(id))
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *APIHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.reservations.Delete(id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Booking deleted", logger.Action("delete"), logger.BookingID(id))
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *APIHandler) ListPrinters(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.reservations.ListPrinters())
}

// ServeStatic delivers UI files, falling back to index.html so client-side
// routes resolve after a page reload.
func (h *APIHandler) ServeStatic(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.publicDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.publicDir, "index.html"))
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer func() {
		_ = r.Body.Close()
	}()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body."})
		return false
	}
	return true
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// writeError maps the service error taxonomy onto HTTP statuses.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidInterval):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, store.ErrDuplicateID):
		status = http.StatusConflict
	default:
		// Storage backend failures are fatal for the request, never partial.
		status = http.StatusInternalServerError
		h.logger.Error("Request failed",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err))
		h.writeJSON(w, status, map[string]string{"error": "Internal server error."})
		return
	}

	h.logger.Info("Request rejected",
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.Reason(err.Error()))
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
