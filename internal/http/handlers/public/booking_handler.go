package public

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/booking"
	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/middleware"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/response"
	"github.com/ItIsRain/OneToOne-sub009/internal/repo/postgres"
	"github.com/ItIsRain/OneToOne-sub009/pkg/events"
	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type BookingHandler struct {
	Engine *booking.Engine
	Pages  postgres.BookingPageRepo
	Appts  postgres.AppointmentRepo
	Bus    events.Publisher
}

func NewBookingHandler(engine *booking.Engine, pages postgres.BookingPageRepo, appts postgres.AppointmentRepo, bus events.Publisher) *BookingHandler {
	return &BookingHandler{Engine: engine, Pages: pages, Appts: appts, Bus: bus}
}

func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/pages/{slug}", h.getPage)
	r.Post("/pages/{slug}/appointments", h.create)

	r.Get("/appointments/{id}", h.getByToken)
	r.Delete("/appointments/{id}", h.cancelByToken)

	return r
}

func (h *BookingHandler) getPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.Pages.GetBySlug(r.Context(), middleware.TenantID(r), slug)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if page == nil || !page.IsActive {
		response.NotFound(w, "booking page not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, domain.PublicBookingPage{
		Slug:           page.Slug,
		Title:          page.Title,
		MinNoticeHours: page.MinNoticeHours,
		MaxAdvanceDays: page.MaxAdvanceDays,
	})
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var in domain.BookAppointmentReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	appt, err := h.Engine.Book(r.Context(), middleware.TenantID(r), slug, &in, r.Header.Get("Idempotency-Key"))
	if err != nil {
		writeBookingError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, appt)
}

func (h *BookingHandler) getByToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "bad id")
		return
	}
	tok := r.URL.Query().Get("manage_token")
	if tok == "" {
		response.Unauthorized(w, "manage_token is required")
		return
	}

	appt, err := h.Appts.GetByIDWithToken(r.Context(), id, tok)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if appt == nil {
		response.NotFound(w, "appointment not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, appt)
}

func (h *BookingHandler) cancelByToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "bad id")
		return
	}
	tok := r.URL.Query().Get("manage_token")
	if tok == "" {
		response.Unauthorized(w, "manage_token is required")
		return
	}

	appt, err := h.Appts.CancelWithToken(r.Context(), id, tok)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if appt == nil {
		response.NotFound(w, "appointment not found")
		return
	}

	event := events.BookingCanceledEvent{
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		ClientEmail:   appt.ClientEmail,
		Reason:        "cancelled_by_client",
		CanceledAt:    time.Now().UTC(),
	}
	if err := h.Bus.Publish(r.Context(), events.BookingCanceled, event); err != nil {
		logger.ErrorContext(r.Context(), "failed to publish booking canceled event", "error", err, "appointment_id", appt.ID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeBookingError maps engine error kinds onto user-facing responses.
// Business rejections are 400s with a kind code; transient failures are 500s
// the client may retry.
func writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrPageNotFound):
		response.NotFound(w, "booking page not found")
	case errors.Is(err, booking.ErrInvalid):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidInput)
	case errors.Is(err, booking.ErrPolicy):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodePolicyViolation)
	case errors.Is(err, booking.ErrNoAvailability):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeNoAvailability)
	case errors.Is(err, booking.ErrOutsideHours):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeOutsideHours)
	case errors.Is(err, booking.ErrDateBlocked):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeDateBlocked)
	case errors.Is(err, booking.ErrTimeBlocked):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeTimeBlocked)
	case errors.Is(err, booking.ErrSlotTaken):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeSlotTaken)
	case booking.IsTransient(err):
		logger.ErrorContext(r.Context(), "transient booking failure", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "temporary failure, please retry", response.CodeTransient)
	default:
		logger.ErrorContext(r.Context(), "unexpected booking failure", "error", err)
		response.InternalError(w, "internal error")
	}
}
