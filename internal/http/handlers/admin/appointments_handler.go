package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/response"
	"github.com/ItIsRain/OneToOne-sub009/internal/repo/postgres"
	"github.com/ItIsRain/OneToOne-sub009/pkg/events"
	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type AppointmentsHandler struct {
	Repo postgres.AppointmentRepo
	Bus  events.Publisher
}

func NewAppointmentsHandler(repo postgres.AppointmentRepo, bus events.Publisher) *AppointmentsHandler {
	return &AppointmentsHandler{Repo: repo, Bus: bus}
}

func (h *AppointmentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
	r.Delete("/{id}", h.cancel)
	return r
}

func (h *AppointmentsHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}

	f, msg := filterFromQuery(r)
	if msg != "" {
		response.BadRequest(w, msg)
		return
	}
	limit, offset := pagination(r)

	appts, err := h.Repo.List(r.Context(), tenantID, f, limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list appointments", "error", err)
		response.InternalError(w, "internal error")
		return
	}
	response.WriteJSON(w, http.StatusOK, appts)
}

func (h *AppointmentsHandler) getByID(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "bad id")
		return
	}

	appt, err := h.Repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if appt == nil {
		response.NotFound(w, "appointment not found")
		return
	}
	appt.ManageToken = ""
	response.WriteJSON(w, http.StatusOK, appt)
}

func (h *AppointmentsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "bad id")
		return
	}

	appt, err := h.Repo.Cancel(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "error cancelling appointment")
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
		Reason:        "canceled_by_admin",
		CanceledAt:    time.Now().UTC(),
	}
	if err := h.Bus.Publish(r.Context(), events.BookingCanceled, event); err != nil {
		logger.ErrorContext(r.Context(), "failed to publish cancel event", "error", err)
	}

	appt.ManageToken = ""
	response.WriteJSON(w, http.StatusOK, appt)
}

func filterFromQuery(r *http.Request) (domain.AppointmentFilter, string) {
	var f domain.AppointmentFilter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status, ok := domain.ParseAppointmentStatus(v)
		if !ok {
			return f, "unknown status"
		}
		f.Status = &status
	}
	if v := q.Get("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, "invalid member_id"
		}
		f.MemberID = &id
	}
	if v := q.Get("page_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, "invalid page_id"
		}
		f.PageID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "from must be RFC3339"
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "to must be RFC3339"
		}
		f.To = &t
	}
	return f, ""
}
