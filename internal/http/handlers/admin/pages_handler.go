package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/middleware"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/response"
	"github.com/ItIsRain/OneToOne-sub009/internal/repo/postgres"
	"github.com/ItIsRain/OneToOne-sub009/internal/utils"
	"github.com/ItIsRain/OneToOne-sub009/pkg/config"
	"github.com/ItIsRain/OneToOne-sub009/pkg/events"
	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type PagesHandler struct {
	Repo     postgres.BookingPageRepo
	Bus      events.Publisher
	Defaults config.BookingConfig
}

func NewPagesHandler(repo postgres.BookingPageRepo, bus events.Publisher, defaults config.BookingConfig) *PagesHandler {
	return &PagesHandler{Repo: repo, Bus: bus, Defaults: defaults}
}

func (h *PagesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}", h.patch)
	r.Delete("/{id}", h.deactivate)

	return r
}

func tenantFromClaims(r *http.Request) (int64, bool) {
	id := middleware.TenantID(r)
	if id == nil {
		return 0, false
	}
	return *id, true
}

func (h *PagesHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}

	limit, offset := pagination(r)
	pages, err := h.Repo.List(r.Context(), tenantID, limit, offset)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	response.WriteJSON(w, http.StatusOK, pages)
}

func (h *PagesHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}

	var in domain.BookingPageCreateReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	in.Slug = utils.NormalizeString(in.Slug)
	if in.Slug == "" || utils.NormalizeString(in.Title) == "" {
		response.BadRequest(w, "slug and title are required")
		return
	}
	if in.MinNoticeHours < 0 || in.MaxAdvanceDays < 0 ||
		in.BufferBeforeMinutes < 0 || in.BufferAfterMinutes < 0 {
		response.BadRequest(w, "policy values must not be negative")
		return
	}
	if in.MinNoticeHours == 0 {
		in.MinNoticeHours = h.Defaults.DefaultMinNoticeHours
	}
	if in.MaxAdvanceDays == 0 {
		in.MaxAdvanceDays = h.Defaults.DefaultMaxAdvanceDays
	}

	page, err := h.Repo.Create(r.Context(), tenantID, &in)
	if err != nil {
		response.InternalError(w, "error creating booking page")
		return
	}

	h.publish(r, events.PageCreated, page)
	response.WriteJSON(w, http.StatusCreated, page)
}

func (h *PagesHandler) getByID(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.Repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if page == nil {
		response.NotFound(w, "booking page not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, page)
}

func (h *PagesHandler) patch(w http.ResponseWriter, r *http.Request) {
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

	var patch domain.BookingPagePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	page, err := h.Repo.Update(r.Context(), tenantID, id, patch)
	if err != nil {
		response.InternalError(w, "error updating booking page")
		return
	}
	if page == nil {
		response.NotFound(w, "booking page not found")
		return
	}

	h.publish(r, events.PageUpdated, page)
	response.WriteJSON(w, http.StatusOK, page)
}

func (h *PagesHandler) deactivate(w http.ResponseWriter, r *http.Request) {
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

	ok, err = h.Repo.Deactivate(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if !ok {
		response.NotFound(w, "booking page not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PagesHandler) publish(r *http.Request, subject string, page *domain.BookingPage) {
	event := events.PageChangedEvent{PageID: page.ID, TenantID: page.TenantID, Slug: page.Slug}
	if err := h.Bus.Publish(r.Context(), subject, event); err != nil {
		logger.ErrorContext(r.Context(), "failed to publish page event", "error", err, "subject", subject)
	}
}

func pagination(r *http.Request) (int, int) {
	limit, offset := 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
