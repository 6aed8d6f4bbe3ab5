package admin

import (
	"encoding/json"
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

type AvailabilityHandler struct {
	Repo postgres.AvailabilityRepo
	Bus  events.Publisher
}

func NewAvailabilityHandler(repo postgres.AvailabilityRepo, bus events.Publisher) *AvailabilityHandler {
	return &AvailabilityHandler{Repo: repo, Bus: bus}
}

func (h *AvailabilityHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/slots", h.listSlots)
	r.Post("/slots", h.createSlot)
	r.Patch("/slots/{id}", h.patchSlot)
	r.Delete("/slots/{id}", h.deleteSlot)

	r.Get("/overrides", h.listOverrides)
	r.Post("/overrides", h.createOverride)
	r.Delete("/overrides/{id}", h.deleteOverride)

	return r
}

func (h *AvailabilityHandler) listSlots(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}

	var memberID *int64
	if v := r.URL.Query().Get("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid member_id")
			return
		}
		memberID = &id
	}

	slots, err := h.Repo.ListSlots(r.Context(), tenantID, memberID)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	response.WriteJSON(w, http.StatusOK, slots)
}

func (h *AvailabilityHandler) createSlot(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}

	var in domain.AvailabilitySlotReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if msg := validateSlotReq(&in); msg != "" {
		response.BadRequest(w, msg)
		return
	}

	slot, err := h.Repo.CreateSlot(r.Context(), tenantID, &in)
	if err != nil {
		response.InternalError(w, "error creating slot")
		return
	}

	h.publishChange(r, tenantID, in.MemberID)
	response.WriteJSON(w, http.StatusCreated, slot)
}

func (h *AvailabilityHandler) patchSlot(w http.ResponseWriter, r *http.Request) {
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

	var patch domain.AvailabilitySlotPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if patch.DayOfWeek != nil && (*patch.DayOfWeek < 0 || *patch.DayOfWeek > 6) {
		response.BadRequest(w, "day_of_week must be 0 (Sunday) through 6 (Saturday)")
		return
	}
	if patch.StartTime != nil && !validClock(*patch.StartTime) {
		response.BadRequest(w, "start_time must be HH:MM or HH:MM:SS")
		return
	}
	if patch.EndTime != nil && !validClock(*patch.EndTime) {
		response.BadRequest(w, "end_time must be HH:MM or HH:MM:SS")
		return
	}
	if patch.StartTime != nil && patch.EndTime != nil && !clockBefore(*patch.StartTime, *patch.EndTime) {
		response.BadRequest(w, "start_time must be before end_time")
		return
	}
	if patch.Timezone != nil && !validTimezone(*patch.Timezone) {
		response.BadRequest(w, "unknown timezone")
		return
	}

	slot, err := h.Repo.UpdateSlot(r.Context(), tenantID, id, patch)
	if err != nil {
		response.InternalError(w, "error updating slot")
		return
	}
	if slot == nil {
		response.NotFound(w, "slot not found")
		return
	}

	h.publishChange(r, tenantID, slot.MemberID)
	response.WriteJSON(w, http.StatusOK, slot)
}

func (h *AvailabilityHandler) deleteSlot(w http.ResponseWriter, r *http.Request) {
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

	ok, err = h.Repo.DeleteSlot(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if !ok {
		response.NotFound(w, "slot not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AvailabilityHandler) listOverrides(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}
	memberID, err := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "member_id is required")
		return
	}

	overrides, err := h.Repo.ListOverrides(r.Context(), tenantID, memberID)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	response.WriteJSON(w, http.StatusOK, overrides)
}

func (h *AvailabilityHandler) createOverride(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromClaims(r)
	if !ok {
		response.Unauthorized(w, "missing tenant scope")
		return
	}

	var in domain.AvailabilityOverrideReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.MemberID <= 0 {
		response.BadRequest(w, "member_id is required")
		return
	}
	if _, err := time.Parse("2006-01-02", in.OverrideDate); err != nil {
		response.BadRequest(w, "override_date must be YYYY-MM-DD")
		return
	}
	// Partial blocks need both ends; a bare date blocks the whole day.
	if (in.StartTime == nil) != (in.EndTime == nil) {
		response.BadRequest(w, "start_time and end_time must be provided together")
		return
	}
	if in.StartTime != nil {
		if !validClock(*in.StartTime) || !validClock(*in.EndTime) {
			response.BadRequest(w, "times must be HH:MM or HH:MM:SS")
			return
		}
		if !clockBefore(*in.StartTime, *in.EndTime) {
			response.BadRequest(w, "start_time must be before end_time")
			return
		}
	}

	override, err := h.Repo.CreateOverride(r.Context(), tenantID, &in)
	if err != nil {
		response.InternalError(w, "error creating override")
		return
	}

	h.publishChange(r, tenantID, in.MemberID)
	response.WriteJSON(w, http.StatusCreated, override)
}

func (h *AvailabilityHandler) deleteOverride(w http.ResponseWriter, r *http.Request) {
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

	ok, err = h.Repo.DeleteOverride(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if !ok {
		response.NotFound(w, "override not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AvailabilityHandler) publishChange(r *http.Request, tenantID, memberID int64) {
	event := events.AvailabilityChangedEvent{TenantID: tenantID, MemberID: memberID}
	if err := h.Bus.Publish(r.Context(), events.AvailabilityChanged, event); err != nil {
		logger.ErrorContext(r.Context(), "failed to publish availability event", "error", err)
	}
}

func validateSlotReq(in *domain.AvailabilitySlotReq) string {
	if in.MemberID <= 0 {
		return "member_id is required"
	}
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return "day_of_week must be 0 (Sunday) through 6 (Saturday)"
	}
	if !validClock(in.StartTime) || !validClock(in.EndTime) {
		return "times must be HH:MM or HH:MM:SS"
	}
	if !clockBefore(in.StartTime, in.EndTime) {
		return "start_time must be before end_time"
	}
	if !validTimezone(in.Timezone) {
		return "unknown timezone"
	}
	return ""
}

// clockBefore compares two wall-clock strings after padding "HH:MM" to
// "HH:MM:SS"; lexical order equals chronological order at fixed width.
func clockBefore(start, end string) bool {
	if len(start) == 5 {
		start += ":00"
	}
	if len(end) == 5 {
		end += ":00"
	}
	return start < end
}

func validClock(s string) bool {
	if _, err := time.Parse("15:04", s); err == nil {
		return true
	}
	if _, err := time.Parse("15:04:05", s); err == nil {
		return true
	}
	return false
}

func validTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
