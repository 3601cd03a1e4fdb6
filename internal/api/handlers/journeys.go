package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"postcode-tracker/internal/api/dto"
	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/export"
	"postcode-tracker/internal/platform/logger"
	"postcode-tracker/internal/platform/obs"
	"postcode-tracker/internal/services"
)

type JourneyHandler struct {
	Journeys *services.JourneyService
}

func (h *JourneyHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.LocationQuery
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := req.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	j, err := h.Journeys.StartJourney(r.Context(), uid, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewJourneyResponse(j))
}

func (h *JourneyHandler) End(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.LocationQuery
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := req.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	j, err := h.Journeys.EndJourney(r.Context(), uid, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewJourneyResponse(j))
}

// CreateManual records a completed journey from POST /journeys.
func (h *JourneyHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.ManualJourneyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := req.Start.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	end, err := req.End.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	j, err := h.Journeys.CreateManualJourney(r.Context(), uid, services.ManualJourneyRequest{
		Start:     start,
		End:       end,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewJourneyResponse(j))
}

func (h *JourneyHandler) Active(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	j, err := h.Journeys.ActiveJourney(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewJourneyResponse(j))
}

func (h *JourneyHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	js, err := h.Journeys.ListJourneys(r.Context(), uid, nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListJourneysResponse{Journeys: make([]dto.JourneyResponse, 0, len(js))}
	for _, j := range js {
		res.Journeys = append(res.Journeys, dto.NewJourneyResponse(j))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *JourneyHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	j, err := h.Journeys.GetJourney(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewJourneyResponse(j))
}

func (h *JourneyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Journeys.DeleteJourney(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams completed journeys as an attachment.
// Query: format=csv|xlsx, ids=1,2,3 (optional).
func (h *JourneyHandler) Export(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	js, err := h.Journeys.ListJourneys(r.Context(), uid, ids)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(time.Now())))
	if err := export.Write(w, format, js); err != nil {
		// headers are already sent
		logger.GetLogger("api").Errorw("export failed",
			"req_id", obs.RequestID(r.Context()), "format", format, "err", err)
	}
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("%w: ids must be a comma-separated list of positive integers", domain.ErrValidation)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
