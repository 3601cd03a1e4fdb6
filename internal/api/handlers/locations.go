package handlers

import (
	"net/http"

	"postcode-tracker/internal/api/dto"
	"postcode-tracker/internal/services"
)

type LocationHandler struct {
	Locations *services.SavedLocationService
}

func (h *LocationHandler) Save(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.SaveLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := req.LocationQuery.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	l, err := h.Locations.SaveLocation(r.Context(), uid, req.Label, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewSavedLocationResponse(l))
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	locs, err := h.Locations.ListLocations(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListSavedLocationsResponse{Locations: make([]dto.SavedLocationResponse, 0, len(locs))}
	for _, l := range locs {
		res.Locations = append(res.Locations, dto.NewSavedLocationResponse(l))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Locations.DeleteLocation(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
