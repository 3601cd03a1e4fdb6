package handlers

import (
	"net/http"
	"strconv"

	"postcode-tracker/internal/api/dto"
	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/services"
)

type PostcodeHandler struct {
	Resolver *services.Resolver
}

// Lookup resolves GET /postcodes/{postcode}.
func (h *PostcodeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	loc, err := h.Resolver.ResolveByPostcode(r.Context(), r.PathValue("postcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewLocationResponse(loc))
}

func (h *PostcodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("postcode")
	ok, err := h.Resolver.ValidatePostcode(r.Context(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Only a well-formed postcode gets the outward/inward space.
	echo := domain.NormalizePostcode(raw)
	if pc, err := domain.ParsePostcode(raw); err == nil {
		echo = domain.FormatPostcode(pc)
	}
	writeJSON(w, r, http.StatusOK, dto.ValidateResponse{
		Postcode: echo,
		Valid:    ok,
	})
}

// Nearest reverse-geocodes GET /postcodes/nearest?lat=..&lon=..
func (h *PostcodeHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lon must be a number")
		return
	}

	loc, err := h.Resolver.ResolveByCoordinates(r.Context(), lat, lon)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewLocationResponse(loc))
}

// Distance resolves both ends of POST /distance and returns the miles between them.
func (h *PostcodeHandler) Distance(w http.ResponseWriter, r *http.Request) {
	var req dto.DistanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	from, err := req.From.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := req.To.ToDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	d, err := h.Resolver.ResolveDistance(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DistanceResponse{
		From:          dto.NewLocationResponse(d.From),
		To:            dto.NewLocationResponse(d.To),
		DistanceMiles: d.Miles,
	})
}
