package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/solar"
)

// ListSpots handles GET /api/v1/spots.
func (h *Handlers) ListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.spots.ListSpots(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spots)
}

// PutSpot handles PUT /api/v1/spots/{name} with a {latitude, longitude} body.
func (h *Handlers) PutSpot(w http.ResponseWriter, r *http.Request) {
	var coord solar.Coordinate
	if err := decodeBody(w, r, &coord); err != nil {
		h.writeError(w, r, err)
		return
	}

	spot, err := h.spots.UpsertSpot(r.Context(), chi.URLParam(r, "name"), coord)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

// DeleteSpot handles DELETE /api/v1/spots/{name}.
func (h *Handlers) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	deleted, err := h.spots.DeleteSpot(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !deleted {
		h.writeError(w, r, fmt.Errorf("%w: %s", errSpotNotFound, name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SpotReport handles GET /api/v1/spots/{name}/report?policy.
// Served through the same cache as coordinate reports.
func (h *Handlers) SpotReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	policy, err := forecast.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	spot, err := h.spots.GetSpot(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if spot == nil {
		h.writeError(w, r, fmt.Errorf("%w: %s", errSpotNotFound, name))
		return
	}

	h.serveReport(w, r, spot.Coordinate, policy)
}
