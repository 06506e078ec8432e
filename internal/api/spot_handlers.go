package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"spotrent/internal/auth"
	"spotrent/internal/entities"
	apperrors "spotrent/internal/errors"
	"spotrent/internal/service"
)

type SpotHandler struct {
	Service *service.SpotService
}

func NewSpotHandler(svc *service.SpotService) *SpotHandler {
	return &SpotHandler{Service: svc}
}

func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	spot, err := h.Service.CreateSpot(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

func (h *SpotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validation("invalid spot id"))
		return
	}

	spot, err := h.Service.GetSpot(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

func (h *SpotHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validation("invalid spot id"))
		return
	}
	var req entities.UpdateSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	spot, err := h.Service.UpdateSpot(r.Context(), auth.UserIDFromContext(r.Context()), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

func (h *SpotHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validation("invalid spot id"))
		return
	}

	if err := h.Service.DeleteSpot(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "spot deleted"})
}

// SearchSpots ranks active spots by distance from ?lat=..&lng=... Optional
// ?max_km caps the radius and ?available=true hides spots with a running
// session.
func (h *SpotHandler) SearchSpots(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, apperrors.Validation("lat and lng query parameters are required"))
		return
	}
	maxKm, _ := strconv.ParseFloat(r.URL.Query().Get("max_km"), 64)
	availableOnly := r.URL.Query().Get("available") == "true"

	results, err := h.Service.Search(r.Context(), lat, lng, maxKm, availableOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// NearbySpots returns active spots within 50 m, for map rendering.
func (h *SpotHandler) NearbySpots(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, apperrors.Validation("lat and lng query parameters are required"))
		return
	}

	results, err := h.Service.Nearby(r.Context(), lat, lng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
