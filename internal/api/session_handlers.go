package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"spotrent/internal/auth"
	"spotrent/internal/entities"
	apperrors "spotrent/internal/errors"
	"spotrent/internal/service"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: svc}
}

func (h *SessionHandler) PrepareSession(w http.ResponseWriter, r *http.Request) {
	var req entities.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	resp, err := h.Service.Prepare(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req entities.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	resp, err := h.Service.Start(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

type stopSessionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *SessionHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req stopSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	resp, err := h.Service.Stop(r.Context(), auth.UserIDFromContext(r.Context()), code, req.Latitude, req.Longitude)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
