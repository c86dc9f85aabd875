package handlers

import (
	"net/http"

	"github.com/clubdeck/competition-engine/services"
)

type CourtHandler struct {
	courtService services.CourtService
}

func NewCourtHandler(courtService services.CourtService) *CourtHandler {
	return &CourtHandler{courtService: courtService}
}

func (h *CourtHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	court, err := h.courtService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) List(w http.ResponseWriter, r *http.Request) {
	courts, err := h.courtService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	courtID, err := readIDParam(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.courtService.Delete(r.Context(), courtID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
