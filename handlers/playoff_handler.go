package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/clubdeck/competition-engine/middleware"
	"github.com/clubdeck/competition-engine/services"
)

type PlayoffHandler struct {
	playoffService services.PlayoffService
}

func NewPlayoffHandler(playoffService services.PlayoffService) *PlayoffHandler {
	return &PlayoffHandler{playoffService: playoffService}
}

// readQualifiers читает qualifiers_per_group из query (по умолчанию 2).
func readQualifiers(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("qualifiers_per_group")
	if raw == "" {
		return 2, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid 'qualifiers_per_group' parameter")
	}
	return n, nil
}

func (h *PlayoffHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	qualifiers, err := readQualifiers(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	preview, err := h.playoffService.Preview(r.Context(), userID, tournamentID, services.GeneratePlayoffsInput{QualifiersPerGroup: qualifiers})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, preview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayoffHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.GeneratePlayoffsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.playoffService.Generate(r.Context(), userID, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayoffHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	bracket, err := h.playoffService.Get(r.Context(), userID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayoffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.Delete(r.Context(), userID, tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
