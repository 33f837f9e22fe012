package handlers

import (
	"errors"
	"net/http"

	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/services"
)

const maxUploadBytes = 10 << 20 // 10MB

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: ps}
}

// RegisterHandler handles POST /tournaments/{tournamentID}/players as a
// multipart form: game_name, real_name and an optional avatar file part.
func (h *PlayerHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("expected a multipart form"))
		return
	}

	input := services.RegisterPlayerInput{
		TournamentID: tournamentID,
		GameName:     r.FormValue("game_name"),
		RealName:     r.FormValue("real_name"),
	}

	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			badRequestResponse(w, r, errors.New("avatar content type required"))
			return
		}
		input.Avatar = file
		input.AvatarContentType = contentType
	case errors.Is(err, http.ErrMissingFile):
		// Avatar is optional.
	default:
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveHandler handles POST /tournaments/{tournamentID}/players/{playerID}/approve.
func (h *PlayerHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Approve(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/players with an
// optional ?status=pending|approved filter.
func (h *PlayerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.PlayerStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed := models.PlayerStatus(raw)
		if parsed != models.PlayerStatusPending && parsed != models.PlayerStatusApproved {
			badRequestResponse(w, r, errors.New("status must be pending or approved"))
			return
		}
		status = &parsed
	}

	players, err := h.playerService.ListByTournament(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /players/{playerID}.
func (h *PlayerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.GetByID(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
