package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/repositories"
	"github.com/pitchside/bracket-manager/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ReportHandler handles POST /matches/{matchID}/report as a multipart
// form: score1, score2 and an optional screenshot file part.
func (h *MatchHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("expected a multipart form"))
		return
	}

	score1, err := strconv.Atoi(r.FormValue("score1"))
	if err != nil {
		badRequestResponse(w, r, errors.New("score1 must be an integer"))
		return
	}
	score2, err := strconv.Atoi(r.FormValue("score2"))
	if err != nil {
		badRequestResponse(w, r, errors.New("score2 must be an integer"))
		return
	}

	input := services.ReportResultInput{
		MatchID: matchID,
		Score1:  score1,
		Score2:  score2,
	}

	file, header, err := r.FormFile("screenshot")
	switch {
	case err == nil:
		defer file.Close()
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			badRequestResponse(w, r, errors.New("screenshot content type required"))
			return
		}
		input.Screenshot = file
		input.ScreenshotContentType = contentType
	case errors.Is(err, http.ErrMissingFile):
		// Evidence is optional at report time.
	default:
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Report(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveHandler handles POST /matches/{matchID}/approve.
func (h *MatchHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Approve(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectHandler handles POST /matches/{matchID}/reject.
func (h *MatchHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Reject(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /matches/{matchID}.
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/matches with
// optional ?stage=, ?status= and ?round= filters.
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var filter repositories.MatchFilter
	if raw := r.URL.Query().Get("stage"); raw != "" {
		stage := models.MatchStage(raw)
		if stage != models.MatchStageGroups && stage != models.MatchStageKnockout {
			badRequestResponse(w, r, errors.New("stage must be groups or knockout"))
			return
		}
		filter.Stage = &stage
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		switch status {
		case models.MatchStatusPendingResult, models.MatchStatusPendingApproval, models.MatchStatusApproved:
			filter.Status = &status
		default:
			badRequestResponse(w, r, errors.New("status must be pending_result, pending_approval or approved"))
			return
		}
	}
	if raw := r.URL.Query().Get("round"); raw != "" {
		round, convErr := strconv.Atoi(raw)
		if convErr != nil || round < 0 {
			badRequestResponse(w, r, errors.New("round must be a non-negative integer"))
			return
		}
		filter.Round = &round
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
