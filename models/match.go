package models

import "time"

type MatchStage string

const (
	MatchStageGroups   MatchStage = "groups"
	MatchStageKnockout MatchStage = "knockout"
)

type MatchStatus string

const (
	MatchStatusPendingResult   MatchStatus = "pending_result"
	MatchStatusPendingApproval MatchStatus = "pending_approval"
	MatchStatusApproved        MatchStatus = "approved"
)

// Match is a single fixture. Scores are both nil until a result is reported
// and both non-nil afterwards; status approved implies both are set.
// GroupID and GroupLabel are set for group-stage matches only; Round is the
// knockout round number (1 for the first seeded round, 0 for group stage).
type Match struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	Stage        MatchStage  `json:"stage"`
	GroupID      *int        `json:"group_id,omitempty"`
	GroupLabel   *string     `json:"group_label,omitempty"`
	Round        int         `json:"round"`
	Player1ID    int         `json:"player1_id"`
	Player2ID    int         `json:"player2_id"`
	Player1Name  string      `json:"player1_name"`
	Player2Name  string      `json:"player2_name"`
	Score1       *int        `json:"score1"`
	Score2       *int        `json:"score2"`
	Status       MatchStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`

	ScreenshotKey *string `json:"-"`
	ScreenshotURL *string `json:"screenshot_url,omitempty"`
}

// WinnerID returns the winning player id of a scored match, or 0 on a draw
// or while the match is unscored.
func (m Match) WinnerID() int {
	if m.Score1 == nil || m.Score2 == nil {
		return 0
	}
	switch {
	case *m.Score1 > *m.Score2:
		return m.Player1ID
	case *m.Score2 > *m.Score1:
		return m.Player2ID
	default:
		return 0
	}
}

// LoserID mirrors WinnerID for the losing side.
func (m Match) LoserID() int {
	switch m.WinnerID() {
	case m.Player1ID:
		return m.Player2ID
	case m.Player2ID:
		return m.Player1ID
	default:
		return 0
	}
}
