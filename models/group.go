package models

import "time"

// Group is one round-robin pool of a tournament's group stage. Membership is
// fixed at draw time; players reference their group via Player.GroupID.
type Group struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	Label        string    `json:"label"`
	CreatedAt    time.Time `json:"created_at"`

	// Populated by the service layer, ordered by current standing.
	Players []Player `json:"players,omitempty"`
}
