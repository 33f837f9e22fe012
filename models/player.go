package models

import "time"

type PlayerStatus string

const (
	PlayerStatusPending  PlayerStatus = "pending"
	PlayerStatusApproved PlayerStatus = "approved"
)

// Player is a league participant. The stat triple (Points, GoalsFor,
// GoalsAgainst) starts at zero and is only ever changed by applying the
// deltas the result recorder computes for an approved group-stage match.
type Player struct {
	ID           int          `json:"id"`
	TournamentID int          `json:"tournament_id"`
	GameName     string       `json:"game_name"`
	RealName     string       `json:"real_name"`
	Status       PlayerStatus `json:"status"`
	Eliminated   bool         `json:"eliminated"`
	GroupID      *int         `json:"group_id,omitempty"`
	Points       int          `json:"points"`
	GoalsFor     int          `json:"goals_for"`
	GoalsAgainst int          `json:"goals_against"`
	CreatedAt    time.Time    `json:"created_at"`

	AvatarKey *string `json:"-"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (p Player) GoalDifference() int {
	return p.GoalsFor - p.GoalsAgainst
}
