package models

import "time"

// TournamentSystem selects how a tournament progresses once drawn.
type TournamentSystem string

const (
	SystemRoundRobinKnockout TournamentSystem = "round_robin_knockout"
	SystemKnockoutOnly       TournamentSystem = "knockout_only"
)

// TournamentStatus values correspond to the ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusOpen     TournamentStatus = "open"
	TournamentStatusActive   TournamentStatus = "active"
	TournamentStatusKnockout TournamentStatus = "knockout"
	TournamentStatusFinished TournamentStatus = "finished"
)

type Tournament struct {
	ID                 int              `json:"id"`
	Name               string           `json:"name"`
	Capacity           int              `json:"capacity"`
	GroupSize          int              `json:"group_size"`
	QualifiersPerGroup int              `json:"qualifiers_per_group"`
	System             TournamentSystem `json:"system"`
	Status             TournamentStatus `json:"status"`
	ChampionID         *int             `json:"champion_id,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`

	// Optional related entities, populated by the service layer.
	Players []Player `json:"players,omitempty"`
	Groups  []Group  `json:"groups,omitempty"`
	Matches []Match  `json:"matches,omitempty"`
}
