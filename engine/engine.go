// Package engine holds the tournament progression rules: group draw,
// round-robin fixture generation, result scoring, standings ranking and
// knockout seeding. Everything here is a pure computation over model values;
// persisting the outputs is the caller's job, which keeps the rules testable
// without a database.
package engine

import (
	"errors"

	"github.com/pitchside/bracket-manager/models"
)

var (
	ErrInsufficientPlayers = errors.New("not enough approved players for a draw")
	ErrGroupSizeInvalid    = errors.New("group size must be at least 2")
	ErrTooManyGroups       = errors.New("draw would exceed the group label range (A-Z)")
	ErrInvalidScore        = errors.New("scores must be non-negative integers")
	ErrWrongState          = errors.New("match is not in the required state for this operation")
	ErrNotEnoughQualifiers = errors.New("group has fewer ranked players than qualifiers requested")
	ErrOddQualifierCount   = errors.New("qualifier pool has an odd number of players")
)

// GroupSeed is a planned group: a label and its members in draw order.
type GroupSeed struct {
	Label   string
	Players []models.Player
}

// MatchSeed is a planned, unplayed fixture. GroupLabel is empty for
// knockout fixtures; Round is 0 for group-stage fixtures.
type MatchSeed struct {
	Stage       models.MatchStage
	GroupLabel  string
	Round       int
	Player1ID   int
	Player2ID   int
	Player1Name string
	Player2Name string
}
