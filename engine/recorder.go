package engine

import (
	"fmt"

	"github.com/pitchside/bracket-manager/models"
)

// StatDelta is the change to one player's stat triple produced by approving
// a match result. Negated deltas undo an approval exactly.
type StatDelta struct {
	Points       int `json:"points"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

func (d StatDelta) Negated() StatDelta {
	return StatDelta{Points: -d.Points, GoalsFor: -d.GoalsFor, GoalsAgainst: -d.GoalsAgainst}
}

// Report attaches a reported score and evidence reference to a match in
// pending_result and moves it to pending_approval. A second submission
// before the first is reviewed fails with ErrWrongState.
func Report(m models.Match, score1, score2 int, screenshotKey string) (models.Match, error) {
	if m.Status != models.MatchStatusPendingResult {
		return m, fmt.Errorf("%w: report requires %s, match %d is %s",
			ErrWrongState, models.MatchStatusPendingResult, m.ID, m.Status)
	}
	if score1 < 0 || score2 < 0 {
		return m, fmt.Errorf("%w: got %d:%d", ErrInvalidScore, score1, score2)
	}

	s1, s2 := score1, score2
	m.Score1 = &s1
	m.Score2 = &s2
	m.Status = models.MatchStatusPendingApproval
	if screenshotKey != "" {
		key := screenshotKey
		m.ScreenshotKey = &key
	}
	return m, nil
}

// Approve moves a scored match to approved and returns the stat deltas for
// player 1 and player 2. Direct entry from pending_result is accepted when
// review is bypassed, but the match must already carry both scores. Knockout
// results yield zero deltas: elimination is positional, not cumulative.
func Approve(m models.Match) (models.Match, StatDelta, StatDelta, error) {
	if m.Status != models.MatchStatusPendingApproval && m.Status != models.MatchStatusPendingResult {
		return m, StatDelta{}, StatDelta{}, fmt.Errorf("%w: match %d is already %s",
			ErrWrongState, m.ID, m.Status)
	}
	d1, d2, err := Deltas(m)
	if err != nil {
		return m, StatDelta{}, StatDelta{}, err
	}
	m.Status = models.MatchStatusApproved
	return m, d1, d2, nil
}

// Deltas computes the stat deltas a scored match awards: 3 points to a
// strict winner, 1 each on a draw, plus the goals for/against on both
// sides. It is split out from Approve so a previously applied approval can
// be reversed with the negated deltas.
func Deltas(m models.Match) (StatDelta, StatDelta, error) {
	if m.Score1 == nil || m.Score2 == nil {
		return StatDelta{}, StatDelta{}, fmt.Errorf("%w: match %d has no reported score", ErrWrongState, m.ID)
	}
	if m.Stage != models.MatchStageGroups {
		return StatDelta{}, StatDelta{}, nil
	}

	s1, s2 := *m.Score1, *m.Score2
	var p1, p2 int
	switch {
	case s1 > s2:
		p1 = 3
	case s2 > s1:
		p2 = 3
	default:
		p1, p2 = 1, 1
	}
	return StatDelta{Points: p1, GoalsFor: s1, GoalsAgainst: s2},
		StatDelta{Points: p2, GoalsFor: s2, GoalsAgainst: s1}, nil
}

// Reject resets a match awaiting review back to pending_result, clearing
// scores and evidence. This is a hard reset: if the result had already been
// approved, the caller must reverse the applied stat deltas first (with
// Deltas().Negated()) or points leak.
func Reject(m models.Match) (models.Match, error) {
	if m.Status != models.MatchStatusPendingApproval {
		return m, fmt.Errorf("%w: reject requires %s, match %d is %s",
			ErrWrongState, models.MatchStatusPendingApproval, m.ID, m.Status)
	}
	m.Score1 = nil
	m.Score2 = nil
	m.ScreenshotKey = nil
	m.ScreenshotURL = nil
	m.Status = models.MatchStatusPendingResult
	return m, nil
}
