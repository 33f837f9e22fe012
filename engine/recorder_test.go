package engine

import (
	"testing"

	"github.com/pitchside/bracket-manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingMatch(stage models.MatchStage) models.Match {
	return models.Match{
		ID:          10,
		Stage:       stage,
		Player1ID:   1,
		Player2ID:   2,
		Player1Name: "alpha",
		Player2Name: "beta",
		Status:      models.MatchStatusPendingResult,
	}
}

func TestReportAttachesScoresAndEvidence(t *testing.T) {
	m, err := Report(pendingMatch(models.MatchStageGroups), 2, 1, "screenshots/abc.png")
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusPendingApproval, m.Status)
	require.NotNil(t, m.Score1)
	require.NotNil(t, m.Score2)
	assert.Equal(t, 2, *m.Score1)
	assert.Equal(t, 1, *m.Score2)
	require.NotNil(t, m.ScreenshotKey)
	assert.Equal(t, "screenshots/abc.png", *m.ScreenshotKey)
}

func TestReportRejectsNegativeScores(t *testing.T) {
	_, err := Report(pendingMatch(models.MatchStageGroups), -1, 0, "")
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = Report(pendingMatch(models.MatchStageGroups), 0, -3, "")
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestReportRejectsDoubleSubmission(t *testing.T) {
	m, err := Report(pendingMatch(models.MatchStageGroups), 1, 1, "")
	require.NoError(t, err)

	_, err = Report(m, 3, 0, "")
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestApprovePointRule(t *testing.T) {
	tests := []struct {
		name         string
		s1, s2       int
		wantP1Points int
		wantP2Points int
	}{
		{name: "player 1 wins", s1: 3, s2: 1, wantP1Points: 3, wantP2Points: 0},
		{name: "player 2 wins", s1: 0, s2: 2, wantP1Points: 0, wantP2Points: 3},
		{name: "draw awards one each", s1: 2, s2: 2, wantP1Points: 1, wantP2Points: 1},
		{name: "goalless draw", s1: 0, s2: 0, wantP1Points: 1, wantP2Points: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reported, err := Report(pendingMatch(models.MatchStageGroups), tt.s1, tt.s2, "")
			require.NoError(t, err)

			approved, d1, d2, err := Approve(reported)
			require.NoError(t, err)

			assert.Equal(t, models.MatchStatusApproved, approved.Status)
			assert.Equal(t, StatDelta{Points: tt.wantP1Points, GoalsFor: tt.s1, GoalsAgainst: tt.s2}, d1)
			assert.Equal(t, StatDelta{Points: tt.wantP2Points, GoalsFor: tt.s2, GoalsAgainst: tt.s1}, d2)
			require.NotNil(t, approved.Score1)
			require.NotNil(t, approved.Score2)
		})
	}
}

func TestApproveKnockoutAwardsNoStats(t *testing.T) {
	reported, err := Report(pendingMatch(models.MatchStageKnockout), 4, 2, "")
	require.NoError(t, err)

	approved, d1, d2, err := Approve(reported)
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusApproved, approved.Status)
	assert.Equal(t, StatDelta{}, d1)
	assert.Equal(t, StatDelta{}, d2)
}

func TestApproveRequiresAScore(t *testing.T) {
	_, _, _, err := Approve(pendingMatch(models.MatchStageGroups))
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestApproveRejectsAlreadyApproved(t *testing.T) {
	reported, err := Report(pendingMatch(models.MatchStageGroups), 1, 0, "")
	require.NoError(t, err)
	approved, _, _, err := Approve(reported)
	require.NoError(t, err)

	_, _, _, err = Approve(approved)
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestRejectClearsScoresAndEvidence(t *testing.T) {
	reported, err := Report(pendingMatch(models.MatchStageGroups), 5, 5, "screenshots/x.png")
	require.NoError(t, err)

	rejected, err := Reject(reported)
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusPendingResult, rejected.Status)
	assert.Nil(t, rejected.Score1)
	assert.Nil(t, rejected.Score2)
	assert.Nil(t, rejected.ScreenshotKey)
}

func TestRejectRequiresPendingApproval(t *testing.T) {
	_, err := Reject(pendingMatch(models.MatchStageGroups))
	assert.ErrorIs(t, err, ErrWrongState)
}

// Approving a result, reversing its deltas and rejecting must return both
// players' stat triples to their pre-report values.
func TestApproveReverseRejectRoundTrip(t *testing.T) {
	p1 := models.Player{ID: 1, Points: 7, GoalsFor: 12, GoalsAgainst: 6}
	p2 := models.Player{ID: 2, Points: 4, GoalsFor: 5, GoalsAgainst: 9}
	before1, before2 := p1, p2

	reported, err := Report(pendingMatch(models.MatchStageGroups), 3, 2, "screenshots/proof.png")
	require.NoError(t, err)

	approved, d1, d2, err := Approve(reported)
	require.NoError(t, err)

	apply := func(p *models.Player, d StatDelta) {
		p.Points += d.Points
		p.GoalsFor += d.GoalsFor
		p.GoalsAgainst += d.GoalsAgainst
	}
	apply(&p1, d1)
	apply(&p2, d2)
	assert.Equal(t, 10, p1.Points)

	// Reverse-then-reset: undo the applied deltas, then reject.
	rd1, rd2, err := Deltas(approved)
	require.NoError(t, err)
	apply(&p1, rd1.Negated())
	apply(&p2, rd2.Negated())

	approved.Status = models.MatchStatusPendingApproval
	rejected, err := Reject(approved)
	require.NoError(t, err)

	assert.Equal(t, before1, p1)
	assert.Equal(t, before2, p2)
	assert.Equal(t, models.MatchStatusPendingResult, rejected.Status)
}
