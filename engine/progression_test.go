package engine

import (
	"math/rand"
	"testing"

	"github.com/pitchside/bracket-manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Eight approved players in groups of four, every fixture played to a
// designed score, standings ranked per group, top two seeded into the
// knockout round. Exercises the whole group-stage pipeline end to end.
func TestGroupStageToKnockoutScenario(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))

	pool := approvedPool(8)
	groups, fixtures, err := Draw(pool, 4, rng)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Len(t, fixtures, 12)

	players := make(map[int]*models.Player, len(pool))
	for _, g := range groups {
		for i := range g.Players {
			p := g.Players[i]
			players[p.ID] = &p
		}
	}

	// Drive every fixture: the draw-order favourite (lower slot within the
	// group) beats the other side by a goal margin that makes the final
	// table strictly ordered within each group.
	totalPoints := 0
	for i, f := range fixtures {
		m := models.Match{
			ID:          i + 1,
			Stage:       f.Stage,
			Player1ID:   f.Player1ID,
			Player2ID:   f.Player2ID,
			Player1Name: f.Player1Name,
			Player2Name: f.Player2Name,
			Status:      models.MatchStatusPendingResult,
		}

		posInGroup := func(label string, id int) int {
			for _, g := range groups {
				if g.Label != label {
					continue
				}
				for idx, p := range g.Players {
					if p.ID == id {
						return idx
					}
				}
			}
			t.Fatalf("player %d not in group %s", id, label)
			return -1
		}
		p1Pos := posInGroup(f.GroupLabel, f.Player1ID)
		p2Pos := posInGroup(f.GroupLabel, f.Player2ID)

		s1, s2 := 3, 0
		if p2Pos < p1Pos {
			s1, s2 = 0, 3
		}

		reported, err := Report(m, s1, s2, "screenshots/proof.png")
		require.NoError(t, err)
		approved, d1, d2, err := Approve(reported)
		require.NoError(t, err)
		require.Equal(t, models.MatchStatusApproved, approved.Status)

		for _, applied := range []struct {
			id int
			d  StatDelta
		}{{f.Player1ID, d1}, {f.Player2ID, d2}} {
			p := players[applied.id]
			p.Points += applied.d.Points
			p.GoalsFor += applied.d.GoalsFor
			p.GoalsAgainst += applied.d.GoalsAgainst
		}
		totalPoints += d1.Points + d2.Points
	}

	// Points conservation: 12 strict wins, no draws.
	assert.Equal(t, 3*12, totalPoints)

	// Each group table is strictly ordered by the draw position: first
	// slot won all three matches, last slot lost all three.
	standings := make(map[int][]models.Player, len(groups))
	for gi, g := range groups {
		current := make([]models.Player, len(g.Players))
		for i, p := range g.Players {
			current[i] = *players[p.ID]
		}
		ranked := Rank(current)
		assert.Equal(t, 9, ranked[0].Points, "group %s winner", g.Label)
		assert.Equal(t, 6, ranked[1].Points)
		assert.Equal(t, 3, ranked[2].Points)
		assert.Equal(t, 0, ranked[3].Points)
		standings[gi+1] = ranked
	}

	knockout, err := SeedKnockout(standings, 2, rng)
	require.NoError(t, err)
	assert.Len(t, knockout, 2, "4 qualifiers yield exactly 2 knockout fixtures")
}
