package engine

import (
	"math/rand"
	"testing"

	"github.com/pitchside/bracket-manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedKnockoutPairsTopQualifiers(t *testing.T) {
	standings := map[int][]models.Player{
		1: {statPlayer(1, 9, 8, 2), statPlayer(2, 6, 5, 3), statPlayer(3, 3, 2, 5), statPlayer(4, 0, 1, 6)},
		2: {statPlayer(5, 7, 6, 1), statPlayer(6, 7, 4, 2), statPlayer(7, 2, 3, 6), statPlayer(8, 1, 1, 5)},
	}

	fixtures, err := SeedKnockout(standings, 2, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	require.Len(t, fixtures, 2, "4 qualifiers pair into 2 fixtures")

	qualified := map[int]bool{1: true, 2: true, 5: true, 6: true}
	seen := make(map[int]bool)
	for _, f := range fixtures {
		assert.Equal(t, models.MatchStageKnockout, f.Stage)
		assert.Equal(t, 1, f.Round)
		assert.Empty(t, f.GroupLabel)
		assert.NotEqual(t, f.Player1ID, f.Player2ID)
		for _, id := range []int{f.Player1ID, f.Player2ID} {
			assert.True(t, qualified[id], "player %d did not qualify", id)
			assert.False(t, seen[id], "player %d seeded twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 4)
}

func TestSeedKnockoutFailsWhenAGroupIsShort(t *testing.T) {
	standings := map[int][]models.Player{
		1: {statPlayer(1, 9, 8, 2), statPlayer(2, 6, 5, 3)},
		2: {statPlayer(5, 7, 6, 1)},
	}

	_, err := SeedKnockout(standings, 2, nil)
	assert.ErrorIs(t, err, ErrNotEnoughQualifiers)
}

func TestSeedKnockoutFailsOnOddPool(t *testing.T) {
	// Three groups, one qualifier each: an odd pool must fail loudly
	// instead of silently dropping the unpaired player.
	standings := map[int][]models.Player{
		1: {statPlayer(1, 9, 8, 2)},
		2: {statPlayer(5, 7, 6, 1)},
		3: {statPlayer(9, 6, 4, 2)},
	}

	_, err := SeedKnockout(standings, 1, nil)
	assert.ErrorIs(t, err, ErrOddQualifierCount)
}

func TestPairKnockoutPairsWinnersOfARound(t *testing.T) {
	winners := []models.Player{statPlayer(3, 0, 0, 0), statPlayer(6, 0, 0, 0)}

	fixtures, err := PairKnockout(winners, 2, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	assert.Equal(t, 2, fixtures[0].Round)

	_, err = PairKnockout(winners[:1], 2, nil)
	assert.ErrorIs(t, err, ErrNotEnoughQualifiers)
}
