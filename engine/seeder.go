package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pitchside/bracket-manager/models"
)

// SeedKnockout takes the top qualifiersPerGroup players out of each group's
// standings (already ordered by Rank), shuffles the combined qualifier pool
// and pairs consecutive players into first-round knockout fixtures. A group
// with fewer ranked players than requested fails with ErrNotEnoughQualifiers.
// An odd pool fails with ErrOddQualifierCount rather than silently dropping
// the unpaired player.
func SeedKnockout(standings map[int][]models.Player, qualifiersPerGroup int, rng *rand.Rand) ([]MatchSeed, error) {
	if qualifiersPerGroup < 1 {
		return nil, fmt.Errorf("%w: qualifiers per group must be at least 1", ErrNotEnoughQualifiers)
	}

	groupIDs := make([]int, 0, len(standings))
	for id := range standings {
		groupIDs = append(groupIDs, id)
	}
	sort.Ints(groupIDs)

	qualifiers := make([]models.Player, 0, len(groupIDs)*qualifiersPerGroup)
	for _, id := range groupIDs {
		ranked := standings[id]
		if len(ranked) < qualifiersPerGroup {
			return nil, fmt.Errorf("%w: group %d has %d players, need %d",
				ErrNotEnoughQualifiers, id, len(ranked), qualifiersPerGroup)
		}
		qualifiers = append(qualifiers, ranked[:qualifiersPerGroup]...)
	}

	return PairKnockout(qualifiers, 1, rng)
}

// PairKnockout shuffles a pool of players and pairs consecutive elements
// into knockout fixtures for the given round. It is used both for the first
// seeded round and for re-pairing the winners of a completed round.
func PairKnockout(pool []models.Player, round int, rng *rand.Rand) ([]MatchSeed, error) {
	if len(pool) < 2 {
		return nil, fmt.Errorf("%w: %d players in the knockout pool", ErrNotEnoughQualifiers, len(pool))
	}
	if len(pool)%2 != 0 {
		return nil, fmt.Errorf("%w: %d players", ErrOddQualifierCount, len(pool))
	}

	shuffled := make([]models.Player, len(pool))
	copy(shuffled, pool)
	shuffleFn := rand.Shuffle
	if rng != nil {
		shuffleFn = rng.Shuffle
	}
	shuffleFn(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	fixtures := make([]MatchSeed, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		fixtures = append(fixtures, MatchSeed{
			Stage:       models.MatchStageKnockout,
			Round:       round,
			Player1ID:   shuffled[i].ID,
			Player2ID:   shuffled[i+1].ID,
			Player1Name: shuffled[i].GameName,
			Player2Name: shuffled[i+1].GameName,
		})
	}
	return fixtures, nil
}
