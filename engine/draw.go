package engine

import (
	"math/rand"

	"github.com/pitchside/bracket-manager/models"
)

const groupLabels = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// minDrawPool is the smallest pool that still yields a viable bracket.
const minDrawPool = 4

// Draw shuffles the approved pool uniformly (Fisher-Yates via rand.Shuffle),
// partitions it into consecutive chunks of groupSize and emits one fixture
// per unordered pair of group members. The final chunk may be smaller than
// groupSize when the pool does not divide evenly. A nil rng falls back to
// the global math/rand source; tests pass a seeded one for reproducibility.
func Draw(approved []models.Player, groupSize int, rng *rand.Rand) ([]GroupSeed, []MatchSeed, error) {
	if groupSize < 2 {
		return nil, nil, ErrGroupSizeInvalid
	}
	minPool := groupSize
	if minPool < minDrawPool {
		minPool = minDrawPool
	}
	if len(approved) < minPool {
		return nil, nil, ErrInsufficientPlayers
	}
	numGroups := (len(approved) + groupSize - 1) / groupSize
	if numGroups > len(groupLabels) {
		return nil, nil, ErrTooManyGroups
	}

	shuffled := make([]models.Player, len(approved))
	copy(shuffled, approved)
	shuffleFn := rand.Shuffle
	if rng != nil {
		shuffleFn = rng.Shuffle
	}
	shuffleFn(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([]GroupSeed, 0, numGroups)
	fixtures := make([]MatchSeed, 0)

	for i := 0; i < len(shuffled); i += groupSize {
		end := i + groupSize
		if end > len(shuffled) {
			end = len(shuffled)
		}
		chunk := shuffled[i:end]
		label := string(groupLabels[len(groups)])

		members := make([]models.Player, len(chunk))
		copy(members, chunk)
		groups = append(groups, GroupSeed{Label: label, Players: members})

		for a := 0; a < len(chunk); a++ {
			for b := a + 1; b < len(chunk); b++ {
				fixtures = append(fixtures, MatchSeed{
					Stage:       models.MatchStageGroups,
					GroupLabel:  label,
					Player1ID:   chunk[a].ID,
					Player2ID:   chunk[b].ID,
					Player1Name: chunk[a].GameName,
					Player2Name: chunk[b].GameName,
				})
			}
		}
	}

	return groups, fixtures, nil
}
