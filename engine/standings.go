package engine

import (
	"sort"

	"github.com/pitchside/bracket-manager/models"
)

// Rank returns the players ordered by points descending, then goal
// difference descending, then goals scored descending. The sort is stable,
// so players tied on the whole chain keep their input order and repeated
// calls on the same input produce the same result. The input slice is not
// modified.
func Rank(players []models.Player) []models.Player {
	ranked := make([]models.Player, len(players))
	copy(ranked, players)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		return a.GoalsFor > b.GoalsFor
	})

	return ranked
}
