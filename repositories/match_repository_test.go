package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pitchside/bracket-manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchRepoMock(t *testing.T) (MatchRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresMatchRepository(db), mock, func() { db.Close() }
}

func matchRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tournament_id", "stage", "group_id", "group_label", "round",
		"player1_id", "player2_id", "player1_name", "player2_name",
		"score1", "score2", "status", "screenshot_key", "created_at",
	})
}

func TestMatchRepositoryGetByID(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	label := "A"
	groupID := 3
	createdAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM matches WHERE id = \$1`).
		WithArgs(7).
		WillReturnRows(matchRows().AddRow(
			7, 1, models.MatchStageGroups, groupID, label, 0,
			11, 12, "falcon", "viper",
			nil, nil, models.MatchStatusPendingResult, nil, createdAt,
		))

	match, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, match.ID)
	assert.Equal(t, models.MatchStageGroups, match.Stage)
	require.NotNil(t, match.GroupLabel)
	assert.Equal(t, "A", *match.GroupLabel)
	assert.Nil(t, match.Score1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM matches WHERE id = \$1`).
		WithArgs(99).
		WillReturnRows(matchRows())

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryListByTournamentFilters(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	stage := models.MatchStageKnockout
	status := models.MatchStatusApproved
	round := 2
	createdAt := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM matches WHERE tournament_id = \$1 AND stage = \$2 AND status = \$3 AND round = \$4 ORDER BY round ASC, id ASC`).
		WithArgs(1, stage, status, round).
		WillReturnRows(matchRows().AddRow(
			21, 1, stage, nil, nil, round,
			11, 14, "falcon", "mamba",
			3, 1, status, nil, createdAt,
		))

	matches, err := repo.ListByTournament(context.Background(), 1, MatchFilter{
		Stage:  &stage,
		Status: &status,
		Round:  &round,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 21, matches[0].ID)
	assert.Equal(t, 2, matches[0].Round)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryCountByTournament(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	status := models.MatchStatusApproved
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM matches WHERE tournament_id = \$1 AND status = \$2`).
		WithArgs(1, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByTournament(context.Background(), 1, MatchFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryUpdateResult(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	score1, score2 := 2, 1
	key := "uploads/screens/abc.png"
	match := &models.Match{
		ID:            7,
		Score1:        &score1,
		Score2:        &score2,
		Status:        models.MatchStatusPendingApproval,
		ScreenshotKey: &key,
	}

	mock.ExpectExec(`UPDATE matches`).
		WithArgs(score1, score2, models.MatchStatusPendingApproval, key, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateResult(context.Background(), nil, match))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryUpdateResultNotFound(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	mock.ExpectExec(`UPDATE matches`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateResult(context.Background(), nil, &models.Match{ID: 404, Status: models.MatchStatusPendingResult})
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryMaxKnockoutRound(t *testing.T) {
	repo, mock, done := newMatchRepoMock(t)
	defer done()

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(round\), 0\) FROM matches`).
		WithArgs(1, models.MatchStageKnockout).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	round, err := repo.MaxKnockoutRound(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, round)
	assert.NoError(t, mock.ExpectationsWereMet())
}
