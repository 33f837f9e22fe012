package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pitchside/bracket-manager/models"
)

var (
	ErrPlayerNotFound          = errors.New("player not found")
	ErrPlayerTournamentInvalid = errors.New("player tournament conflict or invalid")
	ErrPlayerGroupInvalid      = errors.New("player group conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Player, error)
	GameNameExists(ctx context.Context, tournamentID int, gameName string) (bool, error)
	UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error
	AssignGroup(ctx context.Context, exec SQLExecutor, playerID, groupID int) error
	ApplyStatDelta(ctx context.Context, exec SQLExecutor, playerID, points, goalsFor, goalsAgainst int) error
	SetEliminated(ctx context.Context, exec SQLExecutor, playerID int, eliminated bool) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, tournament_id, game_name, real_name, avatar_key, status, eliminated,
	       group_id, points, goals_for, goals_against, created_at`

func (r *postgresPlayerRepository) scanPlayer(rowScanner interface{ Scan(...interface{}) error }) (*models.Player, error) {
	var p models.Player
	err := rowScanner.Scan(
		&p.ID, &p.TournamentID, &p.GameName, &p.RealName, &p.AvatarKey, &p.Status,
		&p.Eliminated, &p.GroupID, &p.Points, &p.GoalsFor, &p.GoalsAgainst, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO players
			(tournament_id, game_name, real_name, avatar_key, status, eliminated, group_id, points, goals_for, goals_against)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		player.TournamentID,
		player.GameName,
		player.RealName,
		player.AvatarKey,
		player.Status,
		player.Eliminated,
		player.GroupID,
		player.Points,
		player.GoalsFor,
		player.GoalsAgainst,
	).Scan(&player.ID, &player.CreatedAt)

	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	player, err := r.scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + playerColumns + ` FROM players WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	return r.queryPlayers(ctx, queryBuilder.String(), args...)
}

func (r *postgresPlayerRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE group_id = $1 ORDER BY id ASC`
	return r.queryPlayers(ctx, query, groupID)
}

func (r *postgresPlayerRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, scanErr := r.scanPlayer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) GameNameExists(ctx context.Context, tournamentID int, gameName string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM players WHERE tournament_id = $1 AND lower(game_name) = lower($2))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tournamentID, gameName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check game name existence: %w", err)
	}
	return exists, nil
}

func (r *postgresPlayerRepository) UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error {
	query := `UPDATE players SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) AssignGroup(ctx context.Context, exec SQLExecutor, playerID, groupID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET group_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, groupID, playerID)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ApplyStatDelta(ctx context.Context, exec SQLExecutor, playerID, points, goalsFor, goalsAgainst int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE players
		SET points = points + $1, goals_for = goals_for + $2, goals_against = goals_against + $3
		WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, points, goalsFor, goalsAgainst, playerID)
	if err != nil {
		return fmt.Errorf("ApplyStatDelta: failed to execute query for player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) SetEliminated(ctx context.Context, exec SQLExecutor, playerID int, eliminated bool) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET eliminated = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, eliminated, playerID)
	if err != nil {
		return fmt.Errorf("SetEliminated: failed to execute query for player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23503": foreign_key_violation
		switch pqErr.Constraint {
		case "players_tournament_id_fkey":
			return ErrPlayerTournamentInvalid
		case "players_group_id_fkey":
			return ErrPlayerGroupInvalid
		}
	}
	return err
}
