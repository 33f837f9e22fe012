package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pitchside/bracket-manager/engine"
	"github.com/pitchside/bracket-manager/live"
	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/repositories"
	"github.com/pitchside/bracket-manager/storage"
)

const maxGroupCount = 26

type CreateTournamentInput struct {
	Name               string                  `json:"name"`
	Capacity           int                     `json:"capacity"`
	GroupSize          int                     `json:"group_size"`
	QualifiersPerGroup int                     `json:"qualifiers_per_group"`
	System             models.TournamentSystem `json:"system"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	GenerateDraw(ctx context.Context, id int) (*models.Tournament, error)
	SeedKnockout(ctx context.Context, id int) ([]models.Match, error)
	AdvanceKnockout(ctx context.Context, id int) ([]models.Match, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	uploader       storage.FileUploader
	hub            Broadcaster
	logger         *slog.Logger

	// rng seeds draws and knockout pairings; nil uses the global source.
	rng *rand.Rand
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	hub Broadcaster,
	logger *slog.Logger,
	rng *rand.Rand,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		groupRepo:      groupRepo,
		matchRepo:      matchRepo,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
		rng:            rng,
	}
}

func (s *tournamentService) transitionStatus(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(tournament.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentWrongStatus, tournament.Status, next)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournament.ID, next); err != nil {
		return fmt.Errorf("failed to move tournament %d to %s: %w", tournament.ID, next, err)
	}
	tournament.Status = next
	return nil
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.Capacity < 2 {
		return nil, fmt.Errorf("%w: capacity %d", ErrValidationFailed, input.Capacity)
	}

	switch input.System {
	case models.SystemRoundRobinKnockout:
		if input.GroupSize < 2 {
			return nil, fmt.Errorf("%w: group size %d", ErrValidationFailed, input.GroupSize)
		}
		if input.Capacity%input.GroupSize != 0 {
			return nil, fmt.Errorf("%w: capacity %d does not split into groups of %d",
				ErrTournamentInvalidCapacity, input.Capacity, input.GroupSize)
		}
		if input.Capacity/input.GroupSize > maxGroupCount {
			return nil, fmt.Errorf("%w: %d groups exceed the label range",
				ErrTournamentInvalidCapacity, input.Capacity/input.GroupSize)
		}
		if input.QualifiersPerGroup < 1 || input.QualifiersPerGroup > input.GroupSize {
			return nil, fmt.Errorf("%w: %d qualifiers per group of %d",
				ErrValidationFailed, input.QualifiersPerGroup, input.GroupSize)
		}
	case models.SystemKnockoutOnly:
		if input.Capacity%2 != 0 {
			return nil, fmt.Errorf("%w: knockout capacity %d must be even",
				ErrTournamentInvalidCapacity, input.Capacity)
		}
	default:
		return nil, fmt.Errorf("%w: unknown tournament system %q", ErrValidationFailed, input.System)
	}

	tournament := &models.Tournament{
		Name:               name,
		Capacity:           input.Capacity,
		GroupSize:          input.GroupSize,
		QualifiersPerGroup: input.QualifiersPerGroup,
		System:             input.System,
		Status:             models.TournamentStatusOpen,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name),
		slog.String("system", string(tournament.System)),
	)
	return tournament, nil
}

// GetByID loads the tournament with its full bundle: players, groups with
// ranked standings, and matches. The three lists are fetched in parallel.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	var (
		players []*models.Player
		groups  []*models.Group
		matches []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByTournament(gCtx, id, nil)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = s.groupRepo.ListByTournament(gCtx, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, id, repositories.MatchFilter{})
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %d bundle: %w", id, err)
	}

	populatePlayerListAvatarURLs(players, s.uploader)
	for _, m := range matches {
		populateMatchScreenshotURL(m, s.uploader)
	}

	tournament.Players = playersToValues(players)
	tournament.Matches = matchesToValues(matches)
	tournament.Groups = groupsToValues(groups)
	for i := range tournament.Groups {
		members := make([]models.Player, 0, tournament.GroupSize)
		for _, p := range tournament.Players {
			if p.GroupID != nil && *p.GroupID == tournament.Groups[i].ID {
				members = append(members, p)
			}
		}
		tournament.Groups[i].Players = engine.Rank(members)
	}

	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tournamentRepo.List(ctx, limit, offset)
}

// GenerateDraw moves an open tournament with a full approved roster into
// play. For the round-robin system it creates the groups and every group
// fixture; for knockout_only it pairs the pool into a first knockout round.
// The plan is computed in memory first and applied in one transaction, so a
// failed draw leaves nothing behind.
func (s *tournamentService) GenerateDraw(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	if tournament.Status != models.TournamentStatusOpen {
		return nil, ErrTournamentWrongStatus
	}

	approvedStatus := models.PlayerStatusApproved
	approvedPtrs, err := s.playerRepo.ListByTournament(ctx, id, &approvedStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved players: %w", err)
	}
	if len(approvedPtrs) < tournament.Capacity {
		return nil, fmt.Errorf("%w: %d approved of %d required",
			ErrNotEnoughApproved, len(approvedPtrs), tournament.Capacity)
	}
	approved := playersToValues(approvedPtrs)

	if tournament.System == models.SystemKnockoutOnly {
		return s.drawKnockoutOnly(ctx, tournament, approved)
	}

	groupSeeds, fixtureSeeds, err := engine.Draw(approved, tournament.GroupSize, s.rng)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin draw transaction: %w", err)
	}
	defer tx.Rollback()

	groupIDsByLabel := make(map[string]int, len(groupSeeds))
	for _, seed := range groupSeeds {
		group := &models.Group{TournamentID: id, Label: seed.Label}
		if err = s.groupRepo.Create(ctx, tx, group); err != nil {
			return nil, fmt.Errorf("failed to create group %s: %w", seed.Label, err)
		}
		groupIDsByLabel[seed.Label] = group.ID
		for _, p := range seed.Players {
			if err = s.playerRepo.AssignGroup(ctx, tx, p.ID, group.ID); err != nil {
				return nil, fmt.Errorf("failed to assign player %d to group %s: %w", p.ID, seed.Label, err)
			}
		}
	}

	for _, seed := range fixtureSeeds {
		groupID := groupIDsByLabel[seed.GroupLabel]
		label := seed.GroupLabel
		match := &models.Match{
			TournamentID: id,
			Stage:        seed.Stage,
			GroupID:      &groupID,
			GroupLabel:   &label,
			Round:        seed.Round,
			Player1ID:    seed.Player1ID,
			Player2ID:    seed.Player2ID,
			Player1Name:  seed.Player1Name,
			Player2Name:  seed.Player2Name,
			Status:       models.MatchStatusPendingResult,
		}
		if err = s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("failed to create fixture: %w", err)
		}
	}

	if err = s.transitionStatus(ctx, tx, tournament, models.TournamentStatusActive); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit draw for tournament %d: %w", id, err)
	}

	s.logger.Info("draw generated",
		slog.Int("tournament_id", id),
		slog.Int("groups", len(groupSeeds)),
		slog.Int("fixtures", len(fixtureSeeds)),
	)

	result, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastToTournament(id, live.EventDrawGenerated, result)
	}
	return result, nil
}

func (s *tournamentService) drawKnockoutOnly(ctx context.Context, tournament *models.Tournament, approved []models.Player) (*models.Tournament, error) {
	seeds, err := engine.PairKnockout(approved, 1, s.rng)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin draw transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = s.createMatchSeeds(ctx, tx, tournament.ID, seeds); err != nil {
		return nil, err
	}
	if err = s.transitionStatus(ctx, tx, tournament, models.TournamentStatusKnockout); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit draw for tournament %d: %w", tournament.ID, err)
	}

	s.logger.Info("knockout drawn",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("fixtures", len(seeds)),
	)

	result, err := s.GetByID(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastToTournament(tournament.ID, live.EventDrawGenerated, result)
	}
	return result, nil
}

func (s *tournamentService) createMatchSeeds(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, seeds []engine.MatchSeed) ([]models.Match, error) {
	created := make([]models.Match, 0, len(seeds))
	for _, seed := range seeds {
		match := &models.Match{
			TournamentID: tournamentID,
			Stage:        seed.Stage,
			Round:        seed.Round,
			Player1ID:    seed.Player1ID,
			Player2ID:    seed.Player2ID,
			Player1Name:  seed.Player1Name,
			Player2Name:  seed.Player2Name,
			Status:       models.MatchStatusPendingResult,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return nil, fmt.Errorf("failed to create knockout fixture: %w", err)
		}
		created = append(created, *match)
	}
	return created, nil
}

// SeedKnockout closes a fully approved group stage: the top qualifiers of
// every group advance to a freshly paired knockout round, everyone else is
// flagged eliminated.
func (s *tournamentService) SeedKnockout(ctx context.Context, id int) ([]models.Match, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	if tournament.Status != models.TournamentStatusActive {
		return nil, ErrTournamentWrongStatus
	}

	groupStage := models.MatchStageGroups
	total, err := s.matchRepo.CountByTournament(ctx, id, repositories.MatchFilter{Stage: &groupStage})
	if err != nil {
		return nil, fmt.Errorf("failed to count group matches: %w", err)
	}
	approvedStatus := models.MatchStatusApproved
	done, err := s.matchRepo.CountByTournament(ctx, id, repositories.MatchFilter{Stage: &groupStage, Status: &approvedStatus})
	if err != nil {
		return nil, fmt.Errorf("failed to count approved group matches: %w", err)
	}
	if done < total {
		return nil, fmt.Errorf("%w: %d of %d approved", ErrGroupStageNotFinished, done, total)
	}

	groups, err := s.groupRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	standings := make(map[int][]models.Player, len(groups))
	memberIDs := make([]int, 0, tournament.Capacity)
	for _, group := range groups {
		members, listErr := s.playerRepo.ListByGroup(ctx, group.ID)
		if listErr != nil {
			return nil, fmt.Errorf("failed to list players of group %d: %w", group.ID, listErr)
		}
		ranked := engine.Rank(playersToValues(members))
		standings[group.ID] = ranked
		for _, p := range ranked {
			memberIDs = append(memberIDs, p.ID)
		}
	}

	seeds, err := engine.SeedKnockout(standings, tournament.QualifiersPerGroup, s.rng)
	if err != nil {
		return nil, err
	}

	qualified := make(map[int]bool, len(seeds)*2)
	for _, seed := range seeds {
		qualified[seed.Player1ID] = true
		qualified[seed.Player2ID] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin seeding transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.createMatchSeeds(ctx, tx, id, seeds)
	if err != nil {
		return nil, err
	}
	for _, playerID := range memberIDs {
		if qualified[playerID] {
			continue
		}
		if err = s.playerRepo.SetEliminated(ctx, tx, playerID, true); err != nil {
			return nil, fmt.Errorf("failed to eliminate player %d: %w", playerID, err)
		}
	}
	if err = s.transitionStatus(ctx, tx, tournament, models.TournamentStatusKnockout); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit knockout seeding for tournament %d: %w", id, err)
	}

	s.logger.Info("knockout seeded",
		slog.Int("tournament_id", id),
		slog.Int("fixtures", len(created)),
	)
	if s.hub != nil {
		s.hub.BroadcastToTournament(id, live.EventKnockoutSeeded, created)
	}
	return created, nil
}

// AdvanceKnockout pairs the winners of the latest fully approved knockout
// round into the next one. The final itself never advances: approving it
// finishes the tournament.
func (s *tournamentService) AdvanceKnockout(ctx context.Context, id int) ([]models.Match, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	if tournament.Status != models.TournamentStatusKnockout {
		return nil, ErrTournamentWrongStatus
	}

	round, err := s.matchRepo.MaxKnockoutRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if round == 0 {
		return nil, ErrTournamentWrongStatus
	}

	knockoutStage := models.MatchStageKnockout
	roundMatches, err := s.matchRepo.ListByTournament(ctx, id, repositories.MatchFilter{Stage: &knockoutStage, Round: &round})
	if err != nil {
		return nil, fmt.Errorf("failed to list knockout round %d: %w", round, err)
	}

	winners := make([]models.Player, 0, len(roundMatches))
	for _, m := range roundMatches {
		if m.Status != models.MatchStatusApproved {
			return nil, fmt.Errorf("%w: match %d is %s", ErrKnockoutRoundNotFinished, m.ID, m.Status)
		}
		winnerID := m.WinnerID()
		name := m.Player1Name
		if winnerID == m.Player2ID {
			name = m.Player2Name
		}
		winners = append(winners, models.Player{ID: winnerID, GameName: name})
	}

	seeds, err := engine.PairKnockout(winners, round+1, s.rng)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin advancement transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.createMatchSeeds(ctx, tx, id, seeds)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit knockout round %d for tournament %d: %w", round+1, id, err)
	}

	s.logger.Info("knockout round advanced",
		slog.Int("tournament_id", id),
		slog.Int("round", round+1),
		slog.Int("fixtures", len(created)),
	)
	if s.hub != nil {
		s.hub.BroadcastToTournament(id, live.EventKnockoutSeeded, created)
	}
	return created, nil
}
