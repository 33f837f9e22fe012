package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pitchside/bracket-manager/engine"
	"github.com/pitchside/bracket-manager/live"
	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/repositories"
	"github.com/pitchside/bracket-manager/storage"
)

type ReportResultInput struct {
	MatchID int
	Score1  int
	Score2  int

	// Optional evidence screenshot.
	Screenshot            io.Reader
	ScreenshotContentType string
}

type MatchService interface {
	Report(ctx context.Context, input ReportResultInput) (*models.Match, error)
	Approve(ctx context.Context, matchID int) (*models.Match, error)
	Reject(ctx context.Context, matchID int) (*models.Match, error)
	GetByID(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error)
}

type matchService struct {
	db             *sql.DB
	matchRepo      repositories.MatchRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	hub            Broadcaster
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	hub Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
	}
}

func (s *matchService) loadMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

// Report records a claimed score on a pending fixture and queues it for
// admin review. Knockout fixtures must produce a winner, so a drawn score
// is rejected up front.
func (s *matchService) Report(ctx context.Context, input ReportResultInput) (*models.Match, error) {
	match, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Stage == models.MatchStageKnockout && input.Score1 == input.Score2 {
		return nil, ErrKnockoutDraw
	}

	// Validate the state transition and scores before touching storage, so
	// a bad report never leaves an orphaned upload behind.
	reported, err := engine.Report(*match, input.Score1, input.Score2, "")
	if err != nil {
		return nil, err
	}

	if input.Screenshot != nil {
		key, buildErr := buildObjectKey("screenshots", input.ScreenshotContentType)
		if buildErr != nil {
			return nil, buildErr
		}
		result, uploadErr := s.uploader.Upload(ctx, key, input.ScreenshotContentType, input.Screenshot)
		if uploadErr != nil {
			s.logger.Error("screenshot upload failed", slog.Int("match_id", match.ID), slog.Any("error", uploadErr))
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, uploadErr)
		}
		storedKey := result.Key
		reported.ScreenshotKey = &storedKey
	}

	if err = s.matchRepo.UpdateResult(ctx, nil, &reported); err != nil {
		return nil, fmt.Errorf("failed to store reported result for match %d: %w", match.ID, err)
	}

	s.logger.Info("result reported",
		slog.Int("tournament_id", reported.TournamentID),
		slog.Int("match_id", reported.ID),
		slog.Int("score1", input.Score1),
		slog.Int("score2", input.Score2),
	)

	populateMatchScreenshotURL(&reported, s.uploader)
	if s.hub != nil {
		s.hub.BroadcastToTournament(reported.TournamentID, live.EventMatchReported, reported)
	}
	return &reported, nil
}

// Approve confirms a reported result. For group matches the stat deltas
// land on both players in the same transaction as the status flip. For
// knockout matches the loser is flagged eliminated, and approving the
// final crowns the champion and finishes the tournament.
func (s *matchService) Approve(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	approved, delta1, delta2, err := engine.Approve(*match)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approval transaction: %w", err)
	}
	defer tx.Rollback()

	if err = s.matchRepo.UpdateResult(ctx, tx, &approved); err != nil {
		return nil, fmt.Errorf("failed to store approval for match %d: %w", matchID, err)
	}

	champion := false
	if approved.Stage == models.MatchStageGroups {
		if err = s.playerRepo.ApplyStatDelta(ctx, tx, approved.Player1ID, delta1.Points, delta1.GoalsFor, delta1.GoalsAgainst); err != nil {
			return nil, fmt.Errorf("failed to apply stats to player %d: %w", approved.Player1ID, err)
		}
		if err = s.playerRepo.ApplyStatDelta(ctx, tx, approved.Player2ID, delta2.Points, delta2.GoalsFor, delta2.GoalsAgainst); err != nil {
			return nil, fmt.Errorf("failed to apply stats to player %d: %w", approved.Player2ID, err)
		}
	} else {
		if err = s.playerRepo.SetEliminated(ctx, tx, approved.LoserID(), true); err != nil {
			return nil, fmt.Errorf("failed to eliminate player %d: %w", approved.LoserID(), err)
		}
		champion, err = s.maybeCrownChampion(ctx, tx, &approved)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval for match %d: %w", matchID, err)
	}

	s.logger.Info("result approved",
		slog.Int("tournament_id", approved.TournamentID),
		slog.Int("match_id", approved.ID),
		slog.Bool("champion_decided", champion),
	)

	populateMatchScreenshotURL(&approved, s.uploader)
	if s.hub != nil {
		s.hub.BroadcastToTournament(approved.TournamentID, live.EventMatchApproved, approved)
		if champion {
			s.hub.BroadcastToTournament(approved.TournamentID, live.EventChampionDecided, map[string]int{
				"champion_id": approved.WinnerID(),
			})
		}
	}
	return &approved, nil
}

// isFinal reports whether the knockout match is the only fixture of its
// round, which makes it the final.
func (s *matchService) isFinal(ctx context.Context, match *models.Match) (bool, error) {
	knockoutStage := models.MatchStageKnockout
	inRound, err := s.matchRepo.CountByTournament(ctx, match.TournamentID, repositories.MatchFilter{
		Stage: &knockoutStage,
		Round: &match.Round,
	})
	if err != nil {
		return false, fmt.Errorf("failed to count round %d fixtures: %w", match.Round, err)
	}
	return inRound == 1, nil
}

// maybeCrownChampion finishes the tournament when the approved knockout
// match is the final.
func (s *matchService) maybeCrownChampion(ctx context.Context, tx *sql.Tx, match *models.Match) (bool, error) {
	final, err := s.isFinal(ctx, match)
	if err != nil {
		return false, err
	}
	if !final {
		return false, nil
	}

	if err = s.tournamentRepo.SetChampion(ctx, tx, match.TournamentID, match.WinnerID()); err != nil {
		return false, fmt.Errorf("failed to set champion for tournament %d: %w", match.TournamentID, err)
	}
	return true, nil
}

// Reject sends a reported result back for a re-report, clearing the score
// and evidence. A result that had already been approved is reversed first:
// the stat deltas it applied are subtracted before the reset, so standings
// end exactly as if it was never approved.
func (s *matchService) Reject(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rejection transaction: %w", err)
	}
	defer tx.Rollback()

	working := *match
	if working.Status == models.MatchStatusApproved {
		delta1, delta2, deltaErr := engine.Deltas(working)
		if deltaErr != nil {
			return nil, deltaErr
		}
		if working.Stage == models.MatchStageGroups {
			d1, d2 := delta1.Negated(), delta2.Negated()
			if err = s.playerRepo.ApplyStatDelta(ctx, tx, working.Player1ID, d1.Points, d1.GoalsFor, d1.GoalsAgainst); err != nil {
				return nil, fmt.Errorf("failed to reverse stats of player %d: %w", working.Player1ID, err)
			}
			if err = s.playerRepo.ApplyStatDelta(ctx, tx, working.Player2ID, d2.Points, d2.GoalsFor, d2.GoalsAgainst); err != nil {
				return nil, fmt.Errorf("failed to reverse stats of player %d: %w", working.Player2ID, err)
			}
		} else {
			if err = s.playerRepo.SetEliminated(ctx, tx, working.LoserID(), false); err != nil {
				return nil, fmt.Errorf("failed to reinstate player %d: %w", working.LoserID(), err)
			}
			// Rejecting the approved final takes back the title too: the
			// tournament returns to the knockout stage with no champion.
			final, finalErr := s.isFinal(ctx, &working)
			if finalErr != nil {
				return nil, finalErr
			}
			if final {
				if err = s.tournamentRepo.ClearChampion(ctx, tx, working.TournamentID); err != nil {
					return nil, fmt.Errorf("failed to clear champion for tournament %d: %w", working.TournamentID, err)
				}
			}
		}
		working.Status = models.MatchStatusPendingApproval
	}

	oldScreenshotKey := working.ScreenshotKey
	rejected, err := engine.Reject(working)
	if err != nil {
		return nil, err
	}
	if err = s.matchRepo.UpdateResult(ctx, tx, &rejected); err != nil {
		return nil, fmt.Errorf("failed to store rejection for match %d: %w", matchID, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection for match %d: %w", matchID, err)
	}

	// Orphaned evidence is deleted best effort; the match row no longer
	// references it either way.
	if oldScreenshotKey != nil && *oldScreenshotKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldScreenshotKey); delErr != nil {
			s.logger.Warn("failed to delete rejected screenshot",
				slog.Int("match_id", matchID),
				slog.String("key", *oldScreenshotKey),
				slog.Any("error", delErr),
			)
		}
	}

	s.logger.Info("result rejected",
		slog.Int("tournament_id", rejected.TournamentID),
		slog.Int("match_id", rejected.ID),
	)
	if s.hub != nil {
		s.hub.BroadcastToTournament(rejected.TournamentID, live.EventMatchRejected, rejected)
	}
	return &rejected, nil
}

func (s *matchService) GetByID(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	populateMatchScreenshotURL(match, s.uploader)
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	for _, m := range matches {
		populateMatchScreenshotURL(m, s.uploader)
	}
	return matches, nil
}
