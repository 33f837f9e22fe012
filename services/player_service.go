package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/repositories"
	"github.com/pitchside/bracket-manager/storage"
)

type RegisterPlayerInput struct {
	TournamentID int
	GameName     string
	RealName     string

	// Optional avatar image.
	Avatar            io.Reader
	AvatarContentType string
}

type PlayerService interface {
	Register(ctx context.Context, input RegisterPlayerInput) (*models.Player, error)
	Approve(ctx context.Context, playerID int) (*models.Player, error)
	GetByID(ctx context.Context, playerID int) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error)
}

type playerService struct {
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *playerService) Register(ctx context.Context, input RegisterPlayerInput) (*models.Player, error) {
	gameName := strings.TrimSpace(input.GameName)
	if gameName == "" {
		return nil, ErrPlayerNameRequired
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", input.TournamentID, err)
	}
	if tournament.Status != models.TournamentStatusOpen {
		return nil, ErrRegistrationNotOpen
	}

	taken, err := s.playerRepo.GameNameExists(ctx, input.TournamentID, gameName)
	if err != nil {
		return nil, fmt.Errorf("failed to check game name uniqueness: %w", err)
	}
	if taken {
		return nil, ErrPlayerNameTaken
	}

	player := &models.Player{
		TournamentID: input.TournamentID,
		GameName:     gameName,
		RealName:     strings.TrimSpace(input.RealName),
		Status:       models.PlayerStatusPending,
	}

	if input.Avatar != nil {
		key, uploadErr := s.uploadAvatar(ctx, input.Avatar, input.AvatarContentType)
		if uploadErr != nil {
			return nil, uploadErr
		}
		player.AvatarKey = &key
	}

	if err = s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create player registration: %w", err)
	}

	s.logger.Info("player registered",
		slog.Int("tournament_id", input.TournamentID),
		slog.Int("player_id", player.ID),
		slog.String("game_name", player.GameName),
	)

	populatePlayerAvatarURL(player, s.uploader)
	return player, nil
}

func (s *playerService) uploadAvatar(ctx context.Context, avatar io.Reader, contentType string) (string, error) {
	key, err := buildObjectKey("avatars", contentType)
	if err != nil {
		return "", err
	}
	result, err := s.uploader.Upload(ctx, key, contentType, avatar)
	if err != nil {
		s.logger.Error("avatar upload failed", slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return result.Key, nil
}

func (s *playerService) Approve(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	if player.Status != models.PlayerStatusPending {
		return nil, ErrPlayerAlreadyReviewed
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, player.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", player.TournamentID, err)
	}
	if tournament.Status != models.TournamentStatusOpen {
		return nil, ErrTournamentWrongStatus
	}

	approvedStatus := models.PlayerStatusApproved
	approved, err := s.playerRepo.ListByTournament(ctx, player.TournamentID, &approvedStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved players: %w", err)
	}
	if len(approved) >= tournament.Capacity {
		return nil, ErrTournamentFull
	}

	if err = s.playerRepo.UpdateStatus(ctx, playerID, models.PlayerStatusApproved); err != nil {
		return nil, fmt.Errorf("failed to approve player %d: %w", playerID, err)
	}
	player.Status = models.PlayerStatusApproved

	s.logger.Info("player approved",
		slog.Int("tournament_id", player.TournamentID),
		slog.Int("player_id", player.ID),
		slog.Int("approved_count", len(approved)+1),
	)

	populatePlayerAvatarURL(player, s.uploader)
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	populatePlayerAvatarURL(player, s.uploader)
	return player, nil
}

func (s *playerService) ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error) {
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	populatePlayerListAvatarURLs(players, s.uploader)
	return players, nil
}
