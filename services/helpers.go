package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/storage"
)

// Broadcaster pushes live events to tournament subscribers. Satisfied
// by live.Hub; a nil Broadcaster is allowed and disables pushes.
type Broadcaster interface {
	BroadcastToTournament(tournamentID int, eventType string, payload interface{})
}

func populatePlayerAvatarURL(p *models.Player, uploader storage.FileUploader) {
	if p != nil && p.AvatarKey != nil && *p.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*p.AvatarKey)
		if url != "" {
			p.AvatarURL = &url
		}
	}
}

func populatePlayerListAvatarURLs(players []*models.Player, uploader storage.FileUploader) {
	for _, p := range players {
		populatePlayerAvatarURL(p, uploader)
	}
}

func populateMatchScreenshotURL(m *models.Match, uploader storage.FileUploader) {
	if m != nil && m.ScreenshotKey != nil && *m.ScreenshotKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*m.ScreenshotKey)
		if url != "" {
			m.ScreenshotURL = &url
		}
	}
}

func playersToValues(slice []*models.Player) []models.Player {
	result := make([]models.Player, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func matchesToValues(slice []*models.Match) []models.Match {
	result := make([]models.Match, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func groupsToValues(slice []*models.Group) []models.Group {
	result := make([]models.Group, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentStatusOpen:     {models.TournamentStatusActive, models.TournamentStatusKnockout},
		models.TournamentStatusActive:   {models.TournamentStatusKnockout},
		models.TournamentStatusKnockout: {models.TournamentStatusFinished},
		models.TournamentStatusFinished: {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}
}

// buildObjectKey produces a collision-free storage key like
// "avatars/8f14e45f-....png".
func buildObjectKey(prefix, contentType string) (string, error) {
	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(prefix, "/") + "/" + uuid.NewString() + ext, nil
}
