package services

import "errors"

// Errors shared across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed          = errors.New("validation failed")
	ErrPlayerNameRequired        = errors.New("player game name is required")
	ErrPlayerNameTaken           = errors.New("game name is already taken in this tournament")
	ErrPlayerAlreadyReviewed     = errors.New("player registration has already been reviewed")
	ErrRegistrationNotOpen       = errors.New("tournament registration is not open")
	ErrTournamentFull            = errors.New("tournament already has a full roster of approved players")
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity = errors.New("tournament capacity must fit a whole number of groups")
	ErrTournamentWrongStatus     = errors.New("operation not allowed in the tournament's current status")
	ErrNotEnoughApproved         = errors.New("not enough approved players to run the draw")
	ErrGroupStageNotFinished     = errors.New("group stage still has unapproved matches")
	ErrKnockoutRoundNotFinished  = errors.New("knockout round still has unapproved matches")
	ErrKnockoutDraw              = errors.New("knockout matches cannot end in a draw")
	ErrUploadFailed              = errors.New("file upload failed")
	ErrUnsupportedMediaType      = errors.New("unsupported image content type")

	// Conflicts
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenGeneration    = errors.New("failed to generate access token")

	// Entity-specific lookups
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrMatchNotFound      = errors.New("match not found")
)
