package util

import "errors"

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrSessionCompleted      = errors.New("session already completed")
	ErrSessionConflict       = errors.New("session was modified concurrently")
	ErrQuestionNotUnlocked   = errors.New("question is not the active question")
	ErrAlreadySubmitted      = errors.New("team already submitted for this question")
	ErrQuestionInUse         = errors.New("question is referenced by a session")
	ErrInvalidCriteria       = errors.New("invalid rubric criteria")
	ErrNotManuallyMarkable   = errors.New("submission type is scored automatically")
	ErrEmailRegistered       = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrMissingRequiredAnswer = errors.New("missing required answer")
)
