package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrTemplateNotFound = errors.New("template not found")
	ErrDiplomaNotFound  = errors.New("diploma template not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrInvalidTournamentURL  = errors.New("invalid tournament URL")
	ErrInvalidTournamentKind = errors.New("invalid tournament type")
	ErrInvalidClockTime      = errors.New("invalid clock time")

	ErrAuthenticationFailed = errors.New("authentication failed")
)
