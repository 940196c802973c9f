package services

import "errors"

// Общие ошибки, используемые сервисами и маппингом HTTP.
var (
	// Ресурсы
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed           = errors.New("validation failed")
	ErrTournamentInvalidCapacity  = errors.New("tournament max participants must be positive")
	ErrParticipantsExceedCapacity = errors.New("initial participants cannot exceed max participants")
	ErrTournamentInvalidStatus    = errors.New("invalid tournament status provided")

	// Исходы вступления. Full и NotAcceptingJoins различаются намеренно:
	// первое — штатный проигрыш гонки за место, второе — турнир закрыт.
	ErrNotAcceptingJoins = errors.New("tournament is not accepting joins")
	ErrTournamentFull    = errors.New("tournament is full")
	ErrAlreadyJoined     = errors.New("user already joined this tournament")

	// Конфликты и отказ коллабораторов
	ErrDuplicateTournamentID = errors.New("tournament id already exists")
	ErrContention            = errors.New("join retries exhausted due to concurrent updates")
	ErrSettlementFailed      = errors.New("settlement failed, seat remains reserved")
	ErrStoreUnavailable      = errors.New("tournament store unavailable")
)
