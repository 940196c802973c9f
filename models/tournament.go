package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusActive    TournamentStatus = "Active"
	StatusInactive  TournamentStatus = "Inactive"
	StatusCompleted TournamentStatus = "Completed"
	StatusCancelled TournamentStatus = "Cancelled"
)

// IsValid reports whether the status is one of the four known values.
func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status can never change again.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Tournament представляет турнир. Денежные суммы хранятся как десятичные
// строки, чтобы не накапливать погрешность при расчётах с леджером.
type Tournament struct {
	ID              int              `json:"-" db:"id"`
	TournamentID    string           `json:"tournament_id" db:"tournament_id"`
	Name            string           `json:"name" db:"name"`
	Sport           string           `json:"sport" db:"sport"`
	EntryFee        string           `json:"entry_fee" db:"entry_fee"`
	PrizePool       string           `json:"prize_pool" db:"prize_pool"`
	Status          TournamentStatus `json:"status" db:"status"`
	Participants    int              `json:"participants" db:"participants"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	ContractAddress string           `json:"contract_address" db:"contract_address"`
	CreatorAddress  string           `json:"creator_address" db:"creator_address"`
	EndTime         time.Time        `json:"end_time" db:"end_time"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}
