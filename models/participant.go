package models

import "time"

// Participant фиксирует одно успешное вступление пользователя в турнир.
// Запись создаётся ровно один раз и после этого не изменяется.
type Participant struct {
	ID              int       `json:"-" db:"id"`
	TournamentID    string    `json:"tournament_id" db:"tournament_id"`
	UserAddress     string    `json:"user_address" db:"user_address"`
	AmountPaid      string    `json:"amount_paid" db:"amount_paid"`
	TransactionHash string    `json:"transaction_hash" db:"transaction_hash"`
	JoinedAt        time.Time `json:"joined_at" db:"joined_at"`
}
