package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chainplay/fantasy-tournaments/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("participant conflict: user already joined this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByTournamentAndUser(ctx context.Context, tournamentID, userAddress string) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error)
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_address, amount_paid, transaction_hash, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		p.TournamentID, p.UserAddress, p.AmountPaid, p.TransactionHash, p.JoinedAt,
	).Scan(&p.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "participants_tournament_id_user_address_key" {
				return ErrParticipantConflict
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) FindByTournamentAndUser(ctx context.Context, tournamentID, userAddress string) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_address, amount_paid, transaction_hash, joined_at
		FROM participants
		WHERE tournament_id = $1 AND user_address = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, userAddress).Scan(
		&p.ID, &p.TournamentID, &p.UserAddress, &p.AmountPaid, &p.TransactionHash, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_address, amount_paid, transaction_hash, joined_at
		FROM participants
		WHERE tournament_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if scanErr := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserAddress, &p.AmountPaid, &p.TransactionHash, &p.JoinedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}
