package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chainplay/fantasy-tournaments/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrTournamentIDConflict = errors.New("tournament id already exists")
	ErrVersionConflict      = errors.New("tournament participant count changed concurrently")
)

type ListTournamentsFilter struct {
	Sport  *string
	Status *models.TournamentStatus
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByTournamentID(ctx context.Context, tournamentID string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)

	// UpdateParticipantsCAS commits the new participant count and derived
	// status only if the stored count still equals expectedParticipants.
	// Returns ErrVersionConflict when another writer committed first. This
	// is the single synchronization primitive the join protocol relies on.
	UpdateParticipantsCAS(ctx context.Context, tournamentID string, expectedParticipants, newParticipants int, newStatus models.TournamentStatus, updatedAt time.Time) error

	UpdateStatus(ctx context.Context, tournamentID string, status models.TournamentStatus, updatedAt time.Time) error
	ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, tournament_id, name, sport, entry_fee, prize_pool, status,
	participants, max_participants, contract_address, creator_address,
	end_time, created_at, updated_at`

func scanTournament(rowScanner interface {
	Scan(dest ...interface{}) error
}, t *models.Tournament) error {
	return rowScanner.Scan(
		&t.ID, &t.TournamentID, &t.Name, &t.Sport, &t.EntryFee, &t.PrizePool,
		&t.Status, &t.Participants, &t.MaxParticipants, &t.ContractAddress,
		&t.CreatorAddress, &t.EndTime, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			tournament_id, name, sport, entry_fee, prize_pool, status,
			participants, max_participants, contract_address, creator_address,
			end_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		t.TournamentID, t.Name, t.Sport, t.EntryFee, t.PrizePool, t.Status,
		t.Participants, t.MaxParticipants, t.ContractAddress, t.CreatorAddress,
		t.EndTime, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "tournaments_tournament_id_key" {
				return ErrTournamentIDConflict
			}
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByTournamentID(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE tournament_id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, tournamentID), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Sport != nil {
		query += fmt.Sprintf(" AND sport = $%d", argID)
		args = append(args, *filter.Sport)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

// UpdateParticipantsCAS is a compare-and-swap on the participants column.
// Zero affected rows means either the row is gone or the expected count no
// longer holds; the follow-up read tells the two apart.
func (r *postgresTournamentRepository) UpdateParticipantsCAS(ctx context.Context, tournamentID string, expectedParticipants, newParticipants int, newStatus models.TournamentStatus, updatedAt time.Time) error {
	query := `
		UPDATE tournaments
		SET participants = $1, status = $2, updated_at = $3
		WHERE tournament_id = $4 AND participants = $5`

	result, err := r.db.ExecContext(ctx, query,
		newParticipants, newStatus, updatedAt, tournamentID, expectedParticipants,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament participants: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByTournamentID(ctx, tournamentID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, tournamentID string, status models.TournamentStatus, updatedAt time.Time) error {
	query := `UPDATE tournaments SET status = $1, updated_at = $2 WHERE tournament_id = $3`
	result, err := r.db.ExecContext(ctx, query, status, updatedAt, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListExpired returns tournaments that are still accepting joins even
// though their scheduled end time has passed.
func (r *postgresTournamentRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE status = $1 AND end_time <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.StatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan expired tournament: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired tournament rows: %w", err)
	}
	return tournaments, nil
}
