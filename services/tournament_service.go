package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chainplay/fantasy-tournaments/models"
	"github.com/chainplay/fantasy-tournaments/repositories"
	"github.com/chainplay/fantasy-tournaments/settlement"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const defaultMaxParticipants = 100

// TournamentPublisher получает снапшот турнира после каждого
// зафиксированного изменения счётчика или статуса.
type TournamentPublisher interface {
	PublishTournamentUpdate(t *models.Tournament)
}

// CreateTournamentInput - предвалидированный запрос на создание турнира.
type CreateTournamentInput struct {
	Name            string                   `json:"name"`
	Sport           string                   `json:"sport"`
	EntryFee        string                   `json:"entry_fee"`
	PrizePool       string                   `json:"prize_pool"`
	EndTime         time.Time                `json:"end_time"`
	CreatorAddress  string                   `json:"creator_address"`
	Status          *models.TournamentStatus `json:"status,omitempty"`
	Participants    *int                     `json:"participants,omitempty"`
	MaxParticipants *int                     `json:"max_participants,omitempty"`
}

// TournamentService отвечает за жизненный цикл турниров и чтение.
type TournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	gateway         settlement.Gateway
	publisher       TournamentPublisher
	clock           clockwork.Clock
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	gateway settlement.Gateway,
	publisher TournamentPublisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		gateway:         gateway,
		publisher:       publisher,
		clock:           clock,
		logger:          logger,
	}
}

// DeriveStatus is the single source of truth for status derivation.
// Completed and Cancelled are absorbing; a full tournament is Inactive.
func DeriveStatus(participants, maxParticipants int, previous models.TournamentStatus) models.TournamentStatus {
	if previous.IsTerminal() {
		return previous
	}
	if participants >= maxParticipants {
		return models.StatusInactive
	}
	return models.StatusActive
}

// Create deploys the tournament contract, assigns a fresh id and persists
// the tournament.
func (s *TournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" || input.Sport == "" || input.EntryFee == "" ||
		input.PrizePool == "" || input.CreatorAddress == "" || input.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: name, sport, entry_fee, prize_pool, creator_address and end_time are required", ErrValidationFailed)
	}

	maxParticipants := defaultMaxParticipants
	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, ErrTournamentInvalidCapacity
		}
		maxParticipants = *input.MaxParticipants
	}

	participants := 0
	if input.Participants != nil {
		if *input.Participants < 0 {
			return nil, fmt.Errorf("%w: initial participants cannot be negative", ErrValidationFailed)
		}
		if *input.Participants > maxParticipants {
			return nil, ErrParticipantsExceedCapacity
		}
		participants = *input.Participants
	}

	status := models.StatusActive
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrTournamentInvalidStatus
		}
		status = *input.Status
	}

	deployed, err := s.gateway.DeployContract(ctx, settlement.DeployRequest{
		Name:            input.Name,
		Sport:           input.Sport,
		EntryFee:        input.EntryFee,
		PrizePool:       input.PrizePool,
		MaxParticipants: maxParticipants,
		CreatorAddress:  input.CreatorAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: deploy tournament contract: %v", ErrSettlementFailed, err)
	}

	now := s.clock.Now().UTC()
	tournament := &models.Tournament{
		TournamentID:    uuid.NewString(),
		Name:            input.Name,
		Sport:           input.Sport,
		EntryFee:        input.EntryFee,
		PrizePool:       input.PrizePool,
		Status:          status,
		Participants:    participants,
		MaxParticipants: maxParticipants,
		ContractAddress: deployed.ContractAddress,
		CreatorAddress:  input.CreatorAddress,
		EndTime:         input.EndTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentIDConflict) {
			// Должно быть невозможно для свежего UUID, но не глотаем.
			return nil, ErrDuplicateTournamentID
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", tournament.TournamentID),
		slog.String("contract_address", tournament.ContractAddress),
		slog.String("deploy_tx", deployed.TransactionHash),
	)
	return tournament, nil
}

// List возвращает турниры, опционально отфильтрованные по виду спорта.
func (s *TournamentService) List(ctx context.Context, sport *string) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{Sport: sport})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return tournaments, nil
}

func (s *TournamentService) GetByTournamentID(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByTournamentID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return tournament, nil
}

func (s *TournamentService) ListParticipants(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	if _, err := s.GetByTournamentID(ctx, tournamentID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return participants, nil
}

// CloseExpired переводит активные турниры с истёкшим end_time в Inactive.
// Запускается планировщиком из main.
func (s *TournamentService) CloseExpired(ctx context.Context) error {
	now := s.clock.Now().UTC()
	expired, err := s.tournamentRepo.ListExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, t := range expired {
		if err := s.tournamentRepo.UpdateStatus(ctx, t.TournamentID, models.StatusInactive, now); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		t.Status = models.StatusInactive
		t.UpdatedAt = now
		if s.publisher != nil {
			s.publisher.PublishTournamentUpdate(t)
		}
		s.logger.InfoContext(ctx, "tournament closed by expiry",
			slog.String("tournament_id", t.TournamentID),
			slog.Time("end_time", t.EndTime),
		)
	}
	return nil
}
