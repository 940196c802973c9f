package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chainplay/fantasy-tournaments/models"
	"github.com/chainplay/fantasy-tournaments/repositories"
	"github.com/chainplay/fantasy-tournaments/settlement"
	"github.com/jonboulle/clockwork"
)

// maxJoinAttempts ограничивает количество перезапусков протокола при
// проигрыше CAS; после исчерпания наружу уходит ErrContention.
const maxJoinAttempts = 5

// JoinResult описывает исход успешного (или частично успешного)
// вступления. При ErrSettlementFailed Tournament заполнен, а
// TransactionHash пуст: место уже занято, но чек не выписан.
type JoinResult struct {
	Tournament      *models.Tournament `json:"tournament"`
	TransactionHash string             `json:"transaction_hash"`
}

// EnrollmentService реализует протокол вступления в турнир. Единственный
// примитив синхронизации - условное обновление счётчика в хранилище;
// никакие внутренние блокировки через вызовы стора и шлюза не удерживаются.
type EnrollmentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	gateway         settlement.Gateway
	publisher       TournamentPublisher
	clock           clockwork.Clock
	logger          *slog.Logger
}

func NewEnrollmentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	gateway settlement.Gateway,
	publisher TournamentPublisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		gateway:         gateway,
		publisher:       publisher,
		clock:           clock,
		logger:          logger,
	}
}

// Join проводит пользователя через протокол вступления:
//
//  1. читаем турнир, отсекаем неактивные и повторные вступления;
//  2. фиксируем инкремент счётчика условным обновлением - точка
//     линеаризации, проигравший перезапускает протокол с чтения;
//  3. после фиксации выписываем чек и создаём запись участника.
//
// Если шлюз расчётов отказал после фиксации, инкремент не откатывается:
// место остаётся занятым, наружу уходит ErrSettlementFailed вместе с
// обновлённым снапшотом, а запись участника не создаётся. Сверка такого
// "занятого места без участника" - обязанность административного контура.
func (s *EnrollmentService) Join(ctx context.Context, tournamentID, userAddress, amount string) (*JoinResult, error) {
	if tournamentID == "" || userAddress == "" || amount == "" {
		return nil, fmt.Errorf("%w: tournament id, user address and amount are required", ErrValidationFailed)
	}

	lostRace := false
	for attempt := 1; attempt <= maxJoinAttempts; attempt++ {
		tournament, err := s.tournamentRepo.GetByTournamentID(ctx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return nil, ErrTournamentNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if tournament.Status != models.StatusActive {
			// Проигравший гонку за последнее место получает Full, а не
			// NotAcceptingJoins: турнир закрылся конкурентным вступлением,
			// а не администратором.
			if lostRace && tournament.Status == models.StatusInactive &&
				tournament.Participants >= tournament.MaxParticipants {
				return nil, ErrTournamentFull
			}
			return nil, ErrNotAcceptingJoins
		}

		if _, err := s.participantRepo.FindByTournamentAndUser(ctx, tournamentID, userAddress); err == nil {
			return nil, ErrAlreadyJoined
		} else if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		newParticipants := tournament.Participants + 1
		if newParticipants > tournament.MaxParticipants {
			// Штатный исход: другой участник успел занять последнее место
			// между чтением и этой проверкой.
			return nil, ErrTournamentFull
		}
		newStatus := DeriveStatus(newParticipants, tournament.MaxParticipants, tournament.Status)

		now := s.clock.Now().UTC()
		err = s.tournamentRepo.UpdateParticipantsCAS(ctx, tournamentID,
			tournament.Participants, newParticipants, newStatus, now)
		if err != nil {
			if errors.Is(err, repositories.ErrVersionConflict) {
				lostRace = true
				s.logger.DebugContext(ctx, "join lost CAS race, retrying",
					slog.String("tournament_id", tournamentID),
					slog.Int("attempt", attempt),
				)
				continue
			}
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return nil, ErrTournamentNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		tournament.Participants = newParticipants
		tournament.Status = newStatus
		tournament.UpdatedAt = now
		if s.publisher != nil {
			s.publisher.PublishTournamentUpdate(tournament)
		}

		return s.settle(ctx, tournament, userAddress, amount)
	}

	return nil, ErrContention
}

// settle выписывает чек и создаёт запись участника. Инкремент счётчика к
// этому моменту уже зафиксирован.
func (s *EnrollmentService) settle(ctx context.Context, tournament *models.Tournament, userAddress, amount string) (*JoinResult, error) {
	txHash, err := s.gateway.IssueReceipt(ctx, tournament.ContractAddress, userAddress, amount)
	if err != nil {
		s.logger.ErrorContext(ctx, "settlement failed after seat was reserved",
			slog.String("tournament_id", tournament.TournamentID),
			slog.String("user_address", userAddress),
			slog.Any("error", err),
		)
		return &JoinResult{Tournament: tournament}, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	participant := &models.Participant{
		TournamentID:    tournament.TournamentID,
		UserAddress:     userAddress,
		AmountPaid:      amount,
		TransactionHash: txHash,
		JoinedAt:        s.clock.Now().UTC(),
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			// Конкурентный дубль проскочил между проверкой и вставкой.
			// Счётчик корректен: наш инкремент состоялся ровно один раз.
			return nil, ErrAlreadyJoined
		}
		return &JoinResult{Tournament: tournament}, fmt.Errorf("%w: record participant: %v", ErrStoreUnavailable, err)
	}

	s.logger.InfoContext(ctx, "user joined tournament",
		slog.String("tournament_id", tournament.TournamentID),
		slog.String("user_address", userAddress),
		slog.String("transaction_hash", txHash),
		slog.Int("participants", tournament.Participants),
	)
	return &JoinResult{Tournament: tournament, TransactionHash: txHash}, nil
}
