package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chainplay/fantasy-tournaments/models"
	"github.com/chainplay/fantasy-tournaments/repositories"
	"github.com/chainplay/fantasy-tournaments/settlement"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTournamentStore is an in-memory TournamentRepository with the same
// compare-and-swap semantics the postgres implementation provides.
type fakeTournamentStore struct {
	mu          sync.Mutex
	tournaments map[string]*models.Tournament

	createErr error
	getErr    error
	casErr    func(attempt int) error
	casCalls  int
}

func newFakeTournamentStore(tournaments ...*models.Tournament) *fakeTournamentStore {
	s := &fakeTournamentStore{tournaments: make(map[string]*models.Tournament)}
	for _, t := range tournaments {
		copied := *t
		s.tournaments[t.TournamentID] = &copied
	}
	return s
}

func (s *fakeTournamentStore) Create(ctx context.Context, t *models.Tournament) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tournaments[t.TournamentID]; ok {
		return repositories.ErrTournamentIDConflict
	}
	copied := *t
	s.tournaments[t.TournamentID] = &copied
	return nil
}

func (s *fakeTournamentStore) GetByTournamentID(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[tournamentID]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTournamentStore) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		if filter.Sport != nil && t.Sport != *filter.Sport {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *fakeTournamentStore) UpdateParticipantsCAS(ctx context.Context, tournamentID string, expectedParticipants, newParticipants int, newStatus models.TournamentStatus, updatedAt time.Time) error {
	s.mu.Lock()
	s.casCalls++
	calls := s.casCalls
	s.mu.Unlock()
	if s.casErr != nil {
		if err := s.casErr(calls); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Participants != expectedParticipants {
		return repositories.ErrVersionConflict
	}
	t.Participants = newParticipants
	t.Status = newStatus
	t.UpdatedAt = updatedAt
	return nil
}

func (s *fakeTournamentStore) UpdateStatus(ctx context.Context, tournamentID string, status models.TournamentStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	return nil
}

func (s *fakeTournamentStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Tournament
	for _, t := range s.tournaments {
		if t.Status == models.StatusActive && !t.EndTime.After(now) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeTournamentStore) snapshot(tournamentID string) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tournaments[tournamentID]
}

// fakeParticipantStore enforces the (tournament_id, user_address)
// uniqueness the postgres schema guarantees.
type fakeParticipantStore struct {
	mu           sync.Mutex
	participants map[string]*models.Participant

	createErr func(p *models.Participant) error
}

func newFakeParticipantStore() *fakeParticipantStore {
	return &fakeParticipantStore{participants: make(map[string]*models.Participant)}
}

func participantKey(tournamentID, userAddress string) string {
	return tournamentID + "|" + userAddress
}

func (s *fakeParticipantStore) Create(ctx context.Context, p *models.Participant) error {
	if s.createErr != nil {
		if err := s.createErr(p); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := participantKey(p.TournamentID, p.UserAddress)
	if _, ok := s.participants[key]; ok {
		return repositories.ErrParticipantConflict
	}
	copied := *p
	s.participants[key] = &copied
	return nil
}

func (s *fakeParticipantStore) FindByTournamentAndUser(ctx context.Context, tournamentID, userAddress string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey(tournamentID, userAddress)]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakeParticipantStore) ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, 0)
	for _, p := range s.participants {
		if p.TournamentID == tournamentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeParticipantStore) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	list, _ := s.ListByTournament(ctx, tournamentID)
	return len(list), nil
}

// fakeGateway issues sequential receipts and can be told to fail.
type fakeGateway struct {
	mu       sync.Mutex
	receipts int
	deploys  int

	deployErr  error
	receiptErr error
}

func (g *fakeGateway) DeployContract(ctx context.Context, req settlement.DeployRequest) (*settlement.DeployResult, error) {
	if g.deployErr != nil {
		return nil, g.deployErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deploys++
	return &settlement.DeployResult{
		ContractAddress: fmt.Sprintf("0xc0ffee%034d", g.deploys),
		TransactionHash: fmt.Sprintf("0xdeploy%058d", g.deploys),
	}, nil
}

func (g *fakeGateway) IssueReceipt(ctx context.Context, contractAddress, userAddress, amount string) (string, error) {
	if g.receiptErr != nil {
		return "", g.receiptErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.receipts++
	return fmt.Sprintf("0xreceipt%057d", g.receipts), nil
}

func (g *fakeGateway) receiptCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.receipts
}

type fakePublisher struct {
	mu      sync.Mutex
	updates []models.Tournament
}

func (p *fakePublisher) PublishTournamentUpdate(t *models.Tournament) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, *t)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}
