package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/events"
	"github.com/work-marketplace/backend/internal/models"
	"github.com/work-marketplace/backend/internal/repositories"
)

// In-memory stores mirroring the conditional-update semantics of the pgx
// repositories: every guarded flip checks the pre-state under a lock and
// reports whether a row changed.

type fakeContractStore struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*models.Contract

	// beforeStatusUpdate runs once at the next UpdateStatusIf call, before
	// the guard is evaluated. Lets tests interleave a concurrent flip.
	beforeStatusUpdate func()
}

func newFakeContractStore() *fakeContractStore {
	return &fakeContractStore{contracts: make(map[uuid.UUID]*models.Contract)}
}

func (s *fakeContractStore) Create(_ context.Context, c *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.contracts[c.ID] = &cp
	return nil
}

func (s *fakeContractStore) GetByID(_ context.Context, id uuid.UUID) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (s *fakeContractStore) List(_ context.Context, f repositories.ContractFilter) ([]models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Contract
	for _, c := range s.contracts {
		if f.ClientUserID != nil && c.ClientUserID != *f.ClientUserID {
			continue
		}
		if f.FreelancerUserID != nil && c.FreelancerUserID != *f.FreelancerUserID {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeContractStore) SignAsClient(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.ClientSignedAt != nil {
		return false, nil
	}
	now := time.Now()
	c.ClientSignedAt = &now
	return true, nil
}

func (s *fakeContractStore) SignAsFreelancer(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.FreelancerSignedAt != nil {
		return false, nil
	}
	now := time.Now()
	c.FreelancerSignedAt = &now
	return true, nil
}

func (s *fakeContractStore) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	if hook := s.beforeStatusUpdate; hook != nil {
		s.beforeStatusUpdate = nil
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (s *fakeContractStore) MarkSubmitted(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != models.ContractStatusActive {
		return false, nil
	}
	now := time.Now()
	c.Status = models.ContractStatusPendingCompletion
	c.SubmittedAt = &now
	return true, nil
}

func (s *fakeContractStore) Settle(_ context.Context, id uuid.UUID, fee, net decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != models.ContractStatusPendingCompletion {
		return false, nil
	}
	now := time.Now()
	c.Status = models.ContractStatusCompleted
	c.FeeAmount = &fee
	c.NetAmount = &net
	c.PaymentReleasedAt = &now
	return true, nil
}

func (s *fakeContractStore) RevertToActive(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != models.ContractStatusPendingCompletion {
		return false, nil
	}
	c.Status = models.ContractStatusActive
	c.SubmittedAt = nil
	return true, nil
}

func (s *fakeContractStore) Cancel(_ context.Context, id uuid.UUID, from string, reason *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = models.ContractStatusCancelled
	c.CancellationReason = reason
	return true, nil
}

func (s *fakeContractStore) CompleteFromActive(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != models.ContractStatusActive {
		return false, nil
	}
	now := time.Now()
	c.Status = models.ContractStatusCompleted
	c.PaymentReleasedAt = &now
	return true, nil
}

func (s *fakeContractStore) UpdateTerms(_ context.Context, c *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.contracts[c.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = c.Title
	stored.Description = c.Description
	stored.TotalAmount = c.TotalAmount
	stored.StartDate = c.StartDate
	stored.EndDate = c.EndDate
	return nil
}

type fakeMilestoneStore struct {
	mu         sync.Mutex
	milestones map[uuid.UUID]*models.Milestone
	contracts  *fakeContractStore

	// beforePay runs once at the next Pay call, before the guards are
	// evaluated. Lets tests interleave a concurrent freeze.
	beforePay func()
}

func newFakeMilestoneStore() *fakeMilestoneStore {
	return &fakeMilestoneStore{milestones: make(map[uuid.UUID]*models.Milestone)}
}

func (s *fakeMilestoneStore) Create(_ context.Context, m *models.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	s.milestones[m.ID] = &cp
	return nil
}

func (s *fakeMilestoneStore) GetByID(_ context.Context, id uuid.UUID) (*models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMilestoneStore) ListByContract(_ context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Milestone
	for _, m := range s.milestones {
		if m.ContractID == contractID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMilestoneStore) Submit(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok || (m.Status != models.MilestoneStatusPending && m.Status != models.MilestoneStatusRejected) {
		return false, nil
	}
	now := time.Now()
	m.Status = models.MilestoneStatusSubmitted
	m.SubmittedAt = &now
	return true, nil
}

func (s *fakeMilestoneStore) Pay(ctx context.Context, id uuid.UUID, fee, net decimal.Decimal, approvalNote *string) (bool, error) {
	if hook := s.beforePay; hook != nil {
		s.beforePay = nil
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok || m.Status != models.MilestoneStatusSubmitted {
		return false, nil
	}
	// Mirrors the repository's escrow-freeze predicate on the payment row.
	if s.contracts != nil {
		contract, err := s.contracts.GetByID(ctx, m.ContractID)
		if err != nil || contract.Status == models.ContractStatusEscrowFrozen {
			return false, nil
		}
	}
	now := time.Now()
	m.Status = models.MilestoneStatusPaid
	m.FeeAmount = &fee
	m.NetAmount = &net
	m.ApprovalNote = approvalNote
	m.PaidAt = &now
	return true, nil
}

func (s *fakeMilestoneStore) Reject(_ context.Context, id uuid.UUID, rejectionNote string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok || m.Status != models.MilestoneStatusSubmitted {
		return false, nil
	}
	m.Status = models.MilestoneStatusRejected
	m.RejectionNote = &rejectionNote
	m.SubmittedAt = nil
	return true, nil
}

func (s *fakeMilestoneStore) CountUnpaid(_ context.Context, contractID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.milestones {
		if m.ContractID == contractID && m.Status != models.MilestoneStatusPaid {
			n++
		}
	}
	return n, nil
}

func (s *fakeMilestoneStore) DeletePending(_ context.Context, contractID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.milestones {
		if m.ContractID == contractID && m.Status == models.MilestoneStatusPending {
			delete(s.milestones, id)
		}
	}
	return nil
}

type fakeTransactionStore struct {
	mu  sync.Mutex
	txs []models.PlatformTransaction
	err error
}

func (s *fakeTransactionStore) Create(_ context.Context, t *models.PlatformTransaction) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	s.txs = append(s.txs, *t)
	return nil
}

func (s *fakeTransactionStore) ListByContract(_ context.Context, contractID uuid.UUID) ([]models.PlatformTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PlatformTransaction
	for _, t := range s.txs {
		if t.ContractID == contractID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeProfileStore struct {
	mu            sync.Mutex
	earned        map[uuid.UUID]decimal.Decimal
	spent         map[uuid.UUID]decimal.Decimal
	completedJobs map[uuid.UUID]int
	ratings       map[uuid.UUID][]int
	trustScores   map[uuid.UUID]int
	suspended     map[uuid.UUID]time.Time
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		earned:        make(map[uuid.UUID]decimal.Decimal),
		spent:         make(map[uuid.UUID]decimal.Decimal),
		completedJobs: make(map[uuid.UUID]int),
		ratings:       make(map[uuid.UUID][]int),
		trustScores:   make(map[uuid.UUID]int),
		suspended:     make(map[uuid.UUID]time.Time),
	}
}

func (s *fakeProfileStore) GetFreelancer(_ context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.FreelancerProfile{
		UserID:        userID,
		TotalEarned:   s.earned[userID],
		CompletedJobs: s.completedJobs[userID],
		ReviewCount:   len(s.ratings[userID]),
		TrustScore:    s.trustScores[userID],
	}, nil
}

func (s *fakeProfileStore) GetClient(_ context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.ClientProfile{
		UserID:     userID,
		TotalSpent: s.spent[userID],
		TrustScore: s.trustScores[userID],
	}, nil
}

func (s *fakeProfileStore) AddEarnings(_ context.Context, userID uuid.UUID, net decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.earned[userID] = s.earned[userID].Add(net)
	return nil
}

func (s *fakeProfileStore) IncrementCompletedJobs(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedJobs[userID]++
	return nil
}

func (s *fakeProfileStore) ApplyRating(_ context.Context, userID uuid.UUID, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[userID] = append(s.ratings[userID], rating)
	return nil
}

func (s *fakeProfileStore) AddSpend(_ context.Context, userID uuid.UUID, gross decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spent[userID] = s.spent[userID].Add(gross)
	return nil
}

func (s *fakeProfileStore) DecrementTrustScore(_ context.Context, userID uuid.UUID, _ string, penalty, floor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	score := s.trustScores[userID] - penalty
	if score < floor {
		score = floor
	}
	s.trustScores[userID] = score
	return nil
}

func (s *fakeProfileStore) Suspend(_ context.Context, userID uuid.UUID, _ string, until time.Time, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended[userID] = until
	return nil
}

type fakeAdminActionStore struct {
	mu      sync.Mutex
	actions []models.AdminAction
}

func (s *fakeAdminActionStore) Append(_ context.Context, a *models.AdminAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	s.actions = append(s.actions, *a)
	return nil
}

func (s *fakeAdminActionStore) List(_ context.Context, _ repositories.AdminActionFilter) ([]models.AdminAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AdminAction(nil), s.actions...), nil
}

type fakeViolationStore struct {
	mu         sync.Mutex
	violations []models.ViolationRecord
}

func (s *fakeViolationStore) Create(_ context.Context, v *models.ViolationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	s.violations = append(s.violations, *v)
	return nil
}

func (s *fakeViolationStore) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]models.ViolationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ViolationRecord
	for _, v := range s.violations {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeDisputeStore struct {
	mu       sync.Mutex
	disputes map[uuid.UUID]*models.Dispute
}

func newFakeDisputeStore() *fakeDisputeStore {
	return &fakeDisputeStore{disputes: make(map[uuid.UUID]*models.Dispute)}
}

func (s *fakeDisputeStore) Create(_ context.Context, d *models.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *fakeDisputeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDisputeStore) AssignMediator(_ context.Context, id, adminID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[id]
	if !ok || d.Status != models.DisputeStatusOpen {
		return false, nil
	}
	d.Status = models.DisputeStatusUnderReview
	d.MediatorID = &adminID
	return true, nil
}

func (s *fakeDisputeStore) Resolve(_ context.Context, id uuid.UUID, resolution string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[id]
	if !ok || d.Status != models.DisputeStatusUnderReview {
		return false, nil
	}
	now := time.Now()
	d.Status = models.DisputeStatusResolved
	d.Resolution = &resolution
	d.ResolvedAt = &now
	return true, nil
}

func (s *fakeDisputeStore) ListByContract(_ context.Context, contractID uuid.UUID) ([]models.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Dispute
	for _, d := range s.disputes {
		if d.ContractID == contractID {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeReviewStore struct {
	mu      sync.Mutex
	reviews []models.Review
}

func (s *fakeReviewStore) Create(_ context.Context, rev *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev.ID = uuid.New()
	rev.CreatedAt = time.Now()
	s.reviews = append(s.reviews, *rev)
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (s *fakeAuditStore) Log(_ context.Context, entry models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditStore) GetByEntity(_ context.Context, entityType string, entityID uuid.UUID, _, _ int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLog
	for _, e := range s.entries {
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	fail   bool
}

func (p *fakePublisher) Publish(_ context.Context, stream string, event events.Event) error {
	if p.fail {
		return errors.New("publish failed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
