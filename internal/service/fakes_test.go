package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
)

// In-memory stores backing the service tests. They mirror the repository
// contracts, including the compare-and-swap behavior of Accept.

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*model.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*model.Task)}
}

func (s *fakeTaskStore) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) Create(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) Update(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[task.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.College = task.College
	stored.Budget = task.Budget
	stored.Deadline = task.Deadline
	stored.Location = task.Location
	stored.Requirements = task.Requirements
	stored.UpdatedAt = task.UpdatedAt
	return nil
}

func (s *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) List(ctx context.Context, filter model.TaskFilter, page Page) ([]model.Task, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Task
	for _, task := range s.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Category != "" && task.Category != filter.Category {
			continue
		}
		if filter.OwnerID != "" && task.OwnerID != filter.OwnerID {
			continue
		}
		matched = append(matched, *task)
	}
	sort.Slice(matched, func(i, j int) bool {
		if page.Descending {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *fakeTaskStore) CancelIfOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusOpen {
		return false, nil
	}
	task.Status = model.TaskStatusCancelled
	task.UpdatedAt = now
	return true, nil
}

func (s *fakeTaskStore) MarkStarted(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusAssigned {
		return false, nil
	}
	task.Status = model.TaskStatusInProgress
	return true, nil
}

func (s *fakeTaskStore) MarkSubmitted(ctx context.Context, id uuid.UUID, url, notes string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusInProgress {
		return false, nil
	}
	task.Status = model.TaskStatusSubmitted
	task.SubmissionURL = &url
	task.SubmissionNotes = &notes
	task.SubmittedAt = &at
	return true, nil
}

func (s *fakeTaskStore) ResolveSubmission(ctx context.Context, id uuid.UUID, to model.TaskStatus, completedAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusSubmitted {
		return false, nil
	}
	task.Status = to
	task.CompletedAt = completedAt
	task.ClientApprovedAt = completedAt
	return true, nil
}

func (s *fakeTaskStore) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.TaskStatus]int64)
	for _, task := range s.tasks {
		counts[task.Status]++
	}
	var rows []model.StatusCount
	for status, count := range counts {
		rows = append(rows, model.StatusCount{Status: string(status), Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Status < rows[j].Status })
	return rows, nil
}

func (s *fakeTaskStore) CategoryBreakdown(ctx context.Context) ([]model.CategoryCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.TaskCategory]int64)
	for _, task := range s.tasks {
		counts[task.Category]++
	}
	var rows []model.CategoryCount
	for category, count := range counts {
		rows = append(rows, model.CategoryCount{Category: string(category), Count: count})
	}
	return rows, nil
}

func (s *fakeTaskStore) Totals(ctx context.Context) (int64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var budget float64
	for _, task := range s.tasks {
		budget += task.Budget
	}
	return int64(len(s.tasks)), budget, nil
}

type fakeBidStore struct {
	mu       sync.Mutex
	bids     map[uuid.UUID]*model.Bid
	tasks    *fakeTaskStore
	payments *fakePaymentStore
}

func newFakeBidStore(tasks *fakeTaskStore, payments *fakePaymentStore) *fakeBidStore {
	return &fakeBidStore{
		bids:     make(map[uuid.UUID]*model.Bid),
		tasks:    tasks,
		payments: payments,
	}
}

func (s *fakeBidStore) Get(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *bid
	return &copied, nil
}

func (s *fakeBidStore) GetLiveBid(ctx context.Context, taskID uuid.UUID, freelancerID string) (*model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bid := range s.bids {
		if bid.TaskID == taskID && bid.FreelancerID == freelancerID && bid.Status == model.BidStatusPending {
			copied := *bid
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeBidStore) Create(ctx context.Context, bid *model.Bid) error {
	s.mu.Lock()
	for _, existing := range s.bids {
		if existing.TaskID == bid.TaskID && existing.FreelancerID == bid.FreelancerID && existing.Status == model.BidStatusPending {
			s.mu.Unlock()
			return gorm.ErrDuplicatedKey
		}
	}
	copied := *bid
	s.bids[bid.ID] = &copied
	s.mu.Unlock()

	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	if task, ok := s.tasks.tasks[bid.TaskID]; ok {
		task.BidCount++
	}
	return nil
}

func (s *fakeBidStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	bid, ok := s.bids[id]
	if !ok {
		s.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	taskID := bid.TaskID
	delete(s.bids, id)
	s.mu.Unlock()

	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	if task, ok := s.tasks.tasks[taskID]; ok && task.BidCount > 0 {
		task.BidCount--
	}
	return nil
}

func (s *fakeBidStore) UpdateFields(ctx context.Context, id uuid.UUID, amount *float64, proposal *string, deliveryTimeDays *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if amount != nil {
		bid.Amount = *amount
	}
	if proposal != nil {
		bid.Proposal = *proposal
	}
	if deliveryTimeDays != nil {
		bid.DeliveryTimeDays = *deliveryTimeDays
	}
	return nil
}

func (s *fakeBidStore) MarkRejected(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok || bid.Status != model.BidStatusPending {
		return false, nil
	}
	bid.Status = model.BidStatusRejected
	bid.RejectedAt = &at
	return true, nil
}

func (s *fakeBidStore) MarkWithdrawn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok || bid.Status != model.BidStatusPending {
		return false, nil
	}
	bid.Status = model.BidStatusWithdrawn
	bid.WithdrawnAt = &at
	return true, nil
}

func (s *fakeBidStore) Accept(ctx context.Context, params AcceptBidParams) (*AcceptBidResult, error) {
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks.tasks[params.TaskID]
	if !ok || task.Status != model.TaskStatusOpen {
		return nil, gorm.ErrRecordNotFound
	}
	bid, ok := s.bids[params.BidID]
	if !ok || bid.Status != model.BidStatusPending {
		return nil, gorm.ErrRecordNotFound
	}

	task.Status = params.FinalStatus
	task.AssignedFreelancerID = &params.FreelancerID
	task.AcceptedBidID = &params.BidID
	task.AssignedAt = &params.Now

	bid.Status = model.BidStatusAccepted
	bid.AcceptedAt = &params.Now

	var result AcceptBidResult
	for _, other := range s.bids {
		if other.TaskID == params.TaskID && other.ID != params.BidID && other.Status == model.BidStatusPending {
			other.Status = model.BidStatusRejected
			other.RejectedAt = &params.Now
			result.RejectedBids = append(result.RejectedBids, *other)
		}
	}

	payment := &model.Payment{
		ID:           uuid.New(),
		TaskID:       params.TaskID,
		ClientID:     params.ClientID,
		FreelancerID: params.FreelancerID,
		Amount:       params.Amount,
		Status:       model.PaymentStatusEscrowed,
		CreatedAt:    params.Now,
	}
	if s.payments != nil {
		s.payments.put(payment)
	}
	result.Payment = payment
	return &result, nil
}

func (s *fakeBidStore) ListForTask(ctx context.Context, taskID uuid.UUID, freelancerID string, page Page) ([]model.Bid, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Bid
	for _, bid := range s.bids {
		if bid.TaskID != taskID {
			continue
		}
		if freelancerID != "" && bid.FreelancerID != freelancerID {
			continue
		}
		matched = append(matched, *bid)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	return matched, int64(len(matched)), nil
}

func (s *fakeBidStore) ListForFreelancer(ctx context.Context, freelancerID string, status model.BidStatus, page Page) ([]model.BidWithTask, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.BidWithTask
	for _, bid := range s.bids {
		if bid.FreelancerID != freelancerID {
			continue
		}
		if status != "" && bid.Status != status {
			continue
		}
		matched = append(matched, model.BidWithTask{Bid: *bid})
	}
	return matched, int64(len(matched)), nil
}

func (s *fakeBidStore) CountForTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, bid := range s.bids {
		if bid.TaskID == taskID {
			count++
		}
	}
	return count, nil
}

func (s *fakeBidStore) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.BidStatus]int64)
	for _, bid := range s.bids {
		counts[bid.Status]++
	}
	var rows []model.StatusCount
	for status, count := range counts {
		rows = append(rows, model.StatusCount{Status: string(status), Count: count})
	}
	return rows, nil
}

func (s *fakeBidStore) Totals(ctx context.Context) (int64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var amount float64
	for _, bid := range s.bids {
		amount += bid.Amount
	}
	return int64(len(s.bids)), amount, nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[uuid.UUID]*model.Payment)}
}

func (s *fakePaymentStore) put(payment *model.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *payment
	s.payments[payment.ID] = &copied
}

func (s *fakePaymentStore) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *fakePaymentStore) GetByTask(ctx context.Context, taskID uuid.UUID) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.payments {
		if payment.TaskID == taskID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePaymentStore) MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if payment.Status != model.PaymentStatusEscrowed && payment.Status != model.PaymentStatusSubmitted {
		return gorm.ErrRecordNotFound
	}
	payment.Status = model.PaymentStatusReleased
	payment.ReleasedAt = &at
	return nil
}

type fakeProfileStore struct {
	stats *model.FreelancerStats
	err   error
}

func (s *fakeProfileStore) FindStats(ctx context.Context, userID string) (*model.FreelancerStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []model.Notification
}

func (n *fakeNotifier) Publish(ctx context.Context, notification *model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, *notification)
}

func (n *fakeNotifier) byType(t model.NotificationType) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var matched []model.Notification
	for _, msg := range n.messages {
		if msg.Type == t {
			matched = append(matched, msg)
		}
	}
	return matched
}

type fakeDisputeStore struct {
	mu       sync.Mutex
	disputes map[uuid.UUID]*model.Dispute
	messages map[uuid.UUID][]model.DisputeMessage
	payments *fakePaymentStore
	tasks    *fakeTaskStore
}

func newFakeDisputeStore(payments *fakePaymentStore, tasks *fakeTaskStore) *fakeDisputeStore {
	return &fakeDisputeStore{
		disputes: make(map[uuid.UUID]*model.Dispute),
		messages: make(map[uuid.UUID][]model.DisputeMessage),
		payments: payments,
		tasks:    tasks,
	}
}

func (s *fakeDisputeStore) Get(ctx context.Context, id uuid.UUID) (*model.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute, ok := s.disputes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *dispute
	return &copied, nil
}

func (s *fakeDisputeStore) GetByPayment(ctx context.Context, paymentID uuid.UUID) (*model.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dispute := range s.disputes {
		if dispute.PaymentID == paymentID {
			copied := *dispute
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeDisputeStore) Create(ctx context.Context, dispute *model.Dispute) error {
	s.mu.Lock()
	copied := *dispute
	s.disputes[dispute.ID] = &copied
	s.mu.Unlock()

	s.payments.mu.Lock()
	if payment, ok := s.payments.payments[dispute.PaymentID]; ok {
		payment.Status = model.PaymentStatusDisputed
		payment.DisputeID = &dispute.ID
		payment.DisputedAt = &dispute.CreatedAt
	}
	s.payments.mu.Unlock()

	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	if task, ok := s.tasks.tasks[dispute.TaskID]; ok {
		task.Status = model.TaskStatusDisputed
		reason := string(dispute.Reason)
		task.DisputeReason = &reason
		task.DisputedAt = &dispute.CreatedAt
	}
	return nil
}

func (s *fakeDisputeStore) AddMessage(ctx context.Context, msg *model.DisputeMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.DisputeID] = append(s.messages[msg.DisputeID], *msg)
	return nil
}

func (s *fakeDisputeStore) ListMessages(ctx context.Context, disputeID uuid.UUID) ([]model.DisputeMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DisputeMessage(nil), s.messages[disputeID]...), nil
}

func (s *fakeDisputeStore) Resolve(ctx context.Context, disputeID uuid.UUID, effect DisputeEffect) error {
	s.mu.Lock()
	dispute, ok := s.disputes[disputeID]
	if !ok || (dispute.Status != model.DisputeStatusOpen && dispute.Status != model.DisputeStatusUnderReview) {
		s.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	dispute.Status = model.DisputeStatusResolved
	dispute.Resolution = &effect.Resolution
	dispute.ResolutionNotes = &effect.ResolutionNotes
	dispute.AdminID = &effect.AdminID
	dispute.RefundAmount = effect.RefundAmount
	dispute.ResolvedAt = &effect.Now
	paymentID := dispute.PaymentID
	taskID := dispute.TaskID
	s.mu.Unlock()

	if effect.PaymentStatus != nil {
		s.payments.mu.Lock()
		if payment, ok := s.payments.payments[paymentID]; ok {
			payment.Status = *effect.PaymentStatus
			switch *effect.PaymentStatus {
			case model.PaymentStatusReleased:
				payment.ReleasedAt = &effect.Now
			case model.PaymentStatusRefunded:
				payment.RefundedAt = &effect.Now
			}
		}
		s.payments.mu.Unlock()
	}

	if effect.TaskStatus != nil {
		s.tasks.mu.Lock()
		if task, ok := s.tasks.tasks[taskID]; ok {
			task.Status = *effect.TaskStatus
			if *effect.TaskStatus == model.TaskStatusCompleted {
				task.CompletedAt = &effect.Now
			}
		}
		s.tasks.mu.Unlock()
	}
	return nil
}

func (s *fakeDisputeStore) ListForUser(ctx context.Context, userID string, status model.DisputeStatus, page Page) ([]model.Dispute, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Dispute
	for _, dispute := range s.disputes {
		if dispute.InitiatorID != userID && dispute.RespondentID != userID {
			continue
		}
		if status != "" && dispute.Status != status {
			continue
		}
		matched = append(matched, *dispute)
	}
	return matched, int64(len(matched)), nil
}

func (s *fakeDisputeStore) List(ctx context.Context, status model.DisputeStatus, page Page) ([]model.Dispute, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Dispute
	for _, dispute := range s.disputes {
		if status != "" && dispute.Status != status {
			continue
		}
		matched = append(matched, *dispute)
	}
	return matched, int64(len(matched)), nil
}

func (s *fakeDisputeStore) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.DisputeStatus]int64)
	for _, dispute := range s.disputes {
		counts[dispute.Status]++
	}
	var rows []model.StatusCount
	for status, count := range counts {
		rows = append(rows, model.StatusCount{Status: string(status), Count: count})
	}
	return rows, nil
}
