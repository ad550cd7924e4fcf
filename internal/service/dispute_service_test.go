package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/taskmarket/internal/model"
)

type disputeFixture struct {
	tasks    *fakeTaskStore
	payments *fakePaymentStore
	disputes *fakeDisputeStore
	notifier *fakeNotifier
	service  *DisputeService
	task     *model.Task
	payment  *model.Payment
}

func newDisputeFixture(t *testing.T, policy AuthorizationPolicy) *disputeFixture {
	t.Helper()
	tasks := newFakeTaskStore()
	payments := newFakePaymentStore()
	disputes := newFakeDisputeStore(payments, tasks)
	notifier := &fakeNotifier{}

	freelancerID := "freelancer-1"
	task := &model.Task{
		ID:                   uuid.New(),
		Title:                "Translate abstract",
		Status:               model.TaskStatusInProgress,
		OwnerID:              "client-1",
		AssignedFreelancerID: &freelancerID,
		CreatedAt:            time.Now().UTC(),
	}
	if err := tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	payment := &model.Payment{
		ID:           uuid.New(),
		TaskID:       task.ID,
		ClientID:     "client-1",
		FreelancerID: freelancerID,
		Amount:       1200,
		Status:       model.PaymentStatusEscrowed,
		CreatedAt:    time.Now().UTC(),
	}
	payments.put(payment)

	return &disputeFixture{
		tasks:    tasks,
		payments: payments,
		disputes: disputes,
		notifier: notifier,
		service:  NewDisputeService(disputes, payments, tasks, notifier, policy, zerolog.Nop()),
		task:     task,
		payment:  payment,
	}
}

func (f *disputeFixture) openDispute(t *testing.T, initiator string) *model.Dispute {
	t.Helper()
	dispute, err := f.service.Create(context.Background(), model.Principal{ID: initiator}, CreateDisputeInput{
		PaymentID:   f.payment.ID,
		Reason:      string(model.DisputeReasonPoorQuality),
		Description: strings.Repeat("the delivered work misses the brief ", 2),
	})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	return dispute
}

func TestCreateDisputeFreezesPaymentAndTask(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{})
	dispute := f.openDispute(t, "client-1")

	if dispute.RespondentID != "freelancer-1" {
		t.Fatalf("respondent = %s, want freelancer-1", dispute.RespondentID)
	}
	if dispute.DisputeAmount != 1200 {
		t.Fatalf("dispute amount = %v, want payment amount", dispute.DisputeAmount)
	}

	payment, _ := f.payments.Get(context.Background(), f.payment.ID)
	if payment.Status != model.PaymentStatusDisputed {
		t.Fatalf("payment status = %s, want disputed", payment.Status)
	}
	task, _ := f.tasks.Get(context.Background(), f.task.ID)
	if task.Status != model.TaskStatusDisputed {
		t.Fatalf("task status = %s, want disputed", task.Status)
	}

	if n := f.notifier.byType(model.NotificationDisputeCreated); len(n) != 1 || n[0].RecipientID != "freelancer-1" {
		t.Fatalf("dispute_created notifications wrong: %v", n)
	}
}

func TestCreateDisputeOnlyParties(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{})
	_, err := f.service.Create(context.Background(), model.Principal{ID: "stranger"}, CreateDisputeInput{
		PaymentID:   f.payment.ID,
		Reason:      string(model.DisputeReasonOther),
		Description: strings.Repeat("long enough description ", 2),
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateDisputeOncePerPayment(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{})
	f.openDispute(t, "client-1")

	_, err := f.service.Create(context.Background(), model.Principal{ID: "freelancer-1"}, CreateDisputeInput{
		PaymentID:   f.payment.ID,
		Reason:      string(model.DisputeReasonPaymentIssue),
		Description: strings.Repeat("the client will not release payment ", 2),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestResolveRefundClient(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{AllowAny: true})
	dispute := f.openDispute(t, "client-1")

	resolved, err := f.service.Resolve(context.Background(), model.Principal{ID: "admin-1"}, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionRefundClient),
		ResolutionNotes: "work never delivered",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != model.DisputeStatusResolved || resolved.RefundAmount != 1200 {
		t.Fatalf("resolved = %+v", resolved)
	}

	payment, _ := f.payments.Get(context.Background(), f.payment.ID)
	if payment.Status != model.PaymentStatusRefunded {
		t.Fatalf("payment status = %s, want refunded", payment.Status)
	}
	task, _ := f.tasks.Get(context.Background(), f.task.ID)
	if task.Status != model.TaskStatusCancelled {
		t.Fatalf("task status = %s, want cancelled", task.Status)
	}

	if n := f.notifier.byType(model.NotificationDisputeResolved); len(n) != 2 {
		t.Fatalf("dispute_resolved notifications = %d, want both parties", len(n))
	}
}

func TestResolvePayFreelancer(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{AllowAny: true})
	dispute := f.openDispute(t, "freelancer-1")

	if _, err := f.service.Resolve(context.Background(), model.Principal{ID: "admin-1"}, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionPayFreelancer),
		ResolutionNotes: "work meets the brief",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	payment, _ := f.payments.Get(context.Background(), f.payment.ID)
	if payment.Status != model.PaymentStatusReleased {
		t.Fatalf("payment status = %s, want released", payment.Status)
	}
	task, _ := f.tasks.Get(context.Background(), f.task.ID)
	if task.Status != model.TaskStatusCompleted {
		t.Fatalf("task status = %s, want completed", task.Status)
	}
}

func TestResolvePartialRefundBounds(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{AllowAny: true})
	dispute := f.openDispute(t, "client-1")
	admin := model.Principal{ID: "admin-1"}

	for _, amount := range []float64{0, 1200, 5000} {
		_, err := f.service.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
			Resolution:      string(model.ResolutionPartialRefund),
			ResolutionNotes: "split the difference",
			RefundAmount:    amount,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("refund %v: expected ErrInvalidInput, got %v", amount, err)
		}
	}

	resolved, err := f.service.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionPartialRefund),
		ResolutionNotes: "split the difference",
		RefundAmount:    400,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.RefundAmount != 400 {
		t.Fatalf("refund = %v, want 400", resolved.RefundAmount)
	}
}

func TestResolveNoActionLeavesStateAlone(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{AllowAny: true})
	dispute := f.openDispute(t, "client-1")

	if _, err := f.service.Resolve(context.Background(), model.Principal{ID: "admin-1"}, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionNoAction),
		ResolutionNotes: "parties settled privately",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	payment, _ := f.payments.Get(context.Background(), f.payment.ID)
	if payment.Status != model.PaymentStatusDisputed {
		t.Fatalf("payment status = %s, no_action must not touch it", payment.Status)
	}
}

func TestResolveTwiceFails(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{AllowAny: true})
	dispute := f.openDispute(t, "client-1")
	admin := model.Principal{ID: "admin-1"}
	input := ResolveDisputeInput{
		Resolution:      string(model.ResolutionPayFreelancer),
		ResolutionNotes: "done",
	}

	if _, err := f.service.Resolve(context.Background(), admin, dispute.ID, input); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, err := f.service.Resolve(context.Background(), admin, dispute.ID, input); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second resolve: expected ErrInvalidState, got %v", err)
	}
}

func TestResolveRequiresResolverRole(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{})
	dispute := f.openDispute(t, "client-1")

	_, err := f.service.Resolve(context.Background(), model.Principal{ID: "client-1"}, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionRefundClient),
		ResolutionNotes: "refund me",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	admin := model.Principal{ID: "admin-1", Role: "admin"}
	if _, err := f.service.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionNoAction),
		ResolutionNotes: "reviewed",
	}); err != nil {
		t.Fatalf("admin resolve: %v", err)
	}
}

func TestDisputeMessagesClosedAfterResolution(t *testing.T) {
	f := newDisputeFixture(t, RolePolicy{AllowAny: true})
	dispute := f.openDispute(t, "client-1")
	admin := model.Principal{ID: "admin-1"}

	if _, err := f.service.AddMessage(context.Background(), model.Principal{ID: "freelancer-1", FullName: "F"}, dispute.ID, "I delivered on time"); err != nil {
		t.Fatalf("message: %v", err)
	}

	if _, err := f.service.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Resolution:      string(model.ResolutionNoAction),
		ResolutionNotes: "closed",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := f.service.AddMessage(context.Background(), model.Principal{ID: "client-1"}, dispute.ID, "one more thing"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on closed dispute, got %v", err)
	}
}
