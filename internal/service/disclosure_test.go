package service

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/model"
)

func sampleBid(status model.BidStatus) model.Bid {
	return model.Bid{
		ID:              uuid.New(),
		TaskID:          uuid.New(),
		FreelancerID:    "freelancer-1",
		FreelancerName:  "Jordan Rivera",
		FreelancerEmail: "jordan@example.com",
		FreelancerPhone: "+911234567890",
		Amount:          500,
		Status:          status,
	}
}

func TestPresentBidRedactsPending(t *testing.T) {
	for _, status := range []model.BidStatus{model.BidStatusPending, model.BidStatusRejected, model.BidStatusWithdrawn} {
		view := PresentBid(sampleBid(status), "someone-else")
		if !view.Anonymous {
			t.Fatalf("%s bid should be anonymous to strangers", status)
		}
		if view.FreelancerName != AnonymousName {
			t.Fatalf("name = %q, want %q", view.FreelancerName, AnonymousName)
		}
		if view.FreelancerID != "" || view.FreelancerEmail != "" || view.FreelancerPhone != "" {
			t.Fatalf("%s bid leaked contact details: %+v", status, view)
		}
	}
}

func TestPresentBidDisclosesAccepted(t *testing.T) {
	view := PresentBid(sampleBid(model.BidStatusAccepted), "someone-else")
	if view.Anonymous {
		t.Fatal("accepted bid must disclose identity")
	}
	if view.FreelancerEmail != "jordan@example.com" || view.FreelancerPhone != "+911234567890" {
		t.Fatalf("contact details missing: %+v", view)
	}
}

func TestPresentBidDisclosesToBidder(t *testing.T) {
	view := PresentBid(sampleBid(model.BidStatusPending), "freelancer-1")
	if view.Anonymous {
		t.Fatal("bidder must see their own pending bid")
	}
	if view.FreelancerName != "Jordan Rivera" {
		t.Fatalf("name = %q", view.FreelancerName)
	}
}

func TestPresentBidKeepsNonIdentityFields(t *testing.T) {
	bid := sampleBid(model.BidStatusPending)
	bid.FreelancerRating = 4.2
	bid.FreelancerCompletedTasks = 9

	view := PresentBid(bid, "someone-else")
	if view.Amount != 500 || view.FreelancerRating != 4.2 || view.FreelancerCompletedTasks != 9 {
		t.Fatalf("reputation and amount must survive redaction: %+v", view)
	}
}
