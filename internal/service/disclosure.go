package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/model"
)

// AnonymousName is the redaction marker shown in place of a bidder's
// identity before their bid is accepted.
const AnonymousName = "Anonymous"

// BidView is the caller-facing representation of a bid. Contact fields are
// populated only when the disclosure policy allows it.
type BidView struct {
	ID                       uuid.UUID
	TaskID                   uuid.UUID
	FreelancerID             string
	FreelancerName           string
	FreelancerEmail          string
	FreelancerPhone          string
	Anonymous                bool
	Amount                   float64
	Proposal                 string
	DeliveryTimeDays         int
	Status                   model.BidStatus
	FreelancerRating         float64
	FreelancerCompletedTasks int64
	AcceptedAt               *time.Time
	RejectedAt               *time.Time
	WithdrawnAt              *time.Time
	CreatedAt                time.Time
}

// PresentBid applies the disclosure policy: the freelancer's identity is
// visible only once the bid is accepted, or to the bidder themselves.
// This is a read-time decision over bid status, not a stored flag.
func PresentBid(bid model.Bid, callerID string) BidView {
	view := BidView{
		ID:                       bid.ID,
		TaskID:                   bid.TaskID,
		Amount:                   bid.Amount,
		Proposal:                 bid.Proposal,
		DeliveryTimeDays:         bid.DeliveryTimeDays,
		Status:                   bid.Status,
		FreelancerRating:         bid.FreelancerRating,
		FreelancerCompletedTasks: bid.FreelancerCompletedTasks,
		AcceptedAt:               bid.AcceptedAt,
		RejectedAt:               bid.RejectedAt,
		WithdrawnAt:              bid.WithdrawnAt,
		CreatedAt:                bid.CreatedAt,
	}

	if bid.Status == model.BidStatusAccepted || bid.FreelancerID == callerID {
		view.FreelancerID = bid.FreelancerID
		view.FreelancerName = bid.FreelancerName
		view.FreelancerEmail = bid.FreelancerEmail
		view.FreelancerPhone = bid.FreelancerPhone
		return view
	}

	view.Anonymous = true
	view.FreelancerName = AnonymousName
	return view
}

func PresentBids(bids []model.Bid, callerID string) []BidView {
	views := make([]BidView, 0, len(bids))
	for _, bid := range bids {
		views = append(views, PresentBid(bid, callerID))
	}
	return views
}
