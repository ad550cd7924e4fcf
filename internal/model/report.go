package model

import "time"

// StatusCount is one row of a status breakdown with the average amount
// (bid amount or task budget) for that status.
type StatusCount struct {
	Status    string
	Count     int64
	AvgAmount float64
}

type CategoryCount struct {
	Category  string
	Count     int64
	AvgBudget float64
}

// MarketReport aggregates marketplace activity for the XLSX export.
type MarketReport struct {
	GeneratedAt         time.Time
	TotalTasks          int64
	TotalBudget         float64
	TotalBids           int64
	TotalBidAmount      float64
	TaskStatusBreakdown []StatusCount
	BidStatusBreakdown  []StatusCount
	CategoryBreakdown   []CategoryCount
}

// CompletionStatement is the printable record of a completed task and the
// bid it was completed under.
type CompletionStatement struct {
	Task        Task
	AcceptedBid Bid
	GeneratedAt time.Time
}
