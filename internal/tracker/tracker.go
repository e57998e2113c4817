package tracker

import (
	"context"

	"basegraph.app/specflow/internal/model"
)

// PublishedIssue is a ticket that now exists in an issue tracker.
type PublishedIssue struct {
	Title  string
	IID    int64
	WebURL string
}

// Publisher files approved tickets in an issue tracker.
type Publisher interface {
	Publish(ctx context.Context, tickets []model.Ticket) ([]PublishedIssue, error)
}
