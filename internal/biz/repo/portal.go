package repo

import (
	"context"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
)

// PortalRepo is the daycare portal, one session per account
type PortalRepo interface {
	// FetchHome lists the children visible to the account
	FetchHome(ctx context.Context, account domain.AccountID) ([]domain.Child, error)

	// FetchPresence returns the raw presence records per child ID
	FetchPresence(ctx context.Context, account domain.AccountID) (map[string][]domain.RawPresence, error)

	CheckIn(ctx context.Context, account domain.AccountID, childID string) (domain.RawPresence, error)
	CheckOut(ctx context.Context, account domain.AccountID, childID string) (domain.RawPresence, error)
	MarkAbsent(ctx context.Context, account domain.AccountID, childID, note string) (domain.RawPresence, error)

	// FetchPhoto downloads a child photo through the account's session
	FetchPhoto(ctx context.Context, account domain.AccountID, url string) ([]byte, error)
}
