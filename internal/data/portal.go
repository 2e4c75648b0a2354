package data

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
	"github.com/DevRickLin/feishu-daycare-bot/internal/infra/educabiz"
)

// ErrUnknownAccount is returned for an account with no portal client
var ErrUnknownAccount = errors.New("unknown portal account")

// portalClient is the part of educabiz.Client the repository needs
type portalClient interface {
	Home(ctx context.Context) (*educabiz.Home, error)
	Presence(ctx context.Context) (*educabiz.Presence, error)
	CheckIn(ctx context.Context, childID string) (*educabiz.PresenceRecord, error)
	CheckOut(ctx context.Context, childID string) (*educabiz.PresenceRecord, error)
	Absent(ctx context.Context, childID, notes string) (*educabiz.PresenceRecord, error)
	Photo(ctx context.Context, photoURL string) ([]byte, error)
}

// portalRepo implements the portal repository over one client per account
type portalRepo struct {
	clients map[domain.AccountID]portalClient
}

// NewPortalRepo creates a portal repository keyed by account name
func NewPortalRepo(clients map[string]*educabiz.Client) repo.PortalRepo {
	m := make(map[domain.AccountID]portalClient, len(clients))
	for name, c := range clients {
		m[domain.AccountID(name)] = c
	}
	return &portalRepo{clients: m}
}

func (r *portalRepo) client(account domain.AccountID) (portalClient, error) {
	c, ok := r.clients[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	return c, nil
}

// FetchHome lists the account's children ordered by name, then ID
func (r *portalRepo) FetchHome(ctx context.Context, account domain.AccountID) ([]domain.Child, error) {
	c, err := r.client(account)
	if err != nil {
		return nil, err
	}
	home, err := c.Home(ctx)
	if err != nil {
		return nil, err
	}

	children := make([]domain.Child, 0, len(home.Children))
	for id, child := range home.Children {
		children = append(children, domain.Child{
			ID:       id,
			Name:     child.Name,
			PhotoURL: child.Photo,
		})
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].Name != children[j].Name {
			return children[i].Name < children[j].Name
		}
		return children[i].ID < children[j].ID
	})
	return children, nil
}

// FetchPresence returns every child's records as sent by the portal
func (r *portalRepo) FetchPresence(ctx context.Context, account domain.AccountID) (map[string][]domain.RawPresence, error) {
	c, err := r.client(account)
	if err != nil {
		return nil, err
	}
	presence, err := c.Presence(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.RawPresence, len(presence.Children))
	for id, child := range presence.Children {
		records := make([]domain.RawPresence, 0, len(child.Presence))
		for i := range child.Presence {
			records = append(records, toRawPresence(&child.Presence[i]))
		}
		out[id] = records
	}
	return out, nil
}

// CheckIn checks a child in
func (r *portalRepo) CheckIn(ctx context.Context, account domain.AccountID, childID string) (domain.RawPresence, error) {
	c, err := r.client(account)
	if err != nil {
		return domain.RawPresence{}, err
	}
	return recordResult(c.CheckIn(ctx, childID))
}

// CheckOut checks a child out
func (r *portalRepo) CheckOut(ctx context.Context, account domain.AccountID, childID string) (domain.RawPresence, error) {
	c, err := r.client(account)
	if err != nil {
		return domain.RawPresence{}, err
	}
	return recordResult(c.CheckOut(ctx, childID))
}

// MarkAbsent reports a child absent with note
func (r *portalRepo) MarkAbsent(ctx context.Context, account domain.AccountID, childID, note string) (domain.RawPresence, error) {
	c, err := r.client(account)
	if err != nil {
		return domain.RawPresence{}, err
	}
	return recordResult(c.Absent(ctx, childID, note))
}

// FetchPhoto downloads a child's photo with the account's session
func (r *portalRepo) FetchPhoto(ctx context.Context, account domain.AccountID, url string) ([]byte, error) {
	c, err := r.client(account)
	if err != nil {
		return nil, err
	}
	return c.Photo(ctx, url)
}

func recordResult(record *educabiz.PresenceRecord, err error) (domain.RawPresence, error) {
	if err != nil {
		return domain.RawPresence{}, err
	}
	if record == nil {
		return domain.RawPresence{}, domain.ErrMalformedRecord
	}
	return toRawPresence(record), nil
}

func toRawPresence(record *educabiz.PresenceRecord) domain.RawPresence {
	raw := domain.RawPresence{
		ID:       record.RecordID(),
		IsAbsent: record.IsAbsent,
		Notes:    record.Notes,
		HasIn:    record.HasIn,
		HasOut:   record.HasOut,
	}
	if record.In != nil {
		raw.In = &domain.RawEntry{Time: record.In.Time, Fetcher: record.In.Fetcher}
	}
	if record.Out != nil {
		raw.Out = &domain.RawEntry{Time: record.Out.Time, Fetcher: record.Out.Fetcher}
	}
	return raw
}
