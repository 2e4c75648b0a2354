package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/usecase"
	"github.com/DevRickLin/feishu-daycare-bot/internal/service"
)

type fakePortalRepo struct {
	children map[domain.AccountID][]domain.Child
	presence map[domain.AccountID]map[string][]domain.RawPresence
	result   domain.RawPresence
	checkIns int
}

func (f *fakePortalRepo) FetchHome(ctx context.Context, account domain.AccountID) ([]domain.Child, error) {
	return f.children[account], nil
}

func (f *fakePortalRepo) FetchPresence(ctx context.Context, account domain.AccountID) (map[string][]domain.RawPresence, error) {
	return f.presence[account], nil
}

func (f *fakePortalRepo) CheckIn(ctx context.Context, account domain.AccountID, childID string) (domain.RawPresence, error) {
	f.checkIns++
	return f.result, nil
}

func (f *fakePortalRepo) CheckOut(ctx context.Context, account domain.AccountID, childID string) (domain.RawPresence, error) {
	return domain.RawPresence{}, errors.New("not expected")
}

func (f *fakePortalRepo) MarkAbsent(ctx context.Context, account domain.AccountID, childID, note string) (domain.RawPresence, error) {
	return domain.RawPresence{}, errors.New("not expected")
}

func (f *fakePortalRepo) FetchPhoto(ctx context.Context, account domain.AccountID, url string) ([]byte, error) {
	return nil, errors.New("no photos")
}

func newTestServer(portal *fakePortalRepo, userID string) *DaycareMCPServer {
	dir := domain.NewDirectory(map[string][]domain.AccountID{"ou_parent": {"MOM"}})
	uc := usecase.NewPresenceUsecase(dir, portal, nil, "")
	return NewServer(uc, service.NewRenderer(nil), userID)
}

func TestHandleStatusAndAct(t *testing.T) {
	undefined := domain.UndefinedRecordID
	absent, in := false, true
	portal := &fakePortalRepo{
		children: map[domain.AccountID][]domain.Child{"MOM": {{ID: "c1", Name: "Ana"}}},
		presence: map[domain.AccountID]map[string][]domain.RawPresence{
			"MOM": {"c1": {{ID: &undefined}}},
		},
		result: domain.RawPresence{
			IsAbsent: &absent,
			HasIn:    &in,
			In:       &domain.RawEntry{Time: "08:45"},
		},
	}
	s := newTestServer(portal, "ou_parent")

	_, status, err := s.handleStatus(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	require.Empty(t, status.Error)
	require.Len(t, status.Children, 1)

	child := status.Children[0]
	assert.Equal(t, "unknown", child.State)
	assert.Equal(t, "Ana", child.Name)
	require.Len(t, child.Actions, 2)
	assert.Equal(t, "checkin", child.Actions[0].Action)
	assert.Equal(t, "sickleave", child.Actions[1].Action)

	_, act, err := s.handleAct(context.Background(), nil, ActInput{Token: child.Actions[0].Token})
	require.NoError(t, err)
	assert.Equal(t, "applied", act.Outcome)
	assert.Equal(t, "**Ana**: checked in at 08:45", act.Summary)
	assert.Equal(t, 1, portal.checkIns)
}

func TestHandleAct_InvalidToken(t *testing.T) {
	portal := &fakePortalRepo{}
	s := newTestServer(portal, "ou_parent")

	_, act, err := s.handleAct(context.Background(), nil, ActInput{Token: "7 checkin c1"})
	require.NoError(t, err)
	assert.Equal(t, "unknown_choice", act.Outcome)
	assert.NotEmpty(t, act.Error)
	assert.Zero(t, portal.checkIns)
}

func TestHandleStatus_Unauthorized(t *testing.T) {
	s := newTestServer(&fakePortalRepo{}, "ou_stranger")

	_, status, err := s.handleStatus(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Equal(t, "user is not authorized", status.Error)
	assert.Empty(t, status.Children)
}
