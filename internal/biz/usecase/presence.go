package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
)

// DefaultAbsentNote is used when no absence note is configured
const DefaultAbsentNote = "Sick leave"

// PresenceUsecase derives status cards from the portal and dispatches
// button clicks back to it. It keeps no per-child state: every transition
// is read back from the portal.
type PresenceUsecase struct {
	directory  *domain.Directory
	portalRepo repo.PortalRepo
	photos     *PhotoUsecase
	absentNote string
	logger     *slog.Logger
}

// NewPresenceUsecase creates a new presence usecase. photos may be nil.
func NewPresenceUsecase(
	directory *domain.Directory,
	portalRepo repo.PortalRepo,
	photos *PhotoUsecase,
	absentNote string,
) *PresenceUsecase {
	if absentNote == "" {
		absentNote = DefaultAbsentNote
	}
	return &PresenceUsecase{
		directory:  directory,
		portalRepo: portalRepo,
		photos:     photos,
		absentNote: absentNote,
		logger:     slog.With("component", "presence"),
	}
}

// IsAuthorized reports whether the user may use the bot at all
func (uc *PresenceUsecase) IsAuthorized(userID string) bool {
	return uc.directory.IsAuthorized(userID)
}

// ShowStatus builds one report per child over all of the user's accounts,
// in account order. Children whose records cannot be normalized are logged
// and left out. Accounts whose fetch failed are reported in the returned
// error, wrapping domain.ErrPortalCallFailed, next to the reports that
// did succeed.
func (uc *PresenceUsecase) ShowStatus(ctx context.Context, userID string) ([]domain.ChildReport, error) {
	accounts, err := uc.directory.Accounts(userID)
	if err != nil {
		return nil, err
	}

	var reports []domain.ChildReport
	var errs []error
	for i, account := range accounts {
		children, presence, err := uc.fetchAccount(ctx, account)
		if err != nil {
			uc.logger.Error("fetch account failed", "account", account, "err", err)
			errs = append(errs, fmt.Errorf("%w: account %s: %v", domain.ErrPortalCallFailed, account, err))
			continue
		}

		for _, child := range children {
			status, err := domain.NormalizeSingle(presence[child.ID])
			if err != nil {
				uc.logger.Warn("skipping child", "account", account, "child", child.ID, "err", err)
				continue
			}
			reports = append(reports, uc.buildReport(ctx, uint(i), account, child, status))
		}
	}

	return reports, errors.Join(errs...)
}

func (uc *PresenceUsecase) buildReport(ctx context.Context, index uint, account domain.AccountID, child domain.Child, status domain.PresenceStatus) domain.ChildReport {
	report := domain.ChildReport{
		AccountIndex: index,
		Account:      account,
		Child:        child,
		Status:       status,
	}
	if uc.photos != nil {
		report.PhotoKey = uc.photos.Resolve(ctx, account, child)
	}

	actions := domain.ResolveActions(status)
	if len(actions) == 0 {
		return report
	}
	actions = append(actions, domain.ActionDismiss)

	for _, action := range actions {
		token, err := domain.EncodeToken(domain.Token{
			AccountIndex: index,
			ChildID:      child.ID,
			Action:       action,
		})
		if err != nil {
			// a child ID we cannot encode gets a status card without buttons
			uc.logger.Warn("cannot encode token", "account", account, "child", child.ID, "err", err)
			report.Buttons = nil
			return report
		}
		report.Buttons = append(report.Buttons, domain.Button{Action: action, Token: token})
	}
	return report
}

func (uc *PresenceUsecase) fetchAccount(ctx context.Context, account domain.AccountID) ([]domain.Child, map[string][]domain.RawPresence, error) {
	var children []domain.Child
	var presence map[string][]domain.RawPresence

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		children, err = uc.portalRepo.FetchHome(gctx, account)
		return err
	})
	g.Go(func() error {
		var err error
		presence, err = uc.portalRepo.FetchPresence(gctx, account)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return children, presence, nil
}

// HandleAction decodes a button payload, re-authorizes it against the
// user's current account list and runs the matching portal call.
func (uc *PresenceUsecase) HandleAction(ctx context.Context, userID, payload string) domain.ActionOutcome {
	if !uc.directory.IsAuthorized(userID) {
		return domain.ActionOutcome{Kind: domain.OutcomeUnauthorized, Err: domain.ErrUnauthorized}
	}

	token, err := domain.DecodeToken(payload)
	if err != nil {
		uc.logger.Debug("unknown choice", "user", userID, "payload", payload)
		return domain.ActionOutcome{Kind: domain.OutcomeUnknownChoice, Err: err}
	}
	if token.Action == domain.ActionIgnore {
		return domain.ActionOutcome{Kind: domain.OutcomeIgnored, Action: token.Action}
	}

	account, ok := uc.directory.Resolve(userID, token.AccountIndex)
	if !ok {
		uc.logger.Warn("token account index out of range", "user", userID, "index", token.AccountIndex)
		return domain.ActionOutcome{Kind: domain.OutcomeUnknownChoice, Err: domain.ErrInvalidToken}
	}

	if token.Action == domain.ActionDismiss {
		return uc.dismiss(ctx, account, token.ChildID)
	}

	outcome := domain.ActionOutcome{
		Action: token.Action,
		Child:  domain.Child{ID: token.ChildID},
	}

	raw, err := uc.callPortal(ctx, account, token)
	if err != nil {
		uc.logger.Error("portal action failed", "account", account, "child", token.ChildID, "action", token.Action, "err", err)
		outcome.Kind = domain.OutcomeFailed
		outcome.Err = fmt.Errorf("%w: %s: %v", domain.ErrPortalCallFailed, token.Action, err)
		return outcome
	}

	status, err := domain.Normalize(raw)
	if err != nil {
		uc.logger.Warn("portal action returned bad record", "account", account, "child", token.ChildID, "err", err)
		outcome.Kind = domain.OutcomeFailed
		outcome.Err = err
		return outcome
	}

	outcome.Kind = domain.OutcomeApplied
	outcome.Status = status
	outcome.Child = uc.lookupChild(ctx, account, token.ChildID)
	uc.logger.Info("portal action applied", "account", account, "child", token.ChildID, "action", token.Action, "state", status.State)
	return outcome
}

func (uc *PresenceUsecase) callPortal(ctx context.Context, account domain.AccountID, token domain.Token) (domain.RawPresence, error) {
	switch token.Action {
	case domain.ActionCheckIn:
		return uc.portalRepo.CheckIn(ctx, account, token.ChildID)
	case domain.ActionCheckOut:
		return uc.portalRepo.CheckOut(ctx, account, token.ChildID)
	case domain.ActionMarkAbsent:
		return uc.portalRepo.MarkAbsent(ctx, account, token.ChildID, uc.absentNote)
	}
	panic(fmt.Sprintf("usecase: no portal call for action %q", token.Action))
}

// dismiss re-reads the child's current status so the card can be redrawn
// without buttons. A failed read still dismisses.
func (uc *PresenceUsecase) dismiss(ctx context.Context, account domain.AccountID, childID string) domain.ActionOutcome {
	outcome := domain.ActionOutcome{
		Kind:   domain.OutcomeDismissed,
		Action: domain.ActionDismiss,
		Child:  domain.Child{ID: childID},
	}
	if childID == "" {
		return outcome
	}

	children, presence, err := uc.fetchAccount(ctx, account)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	for _, c := range children {
		if c.ID == childID {
			outcome.Child = c
		}
	}
	status, err := domain.NormalizeSingle(presence[childID])
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Status = status
	return outcome
}

func (uc *PresenceUsecase) lookupChild(ctx context.Context, account domain.AccountID, childID string) domain.Child {
	children, err := uc.portalRepo.FetchHome(ctx, account)
	if err != nil {
		uc.logger.Debug("child name lookup failed", "account", account, "child", childID, "err", err)
		return domain.Child{ID: childID}
	}
	for _, c := range children {
		if c.ID == childID {
			return c
		}
	}
	return domain.Child{ID: childID}
}
