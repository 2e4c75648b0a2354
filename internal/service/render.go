package service

import (
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
	"github.com/DevRickLin/feishu-daycare-bot/internal/conf"
)

// Renderer turns reports and outcomes into cards using the configured texts
type Renderer struct {
	messages *conf.MessagesConfig
}

// NewRenderer creates a renderer; nil messages means the defaults
func NewRenderer(messages *conf.MessagesConfig) *Renderer {
	if messages == nil {
		messages = conf.DefaultMessagesConfig()
	}
	return &Renderer{messages: messages}
}

// Messages returns the texts in use
func (r *Renderer) Messages() *conf.MessagesConfig {
	return r.messages
}

// StatusLine renders one child's status
func (r *Renderer) StatusLine(child domain.Child, status domain.PresenceStatus) string {
	name := child.Name
	if name == "" {
		name = child.ID
	}

	t := r.messages.Status
	var template string
	switch status.State {
	case domain.StateUnknown:
		template = t.Unknown
	case domain.StateNotYetArrived:
		template = t.NotYetArrived
	case domain.StateCheckedIn:
		template = t.CheckedIn
	case domain.StateCheckedOut:
		template = t.CheckedOut
	case domain.StateAbsent:
		template = t.Absent
		if status.Note == "" {
			template = t.AbsentNoNote
		}
	default:
		template = t.Unknown
	}
	return conf.FormatStatus(template, name, status.CheckIn, status.CheckOut, status.Note)
}

// ButtonLabel returns the label of an action button
func (r *Renderer) ButtonLabel(action domain.Action) string {
	b := r.messages.Buttons
	switch action {
	case domain.ActionCheckIn:
		return b.CheckIn
	case domain.ActionCheckOut:
		return b.CheckOut
	case domain.ActionMarkAbsent:
		return b.MarkAbsent
	case domain.ActionDismiss:
		return b.Dismiss
	}
	return string(action)
}

// ReportCard renders a status reply unit
func (r *Renderer) ReportCard(report domain.ChildReport) repo.Card {
	card := repo.Card{
		ImageKey: report.PhotoKey,
		Text:     r.StatusLine(report.Child, report.Status),
	}
	for i, b := range report.Buttons {
		card.Buttons = append(card.Buttons, repo.CardButton{
			Label:   r.ButtonLabel(b.Action),
			Payload: b.Token,
			Primary: i == 0,
		})
	}
	return card
}

// OutcomeCard renders the replacement card for a click. ok is false when
// the card must be left alone.
func (r *Renderer) OutcomeCard(outcome domain.ActionOutcome) (repo.Card, bool) {
	switch outcome.Kind {
	case domain.OutcomeUnknownChoice:
		return repo.Card{Text: r.messages.Replies.UnknownChoice}, true
	case domain.OutcomeFailed:
		return repo.Card{Text: r.messages.Replies.Failure}, true
	case domain.OutcomeApplied:
		line := r.StatusLine(outcome.Child, outcome.Status)
		return repo.Card{Text: r.messages.FormatConfirmation(line)}, true
	case domain.OutcomeDismissed:
		if outcome.Err != nil || outcome.Child.ID == "" {
			return repo.Card{Text: r.messages.Replies.Dismissed}, true
		}
		return repo.Card{Text: r.StatusLine(outcome.Child, outcome.Status)}, true
	}
	return repo.Card{}, false
}
