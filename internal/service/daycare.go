package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/usecase"
)

// DaycareService handles chat commands and card clicks
type DaycareService struct {
	presenceUC  *usecase.PresenceUsecase
	messageRepo repo.MessageRepo
	renderer    *Renderer
	logger      *slog.Logger

	// In-flight click handlers
	wg sync.WaitGroup
}

// NewDaycareService creates a new daycare service
func NewDaycareService(
	presenceUC *usecase.PresenceUsecase,
	messageRepo repo.MessageRepo,
	renderer *Renderer,
) *DaycareService {
	return &DaycareService{
		presenceUC:  presenceUC,
		messageRepo: messageRepo,
		renderer:    renderer,
		logger:      slog.With("component", "service"),
	}
}

// MessageRequest represents an inbound text message
type MessageRequest struct {
	ChatID   string
	MsgID    string
	Content  string
	SenderID string
}

// CardActionRequest represents a card button click
type CardActionRequest struct {
	ChatID   string
	MsgID    string // message carrying the card
	SenderID string
	Payload  string // callback token
}

type command int

const (
	commandStatus command = iota
	commandStart
	commandHelp
)

func parseCommand(content string) command {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return commandStatus
	}
	// "/help@botname" style suffixes are tolerated
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	switch name {
	case "/help":
		return commandHelp
	case "/start":
		return commandStart
	}
	return commandStatus
}

// HandleMessage answers a text message. Unknown users get no reply.
func (s *DaycareService) HandleMessage(ctx context.Context, req *MessageRequest) error {
	if !s.presenceUC.IsAuthorized(req.SenderID) {
		s.logger.Debug("ignoring unauthorized sender", "sender", req.SenderID)
		return nil
	}

	replies := s.renderer.Messages().Replies
	switch parseCommand(req.Content) {
	case commandHelp:
		return s.messageRepo.SendText(ctx, req.ChatID, replies.Help)
	case commandStart:
		if err := s.messageRepo.SendText(ctx, req.ChatID, replies.Greeting); err != nil {
			return err
		}
	}
	return s.sendStatus(ctx, req.ChatID, req.SenderID)
}

func (s *DaycareService) sendStatus(ctx context.Context, chatID, userID string) error {
	reports, statusErr := s.presenceUC.ShowStatus(ctx, userID)
	if errors.Is(statusErr, domain.ErrUnauthorized) {
		return nil
	}

	var errs []error
	for _, report := range reports {
		if _, err := s.messageRepo.SendCard(ctx, chatID, s.renderer.ReportCard(report)); err != nil {
			s.logger.Error("send card failed", "chat", chatID, "child", report.Child.ID, "err", err)
			errs = append(errs, err)
		}
	}

	replies := s.renderer.Messages().Replies
	switch {
	case statusErr != nil:
		if err := s.messageRepo.SendText(ctx, chatID, replies.Failure); err != nil {
			errs = append(errs, err)
		}
	case len(reports) == 0:
		if err := s.messageRepo.SendText(ctx, chatID, replies.NoChildren); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleCardAction acknowledges a click at once and processes it in the
// background. It returns the toast text, or "" when nothing should be shown.
func (s *DaycareService) HandleCardAction(ctx context.Context, req *CardActionRequest) string {
	if !s.presenceUC.IsAuthorized(req.SenderID) {
		s.logger.Debug("ignoring unauthorized click", "sender", req.SenderID)
		return ""
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// the callback context ends with the acknowledgement
		s.processCardAction(context.WithoutCancel(ctx), req)
	}()
	return s.renderer.Messages().Replies.Processing
}

func (s *DaycareService) processCardAction(ctx context.Context, req *CardActionRequest) {
	outcome := s.presenceUC.HandleAction(ctx, req.SenderID, req.Payload)

	card, ok := s.renderer.OutcomeCard(outcome)
	if !ok {
		return
	}
	if err := s.messageRepo.EditCard(ctx, req.MsgID, card); err != nil {
		s.logger.Error("edit card failed", "msg", req.MsgID, "err", err)
	}
}

// Wait blocks until every in-flight click has been processed
func (s *DaycareService) Wait() {
	s.wg.Wait()
}
