package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/DevRickLin/feishu-daycare-bot/internal/infra/feishu"
	"github.com/DevRickLin/feishu-daycare-bot/internal/service"
)

const dedupWindow = 5 * time.Minute

// DaycareHandler is what the server routes Feishu events to
type DaycareHandler interface {
	HandleMessage(ctx context.Context, req *service.MessageRequest) error
	HandleCardAction(ctx context.Context, req *service.CardActionRequest) string
}

// FeishuServer routes Feishu events to the daycare service
type FeishuServer struct {
	feishuClient *feishu.Client
	handler      DaycareHandler
	logger       *slog.Logger

	// Deduplication of redelivered messages and clicks
	seenMsgs    *seenCache
	seenActions *seenCache
}

// NewFeishuServer creates a new Feishu server and registers its handlers
// on the client
func NewFeishuServer(feishuClient *feishu.Client, handler DaycareHandler) *FeishuServer {
	s := &FeishuServer{
		feishuClient: feishuClient,
		handler:      handler,
		logger:       slog.With("component", "server"),
		seenMsgs:     newSeenCache(dedupWindow),
		seenActions:  newSeenCache(dedupWindow),
	}
	if feishuClient != nil {
		feishuClient.OnMessage(s.handleMessage)
		feishuClient.OnCardAction(s.handleCardAction)
	}
	return s
}

// Start runs the long connection until ctx is done
func (s *FeishuServer) Start(ctx context.Context) error {
	return s.feishuClient.Start(ctx)
}

// handleMessage handles Feishu messages
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	if !s.seenMsgs.firstSeen(msg.MsgID) {
		s.logger.Debug("duplicate message ignored", "msg", msg.MsgID)
		return
	}
	s.logger.Debug("message received", "chat", msg.ChatID, "chat_type", msg.ChatType, "sender", msg.SenderID)

	req := &service.MessageRequest{
		ChatID:   msg.ChatID,
		MsgID:    msg.MsgID,
		Content:  msg.Content,
		SenderID: msg.SenderID,
	}
	if err := s.handler.HandleMessage(context.Background(), req); err != nil {
		s.logger.Error("handle message failed", "msg", msg.MsgID, "err", err)
	}
}

// handleCardAction handles card button clicks and returns the toast
func (s *FeishuServer) handleCardAction(ctx context.Context, action *feishu.CardAction) string {
	if !s.seenActions.firstSeen(action.EventID) {
		s.logger.Debug("duplicate card action ignored", "event", action.EventID)
		return ""
	}

	return s.handler.HandleCardAction(ctx, &service.CardActionRequest{
		ChatID:   action.ChatID,
		MsgID:    action.MsgID,
		SenderID: action.OperatorID,
		Payload:  action.Value,
	})
}
