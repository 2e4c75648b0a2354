package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher/callback"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message represents a received text message
type Message struct {
	ChatID     string
	MsgID      string
	ChatType   string // p2p, group
	SenderID   string // open_id
	Content    string // text with mention placeholders removed
	CreateTime int64  // milliseconds Unix timestamp from Feishu
}

// CardAction represents a click on a card button
type CardAction struct {
	EventID    string
	ChatID     string
	MsgID      string // message carrying the card
	OperatorID string // open_id of the user who clicked
	Value      string // the button's "token" value
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// CardActionHandler is the callback for card clicks. It runs before the
// callback is answered and returns the toast to show, "" for none.
type CardActionHandler func(ctx context.Context, action *CardAction) string

// Client is the Feishu API client
type Client struct {
	appID             string
	appSecret         string
	verificationToken string
	encryptKey        string
	larkCli           *lark.Client
	wsCli             *larkws.Client
	onMessage         MessageHandler
	onCardAction      CardActionHandler
	logger            *slog.Logger
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		logger:    slog.With("component", "feishu"),
	}
}

// SetEventKeys sets the verification token and encrypt key used to check
// webhook deliveries
func (c *Client) SetEventKeys(verificationToken, encryptKey string) {
	c.verificationToken = verificationToken
	c.encryptKey = encryptKey
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// OnCardAction sets the card click handler
func (c *Client) OnCardAction(handler CardActionHandler) {
	c.onCardAction = handler
}

// EventDispatcher returns a dispatcher routing messages and card clicks to
// the registered handlers. It serves both the long connection and webhooks.
func (c *Client) EventDispatcher() *dispatcher.EventDispatcher {
	// Handlers must return quickly so the SDK can ACK before Feishu retries
	return dispatcher.NewEventDispatcher(c.verificationToken, c.encryptKey).
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			if msg := parseMessage(event); msg != nil && c.onMessage != nil {
				go c.onMessage(msg)
			}
			return nil
		}).
		OnP2CardActionTrigger(func(ctx context.Context, event *callback.CardActionTriggerEvent) (*callback.CardActionTriggerResponse, error) {
			resp := &callback.CardActionTriggerResponse{}
			action := parseCardAction(event)
			if action == nil || c.onCardAction == nil {
				return resp, nil
			}
			if toast := c.onCardAction(ctx, action); toast != "" {
				resp.Toast = &callback.Toast{Type: "info", Content: toast}
			}
			return resp, nil
		})
}

// Start connects to Feishu over the long connection and blocks until ctx
// is done
func (c *Client) Start(ctx context.Context) error {
	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(c.EventDispatcher()),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	c.logger.Info("starting long connection")
	return c.wsCli.Start(ctx)
}

// parseMessage extracts a text message, nil for anything the bot ignores
func parseMessage(event *larkim.P2MessageReceiveV1) *Message {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return nil
	}
	raw := event.Event.Message

	// Messages sent by apps, including this bot, are never commands
	sender := event.Event.Sender
	if sender == nil || sender.SenderId == nil || sender.SenderId.OpenId == nil {
		return nil
	}
	if sender.SenderType != nil && *sender.SenderType == "app" {
		return nil
	}
	if raw.MessageType == nil || *raw.MessageType != larkim.MsgTypeText || raw.Content == nil {
		return nil
	}

	msg := &Message{
		ChatID:   deref(raw.ChatId),
		MsgID:    deref(raw.MessageId),
		ChatType: deref(raw.ChatType),
		SenderID: *sender.SenderId.OpenId,
		Content:  parseTextContent(*raw.Content),
	}
	if raw.CreateTime != nil {
		if ts, err := strconv.ParseInt(*raw.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}
	return msg
}

var mentionPlaceholder = regexp.MustCompile(`@_user_\d+`)

// parseTextContent extracts text from a text message, dropping mention
// placeholders (@_user_1) so "@bot /help" reads as "/help"
func parseTextContent(content string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(mentionPlaceholder.ReplaceAllString(parsed.Text, ""))
}

// parseCardAction extracts a button click carrying a token value
func parseCardAction(event *callback.CardActionTriggerEvent) *CardAction {
	if event == nil || event.Event == nil || event.Event.Operator == nil || event.Event.Action == nil {
		return nil
	}

	token, _ := event.Event.Action.Value["token"].(string)
	action := &CardAction{
		OperatorID: event.Event.Operator.OpenID,
		Value:      token,
	}
	if event.EventV2Base != nil && event.EventV2Base.Header != nil {
		action.EventID = event.EventV2Base.Header.EventID
	}
	if ctx := event.Event.Context; ctx != nil {
		action.MsgID = ctx.OpenMessageID
		action.ChatID = ctx.OpenChatID
	}
	if action.OperatorID == "" {
		return nil
	}
	return action
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	_, err := c.create(ctx, chatID, larkim.MsgTypeText, string(contentJSON))
	return err
}

// SendCard sends an interactive card and returns its message ID
func (c *Client) SendCard(ctx context.Context, chatID string, card Card) (string, error) {
	content, err := card.JSON()
	if err != nil {
		return "", err
	}
	return c.create(ctx, chatID, larkim.MsgTypeInteractive, content)
}

func (c *Client) create(ctx context.Context, chatID, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send %s message failed: %w", msgType, err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("send %s message error: %s", msgType, resp.Msg)
	}

	msgID := ""
	if resp.Data != nil {
		msgID = deref(resp.Data.MessageId)
	}
	c.logger.Debug("message sent", "chat", chatID, "type", msgType, "msg", msgID)
	return msgID, nil
}

// PatchCard replaces the content of a sent card
func (c *Client) PatchCard(ctx context.Context, msgID string, card Card) error {
	content, err := card.JSON()
	if err != nil {
		return err
	}

	req := larkim.NewPatchMessageReqBuilder().
		MessageId(msgID).
		Body(larkim.NewPatchMessageReqBodyBuilder().
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Patch(ctx, req)
	if err != nil {
		return fmt.Errorf("patch card failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("patch card error: %s", resp.Msg)
	}

	c.logger.Debug("card patched", "msg", msgID)
	return nil
}

// UploadImage uploads an image for use in messages and returns its key
func (c *Client) UploadImage(ctx context.Context, data []byte) (string, error) {
	req := larkim.NewCreateImageReqBuilder().
		Body(larkim.NewCreateImageReqBodyBuilder().
			ImageType(larkim.ImageTypeMessage).
			Image(bytes.NewReader(data)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Image.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload image failed: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("upload image error: %s", resp.Msg)
	}
	if resp.Data == nil || resp.Data.ImageKey == nil {
		return "", fmt.Errorf("upload image: no image key returned")
	}
	return *resp.Data.ImageKey, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
