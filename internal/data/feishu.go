package data

import (
	"context"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
	"github.com/DevRickLin/feishu-daycare-bot/internal/infra/feishu"
)

// feishuClient is the part of feishu.Client the repository needs
type feishuClient interface {
	SendText(ctx context.Context, chatID, text string) error
	SendCard(ctx context.Context, chatID string, card feishu.Card) (string, error)
	PatchCard(ctx context.Context, msgID string, card feishu.Card) error
	UploadImage(ctx context.Context, data []byte) (string, error)
}

// feishuRepo implements the Feishu message repository
type feishuRepo struct {
	client feishuClient
}

// NewFeishuRepo creates a new Feishu repository
func NewFeishuRepo(client *feishu.Client) repo.MessageRepo {
	return &feishuRepo{client: client}
}

// SendText sends a text message
func (r *feishuRepo) SendText(ctx context.Context, chatID, text string) error {
	return r.client.SendText(ctx, chatID, text)
}

// SendCard sends an interactive card
func (r *feishuRepo) SendCard(ctx context.Context, chatID string, card repo.Card) (string, error) {
	return r.client.SendCard(ctx, chatID, toFeishuCard(card))
}

// EditCard patches a sent card in place
func (r *feishuRepo) EditCard(ctx context.Context, msgID string, card repo.Card) error {
	return r.client.PatchCard(ctx, msgID, toFeishuCard(card))
}

// UploadImage uploads a message image
func (r *feishuRepo) UploadImage(ctx context.Context, data []byte) (string, error) {
	return r.client.UploadImage(ctx, data)
}

func toFeishuCard(card repo.Card) feishu.Card {
	out := feishu.Card{
		ImageKey: card.ImageKey,
		Markdown: card.Text,
	}
	for _, b := range card.Buttons {
		out.Buttons = append(out.Buttons, feishu.Button{
			Text:    b.Label,
			Value:   b.Payload,
			Primary: b.Primary,
		})
	}
	return out
}
