package repo

import (
	"context"
)

// Card is a platform-neutral status card
type Card struct {
	ImageKey string // uploaded image shown above the text, optional
	Text     string // markdown body
	Buttons  []CardButton
}

// CardButton is one button of a card; Payload is returned verbatim on click
type CardButton struct {
	Label   string
	Payload string
	Primary bool
}

// MessageRepo is the messaging transport as seen by the bot
type MessageRepo interface {
	// SendText sends a plain text message
	SendText(ctx context.Context, chatID, text string) error

	// SendCard sends an interactive card and returns its message ID
	SendCard(ctx context.Context, chatID string, card Card) (string, error)

	// EditCard replaces the content of a previously sent card
	EditCard(ctx context.Context, msgID string, card Card) error

	// UploadImage uploads image bytes and returns a key usable in cards
	UploadImage(ctx context.Context, data []byte) (string, error)
}
