package feishu

import (
	"encoding/json"
	"fmt"
)

// Card is an interactive message: an optional image, a markdown body and a
// row of buttons
type Card struct {
	ImageKey string
	Markdown string
	Buttons  []Button
}

// Button is one card button; Value comes back as the "token" of the click
type Button struct {
	Text    string
	Value   string
	Primary bool
}

type cardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type cardElement struct {
	Tag     string            `json:"tag"`
	ImgKey  string            `json:"img_key,omitempty"`
	Alt     *cardText         `json:"alt,omitempty"`
	Text    *cardText         `json:"text,omitempty"`
	Actions []cardElement     `json:"actions,omitempty"`
	Type    string            `json:"type,omitempty"`
	Value   map[string]string `json:"value,omitempty"`
}

type cardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
	UpdateMulti    bool `json:"update_multi"`
}

type cardBody struct {
	Config   cardConfig    `json:"config"`
	Elements []cardElement `json:"elements"`
}

// JSON renders the card in the message card format
func (c Card) JSON() (string, error) {
	body := cardBody{Config: cardConfig{WideScreenMode: true, UpdateMulti: true}}

	if c.ImageKey != "" {
		body.Elements = append(body.Elements, cardElement{
			Tag:    "img",
			ImgKey: c.ImageKey,
			Alt:    &cardText{Tag: "plain_text", Content: ""},
		})
	}
	body.Elements = append(body.Elements, cardElement{
		Tag:  "div",
		Text: &cardText{Tag: "lark_md", Content: c.Markdown},
	})

	if len(c.Buttons) > 0 {
		row := cardElement{Tag: "action"}
		for _, b := range c.Buttons {
			kind := "default"
			if b.Primary {
				kind = "primary"
			}
			row.Actions = append(row.Actions, cardElement{
				Tag:   "button",
				Text:  &cardText{Tag: "plain_text", Content: b.Text},
				Type:  kind,
				Value: map[string]string{"token": b.Value},
			})
		}
		body.Elements = append(body.Elements, row)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal card: %w", err)
	}
	return string(data), nil
}
