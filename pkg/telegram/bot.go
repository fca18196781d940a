package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// BotGateway implements Gateway over the Telegram Bot API.
type BotGateway struct {
	bot *bot.Bot
}

// NewBotGateway dials the Bot API with the provided token.
func NewBotGateway(token string) (*BotGateway, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &BotGateway{bot: b}, nil
}

func (g *BotGateway) SendPost(ctx context.Context, chatID, topicID int64, content PostContent, keyboard *Keyboard) (SentMessage, error) {
	if content.PhotoURL != "" {
		msg, err := g.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:          chatID,
			MessageThreadID: int(topicID),
			Photo:           &models.InputFileString{Data: content.PhotoURL},
			Caption:         content.Text,
			ReplyMarkup:     toMarkup(keyboard),
		})
		if err != nil {
			return SentMessage{}, ClassifyError(err)
		}
		return SentMessage{MessageID: msg.ID}, nil
	}

	msg, err := g.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: int(topicID),
		Text:            content.Text,
		ReplyMarkup:     toMarkup(keyboard),
	})
	if err != nil {
		return SentMessage{}, ClassifyError(err)
	}
	return SentMessage{MessageID: msg.ID}, nil
}

func (g *BotGateway) SendText(ctx context.Context, chatID, topicID int64, text string, keyboard *Keyboard) (SentMessage, error) {
	msg, err := g.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: int(topicID),
		Text:            text,
		ReplyMarkup:     toMarkup(keyboard),
	})
	if err != nil {
		return SentMessage{}, ClassifyError(err)
	}
	return SentMessage{MessageID: msg.ID}, nil
}

func (g *BotGateway) EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard *Keyboard) error {
	_, err := g.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: toMarkup(keyboard),
	})
	return ClassifyError(err)
}

func (g *BotGateway) EditCaption(ctx context.Context, chatID int64, messageID int, caption string, keyboard *Keyboard) error {
	_, err := g.bot.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Caption:     caption,
		ReplyMarkup: toMarkup(keyboard),
	})
	return ClassifyError(err)
}

func (g *BotGateway) EditReplyMarkup(ctx context.Context, chatID int64, messageID int, keyboard *Keyboard) error {
	_, err := g.bot.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: toMarkup(keyboard),
	})
	return ClassifyError(err)
}

func (g *BotGateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := g.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return ClassifyError(err)
}

func toMarkup(keyboard *Keyboard) models.ReplyMarkup {
	if keyboard == nil || len(keyboard.Rows) == 0 {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(keyboard.Rows))
	for _, row := range keyboard.Rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         b.Label,
				CallbackData: b.Data,
			})
		}
		rows = append(rows, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
