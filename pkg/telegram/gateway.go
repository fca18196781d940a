package telegram

import "context"

// PostContent is the rendered body of a draft's primary message. How the text
// and media are produced is the renderer's business; the gateway only ships it.
type PostContent struct {
	Text     string
	PhotoURL string
}

// Button is one inline keyboard action.
type Button struct {
	Label string
	Data  string
}

// Keyboard is a platform-independent inline keyboard layout.
type Keyboard struct {
	Rows [][]Button
}

// SentMessage carries the platform identifiers of a delivered message.
type SentMessage struct {
	MessageID int
}

// Gateway sends, edits and deletes messages in the chat platform. topicID 0
// means the chat's default topic (used for channels, which have no topics).
type Gateway interface {
	SendPost(ctx context.Context, chatID, topicID int64, content PostContent, keyboard *Keyboard) (SentMessage, error)
	SendText(ctx context.Context, chatID, topicID int64, text string, keyboard *Keyboard) (SentMessage, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard *Keyboard) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string, keyboard *Keyboard) error
	EditReplyMarkup(ctx context.Context, chatID int64, messageID int, keyboard *Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
