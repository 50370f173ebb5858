// Package chat persists conversation messages between owners and sitters.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/pet-buddy/internal/apperror"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 100
)

// Message types accepted by the store.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
)

type ReadReceipt struct {
	UserID string    `json:"userId" bson:"userId"`
	ReadAt time.Time `json:"readAt" bson:"readAt"`
}

type Message struct {
	ID             string        `json:"id" bson:"-"`
	ConversationID string        `json:"conversationId" bson:"conversationId"`
	SenderID       string        `json:"senderId" bson:"senderId"`
	SenderName     string        `json:"senderName,omitempty" bson:"senderName,omitempty"`
	Type           string        `json:"type" bson:"type"`
	Content        string        `json:"content" bson:"content"`
	ImageURI       string        `json:"imageUri,omitempty" bson:"imageUri,omitempty"`
	FileName       string        `json:"fileName,omitempty" bson:"fileName,omitempty"`
	FileSize       int64         `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	ReadBy         []ReadReceipt `json:"readBy" bson:"readBy"`
}

// Store is the message history backend.
type Store interface {
	Save(ctx context.Context, m Message) (Message, error)
	History(ctx context.Context, conversationID string, before time.Time, limit int) ([]Message, error)
}

// Prepare validates m and fills the server-side fields: type defaults to
// text, createdAt is now, and the sender has read its own message.
func Prepare(m Message, now time.Time) (Message, error) {
	var missing []string
	if strings.TrimSpace(m.ConversationID) == "" {
		missing = append(missing, "conversationId")
	}
	if strings.TrimSpace(m.SenderID) == "" {
		missing = append(missing, "senderId")
	}
	if len(missing) > 0 {
		return Message{}, apperror.MissingFields(missing...)
	}

	if m.Type == "" {
		m.Type = TypeText
	}
	switch m.Type {
	case TypeText:
		if strings.TrimSpace(m.Content) == "" {
			return Message{}, apperror.MissingFields("content")
		}
		m.ImageURI, m.FileName, m.FileSize = "", "", 0
	case TypeImage:
		if m.ImageURI == "" {
			return Message{}, apperror.MissingFields("imageUri")
		}
		m.FileName, m.FileSize = "", 0
	case TypeFile:
		if m.FileName == "" {
			return Message{}, apperror.MissingFields("fileName")
		}
		m.ImageURI = ""
	default:
		return Message{}, apperror.ValidationFailed("type", "type must be one of: text, image, file")
	}

	m.CreatedAt = now.UTC()
	m.ReadBy = []ReadReceipt{{UserID: m.SenderID, ReadAt: m.CreatedAt}}
	return m, nil
}

// ClampLimit applies the default and upper bound to a requested page size.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultHistoryLimit
	}
	if n > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return n
}

// preview is the conversation's last-message text: the content for text
// messages and the type otherwise.
func preview(m Message) string {
	if m.Type == TypeText {
		return m.Content
	}
	return m.Type
}
