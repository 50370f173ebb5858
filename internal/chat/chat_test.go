package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/pet-buddy/internal/apperror"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 30, ClampLimit(0))
	assert.Equal(t, 30, ClampLimit(-5))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, 100, ClampLimit(500))
}

func TestPrepare(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	m, err := Prepare(Message{ConversationID: "c1", SenderID: "u1", Content: "hi", ImageURI: "x"}, now)
	require.NoError(t, err)
	assert.Equal(t, TypeText, m.Type)
	assert.Empty(t, m.ImageURI)
	assert.Equal(t, now, m.CreatedAt)
	assert.Equal(t, []ReadReceipt{{UserID: "u1", ReadAt: now}}, m.ReadBy)
	assert.Equal(t, "hi", preview(m))

	img, err := Prepare(Message{ConversationID: "c1", SenderID: "u1", Type: TypeImage, ImageURI: "https://img"}, now)
	require.NoError(t, err)
	assert.Equal(t, "image", preview(img))

	tests := []struct {
		name string
		in   Message
		kind error
	}{
		{"no conversation", Message{SenderID: "u1", Content: "hi"}, apperror.ErrValidation},
		{"empty text", Message{ConversationID: "c1", SenderID: "u1"}, apperror.ErrValidation},
		{"file without name", Message{ConversationID: "c1", SenderID: "u1", Type: TypeFile}, apperror.ErrValidation},
		{"unknown type", Message{ConversationID: "c1", SenderID: "u1", Type: "video"}, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.in, now)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestHistoryFilter(t *testing.T) {
	assert.Equal(t, bson.M{"conversationId": "c1"}, historyFilter("c1", time.Time{}))

	before := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, bson.M{
		"conversationId": "c1",
		"createdAt":      bson.M{"$lt": before},
	}, historyFilter("c1", before))
}

func TestReverse(t *testing.T) {
	ms := []Message{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	reverse(ms)
	assert.Equal(t, "c", ms[0].Content)
	assert.Equal(t, "a", ms[2].Content)
}
