package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/chat"
)

var errChatDisabled = errors.New("chat store not configured")

// ChatHandler serves conversation history. store is nil when no MongoDB is
// configured, in which case every call answers 503.
type ChatHandler struct {
	store chat.Store
	now   func() time.Time
}

func NewChatHandler(store chat.Store) *ChatHandler {
	return &ChatHandler{store: store, now: time.Now}
}

type postMessageReq struct {
	SenderID   Ref    `json:"senderId"`
	SenderName string `json:"senderName"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	ImageURI   string `json:"imageUri"`
	FileName   string `json:"fileName"`
	FileSize   int64  `json:"fileSize"`
}

// History returns up to ?limit= messages older than ?before=, oldest first.
func (h *ChatHandler) History(c echo.Context) error {
	if h.store == nil {
		return apperror.Unavailable(errChatDisabled)
	}
	var before time.Time
	if s := c.QueryParam("before"); s != "" {
		t, err := parseTimestamp("before", s)
		if err != nil {
			return err
		}
		before = t
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return apperror.ValidationFailed("limit", "limit must be a number")
		}
		limit = n
	}

	msgs, err := h.store.History(c.Request().Context(), c.Param("conversationId"), before, chat.ClampLimit(limit))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": msgs})
}

func (h *ChatHandler) Post(c echo.Context) error {
	if h.store == nil {
		return apperror.Unavailable(errChatDisabled)
	}
	var req postMessageReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := chat.Prepare(chat.Message{
		ConversationID: c.Param("conversationId"),
		SenderID:       orCaller(c, req.SenderID),
		SenderName:     req.SenderName,
		Type:           req.Type,
		Content:        req.Content,
		ImageURI:       req.ImageURI,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
	}, h.now())
	if err != nil {
		return err
	}
	saved, err := h.store.Save(c.Request().Context(), m)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": saved})
}
