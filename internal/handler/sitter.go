package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/repository"
)

type SitterStore interface {
	CreateProfile(ctx context.Context, userRef, intro string) (string, error)
	Get(ctx context.Context, userRef string) (repository.Sitter, error)
	List(ctx context.Context) ([]repository.Sitter, error)
}

type SitterHandler struct {
	sitters SitterStore
}

func NewSitterHandler(s SitterStore) *SitterHandler {
	return &SitterHandler{sitters: s}
}

type createSitterReq struct {
	UserID           Ref    `json:"user_id"`
	SelfIntroduction string `json:"self_introduction" validate:"max=2000"`
}

// Create turns an existing user into a sitter.
func (h *SitterHandler) Create(c echo.Context) error {
	var req createSitterReq
	if err := bind(c, &req); err != nil {
		return err
	}
	user := orCaller(c, req.UserID)
	if user == "" {
		return apperror.MissingFields("user_id")
	}
	id, err := h.sitters.CreateProfile(c.Request().Context(), user, req.SelfIntroduction)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "sitter_id": id})
}

func (h *SitterHandler) Get(c echo.Context) error {
	s, err := h.sitters.Get(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "sitter": s})
}

func (h *SitterHandler) List(c echo.Context) error {
	list, err := h.sitters.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "sitters": list})
}
