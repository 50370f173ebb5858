package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/repository"
)

type DogStore interface {
	Create(ctx context.Context, d repository.NewDog) (string, error)
	ListByOwner(ctx context.Context, ownerRef string) ([]repository.Dog, error)
	Delete(ctx context.Context, dogID, ownerRef string) error
}

type DogHandler struct {
	dogs DogStore
}

func NewDogHandler(d DogStore) *DogHandler {
	return &DogHandler{dogs: d}
}

type createDogReq struct {
	UserID      Ref    `json:"user_id"`
	Name        string `json:"name" validate:"required,max=100"`
	Breed       string `json:"breed"`
	Personality string `json:"personality"`
	Notes       string `json:"notes"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

func (h *DogHandler) ListByOwner(c echo.Context) error {
	dogs, err := h.dogs.ListByOwner(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "dogs": dogs})
}

func (h *DogHandler) Create(c echo.Context) error {
	var req createDogReq
	if err := bind(c, &req); err != nil {
		return err
	}
	owner := orCaller(c, req.UserID)
	if owner == "" {
		return apperror.MissingFields("user_id")
	}

	in := repository.NewDog{
		OwnerRef:    owner,
		Name:        req.Name,
		Breed:       req.Breed,
		Personality: req.Personality,
		Notes:       req.Notes,
		PhotoURL:    req.PhotoURL,
	}
	id, err := h.dogs.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "dog": repository.Dog{
		DogID:       id,
		OwnerID:     owner,
		Name:        in.Name,
		Breed:       in.Breed,
		Personality: in.Personality,
		Notes:       in.Notes,
		PhotoURL:    in.PhotoURL,
	}})
}

// Delete removes a dog owned by the user named in ?user_id= (or the caller).
func (h *DogHandler) Delete(c echo.Context) error {
	owner := orCaller(c, Ref(c.QueryParam("user_id")))
	if owner == "" {
		return apperror.MissingFields("user_id")
	}
	if err := h.dogs.Delete(c.Request().Context(), c.Param("dogId"), owner); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
