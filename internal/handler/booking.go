package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/repository"
	"github.com/iliyamo/pet-buddy/internal/service"
)

type BookingCreator interface {
	Create(ctx context.Context, in service.CreateBookingInput) (service.CreateBookingResult, error)
}

type BookingReader interface {
	ListForOwner(ctx context.Context, ownerRef string) ([]repository.Booking, error)
	ListForSitter(ctx context.Context, sitterRef string) ([]repository.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, status string) (bool, error)
}

type BookingHandler struct {
	creator BookingCreator
	reader  BookingReader
}

func NewBookingHandler(creator BookingCreator, reader BookingReader) *BookingHandler {
	return &BookingHandler{creator: creator, reader: reader}
}

// createBookingReq names its source posting by one of two fields:
// source_post_id for a sitter posting, source_job_id for a job posting.
// source_kind may override the kind derived from the field.
type createBookingReq struct {
	OwnerID      Ref    `json:"owner_id"`
	SitterID     Ref    `json:"sitter_id"`
	DogID        Ref    `json:"dog_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Location     string `json:"location"`
	SourcePostID Ref    `json:"source_post_id"`
	SourceJobID  Ref    `json:"source_job_id"`
	SourceKind   string `json:"source_kind"`
}

func (r createBookingReq) source() (repository.PostingKind, string, error) {
	switch {
	case r.SourceJobID != "" && r.SourcePostID != "":
		return "", "", apperror.ValidationFailed("source_job_id", "only one of source_post_id and source_job_id may be set")
	case r.SourceJobID != "":
		return repository.JobPostingKind, r.SourceJobID.String(), nil
	case r.SourcePostID != "":
		kind, err := repository.ParsePostingKind(r.SourceKind)
		return kind, r.SourcePostID.String(), err
	}
	return "", "", nil
}

// Create books a sitter for an owner's dog and closes the source posting.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bind(c, &req); err != nil {
		return err
	}
	start, err := parseTimestamp("start_time", req.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTimestamp("end_time", req.EndTime)
	if err != nil {
		return err
	}
	kind, sourceID, err := req.source()
	if err != nil {
		return err
	}

	res, err := h.creator.Create(c.Request().Context(), service.CreateBookingInput{
		OwnerRef:   orCaller(c, req.OwnerID),
		SitterRef:  req.SitterID.String(),
		DogRef:     req.DogID.String(),
		StartTime:  start,
		EndTime:    end,
		Location:   strings.TrimSpace(req.Location),
		SourceKind: kind,
		SourceID:   sourceID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":        true,
		"booking_id":     res.BookingID,
		"posting_closed": res.PostingClosed,
	})
}

func (h *BookingHandler) ListForOwner(c echo.Context) error {
	bookings, err := h.reader.ListForOwner(c.Request().Context(), c.Param("ownerId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": bookings})
}

func (h *BookingHandler) ListForSitter(c echo.Context) error {
	bookings, err := h.reader.ListForSitter(c.Request().Context(), c.Param("sitterId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": bookings})
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	id := c.Param("bookingId")
	changed, err := h.reader.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	if !changed {
		return apperror.NotFound("booking", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": req.Status})
}
