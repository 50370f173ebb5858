package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/repository"
)

type PostingManager interface {
	CreateJobPosting(ctx context.Context, p repository.NewJobPosting) (string, error)
	CreateSitterPosting(ctx context.Context, p repository.NewSitterPosting) (string, error)
	ListActiveJobPostings(ctx context.Context) ([]repository.JobPosting, error)
	ListActiveSitterPostings(ctx context.Context) ([]repository.SitterPosting, error)
	Close(ctx context.Context, kind repository.PostingKind, id string) (bool, error)
}

// PostingHandler serves job postings (owners looking for a sitter) and sitter
// postings (sitters advertising availability).
type PostingHandler struct {
	postings PostingManager
}

func NewPostingHandler(p PostingManager) *PostingHandler {
	return &PostingHandler{postings: p}
}

type createJobReq struct {
	OwnerID     Ref    `json:"owner_id"`
	DogID       Ref    `json:"dog_id"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type createSitterPostingReq struct {
	SitterID      Ref    `json:"sitter_id"`
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	AvailableFrom string `json:"available_from"`
	AvailableTo   string `json:"available_to"`
}

func (h *PostingHandler) ListJobs(c echo.Context) error {
	jobs, err := h.postings.ListActiveJobPostings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "jobs": jobs})
}

func (h *PostingHandler) CreateJob(c echo.Context) error {
	var req createJobReq
	if err := bind(c, &req); err != nil {
		return err
	}
	owner := orCaller(c, req.OwnerID)
	if owner == "" {
		return apperror.MissingFields("owner_id")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return apperror.ValidationFailed("end_date", "end_date must not be before start_date")
	}

	id, err := h.postings.CreateJobPosting(c.Request().Context(), repository.NewJobPosting{
		OwnerRef:    owner,
		DogRef:      req.DogID.String(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "job_id": id})
}

// DeleteJob withdraws a job posting. The row is kept and closed so bookings
// that came from it still point somewhere.
func (h *PostingHandler) DeleteJob(c echo.Context) error {
	id := c.Param("jobId")
	changed, err := h.postings.Close(c.Request().Context(), repository.JobPostingKind, id)
	if err != nil {
		return err
	}
	if !changed {
		return apperror.NotFound("job posting", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *PostingHandler) CloseJob(c echo.Context) error {
	return h.close(c, repository.JobPostingKind, c.Param("jobId"))
}

func (h *PostingHandler) ListSitterPostings(c echo.Context) error {
	posts, err := h.postings.ListActiveSitterPostings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "posts": posts})
}

func (h *PostingHandler) CreateSitterPosting(c echo.Context) error {
	var req createSitterPostingReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sitter := orCaller(c, req.SitterID)
	if sitter == "" {
		return apperror.MissingFields("sitter_id")
	}
	from, err := parseDate("available_from", req.AvailableFrom)
	if err != nil {
		return err
	}
	to, err := parseDate("available_to", req.AvailableTo)
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperror.ValidationFailed("available_to", "available_to must not be before available_from")
	}

	id, err := h.postings.CreateSitterPosting(c.Request().Context(), repository.NewSitterPosting{
		SitterRef:     sitter,
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		AvailableFrom: from,
		AvailableTo:   to,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "post_id": id})
}

func (h *PostingHandler) CloseSitterPosting(c echo.Context) error {
	return h.close(c, repository.SitterPostingKind, c.Param("postId"))
}

// close reports whether this call changed the posting; a second close of the
// same posting answers success=false.
func (h *PostingHandler) close(c echo.Context, kind repository.PostingKind, id string) error {
	changed, err := h.postings.Close(c.Request().Context(), kind, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": changed})
}
