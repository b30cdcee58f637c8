package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/queue"
	"github.com/examstack/examhall/internal/repository"
	"github.com/examstack/examhall/internal/seating"
	queue_publisher "github.com/examstack/examhall/internal/service"
)

// SeatingHandler exposes the seating arrangement lifecycle. The heavy
// lifting lives in the seating package; this layer binds requests, maps
// sentinels onto status codes and decorates listings with exam summaries.
type SeatingHandler struct {
	Svc   *seating.Service
	Exams *repository.ExamRepo
}

func NewSeatingHandler(svc *seating.Service, exams *repository.ExamRepo) *SeatingHandler {
	if svc == nil || exams == nil {
		panic("nil dependency passed to NewSeatingHandler")
	}
	return &SeatingHandler{Svc: svc, Exams: exams}
}

type createArrangementReq struct {
	ExamID uint64 `json:"exam_id"`
	Hall   string `json:"hall"`
}

type updateArrangementReq struct {
	Hall        *string                  `json:"hall"`
	Reassign    bool                     `json:"reassign"`
	Assignments []seating.SeatAssignment `json:"assignments"`
}

// examSummary is the slim exam block attached to arrangement listings.
type examSummary struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

func seatingError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, seating.ErrExamNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
	case errors.Is(err, seating.ErrArrangementNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seating arrangement not found"})
	case errors.Is(err, seating.ErrArrangementExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "arrangement already exists for this exam and hall"})
	case errors.Is(err, seating.ErrArrangementFinalized):
		return c.JSON(http.StatusConflict, echo.Map{"error": "arrangement is finalized"})
	case errors.Is(err, seating.ErrHallRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hall is required"})
	case errors.Is(err, seating.ErrInvalidAssignments):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignments must have unique seats, cells and students"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

// Create generates seats for the exam's enrollment and stores the result
// as a draft.
func (h *SeatingHandler) Create(c echo.Context) error {
	var req createArrangementReq
	if err := c.Bind(&req); err != nil || req.ExamID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exam_id required"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	arr, err := h.Svc.Create(ctx, req.ExamID, strings.TrimSpace(req.Hall), uid)
	if err != nil {
		return seatingError(c, err, "create arrangement failed")
	}
	return c.JSON(http.StatusCreated, arr)
}

// List returns arrangements, optionally filtered by ?exam_id= and
// ?status=, each with a summary of its exam when the exam still exists.
func (h *SeatingHandler) List(c echo.Context) error {
	var f seating.Filter
	if s := c.QueryParam("exam_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exam_id"})
		}
		f.ExamID = id
	}
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		if s != string(seating.StatusDraft) && s != string(seating.StatusFinalized) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		f.Status = seating.Status(s)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	arrs, err := h.Svc.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list arrangements failed"})
	}

	// One exam lookup per distinct exam; dangling references are skipped.
	summaries := map[uint64]*examSummary{}
	out := make([]echo.Map, 0, len(arrs))
	for _, arr := range arrs {
		entry := echo.Map{"arrangement": arr}
		sum, seen := summaries[arr.ExamID]
		if !seen {
			if e, err := h.Exams.GetByID(ctx, arr.ExamID); err == nil {
				sum = &examSummary{ID: e.ID, Title: e.Title, Date: e.Date.Format("2006-01-02")}
			}
			summaries[arr.ExamID] = sum
		}
		if sum != nil {
			entry["exam"] = sum
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"arrangements": out})
}

// Get returns one arrangement with its full assignment list.
func (h *SeatingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	arr, err := h.Svc.Get(ctx, id)
	if err != nil {
		return seatingError(c, err, "load arrangement failed")
	}
	return c.JSON(http.StatusOK, arr)
}

// Update edits a draft: move it to another hall, replace the assignment
// list manually, or regenerate it from current enrollment with reassign.
func (h *SeatingHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateArrangementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Hall != nil {
		trimmed := strings.TrimSpace(*req.Hall)
		if trimmed == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "hall must not be empty"})
		}
		req.Hall = &trimmed
	}
	if req.Hall == nil && !req.Reassign && req.Assignments == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	arr, err := h.Svc.Update(ctx, id, seating.UpdatePatch{
		Hall:        req.Hall,
		Reassign:    req.Reassign,
		Assignments: req.Assignments,
	})
	if err != nil {
		return seatingError(c, err, "update arrangement failed")
	}
	return c.JSON(http.StatusOK, arr)
}

// Finalize makes an arrangement immutable and emits a notification
// event. Finalizing twice is a no-op.
func (h *SeatingHandler) Finalize(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	arr, err := h.Svc.Finalize(ctx, id)
	if err != nil {
		return seatingError(c, err, "finalize arrangement failed")
	}

	title := ""
	if e, err := h.Exams.GetByID(ctx, arr.ExamID); err == nil {
		title = e.Title
	}
	ev := queue.SeatingFinalizedEvent{
		ArrangementID: arr.ID,
		ExamID:        arr.ExamID,
		ExamTitle:     title,
		Hall:          arr.Hall,
		SeatCount:     len(arr.Assignments),
		FinalizedBy:   uid,
		FinalizedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishSeatingFinalized(pubCtx, ev)
	}()

	return c.JSON(http.StatusOK, arr)
}

// Delete removes an arrangement in any state.
func (h *SeatingHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, id); err != nil {
		return seatingError(c, err, "delete arrangement failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// MySeating returns the caller's seats across all arrangements. An
// arrangement in which the student holds no seat simply does not appear.
func (h *SeatingHandler) MySeating(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seats, err := h.Svc.StudentSeats(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seating failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}
