package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/queue"
	"github.com/examstack/examhall/internal/repository"
	queue_publisher "github.com/examstack/examhall/internal/service"
)

// HallTicketHandler covers the ticket workflow: staff issue tickets,
// admins approve or reject teacher-issued ones, students read their own.
type HallTicketHandler struct {
	Tickets *repository.HallTicketRepo
	Exams   *repository.ExamRepo
	Users   *repository.UserRepo
}

func NewHallTicketHandler(tickets *repository.HallTicketRepo, exams *repository.ExamRepo, users *repository.UserRepo) *HallTicketHandler {
	if tickets == nil || exams == nil || users == nil {
		panic("nil repository passed to NewHallTicketHandler")
	}
	return &HallTicketHandler{Tickets: tickets, Exams: exams, Users: users}
}

type issueTicketReq struct {
	StudentID  uint64 `json:"student_id"`
	ExamID     uint64 `json:"exam_id"`
	Hall       string `json:"hall"`
	SeatNumber string `json:"seat_number"`
	Notes      string `json:"notes"`
}

type ticketResp struct {
	ID              uint64 `json:"id"`
	SerialNo        string `json:"serial_no"`
	StudentID       uint64 `json:"student_id"`
	ExamID          uint64 `json:"exam_id"`
	Hall            string `json:"hall"`
	SeatNumber      string `json:"seat_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
	ApprovalStatus  string `json:"approval_status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	IssuedAt        string `json:"issued_at"`
}

func toTicketResp(t *repository.HallTicket) ticketResp {
	return ticketResp{
		ID:              t.ID,
		SerialNo:        t.SerialNo,
		StudentID:       t.StudentID,
		ExamID:          t.ExamID,
		Hall:            t.Hall,
		SeatNumber:      t.SeatNumber.String,
		Notes:           t.Notes.String,
		Status:          t.Status,
		ApprovalStatus:  t.ApprovalStatus,
		RejectionReason: t.RejectionReason.String,
		IssuedAt:        t.IssuedAt.UTC().Format(time.RFC3339),
	}
}

func publishTicketEvent(t *repository.HallTicket, examTitle string) {
	ev := queue.TicketIssuedEvent{
		TicketID:   t.ID,
		SerialNo:   t.SerialNo,
		StudentID:  t.StudentID,
		ExamID:     t.ExamID,
		ExamTitle:  examTitle,
		Hall:       t.Hall,
		SeatNumber: t.SeatNumber.String,
		Approval:   t.ApprovalStatus,
		IssuedAt:   t.IssuedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishTicketIssued(ctx, ev)
	}()
}

// Issue creates (or reissues) the ticket for a (student, exam) pair.
// Tickets issued by an admin are approved immediately; teacher-issued
// tickets start PENDING and wait for an admin decision. The student's
// semester must match the exam's.
func (h *HallTicketHandler) Issue(c echo.Context) error {
	var req issueTicketReq
	if err := c.Bind(&req); err != nil || req.StudentID == 0 || req.ExamID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id/exam_id required"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exam, err := h.Exams.GetByID(ctx, req.ExamID)
	if err != nil {
		if err == repository.ErrExamNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load exam failed"})
	}
	if !exam.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
	}
	student, err := h.Users.GetByID(ctx, req.StudentID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load student failed"})
	}
	if student.Role != repository.RoleStudent || !student.IsActive {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "user is not an active student"})
	}
	if student.Semester.Valid && int(student.Semester.Int32) != exam.Semester {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "student semester does not match exam"})
	}

	t := &repository.HallTicket{
		StudentID: req.StudentID,
		ExamID:    req.ExamID,
		Hall:      exam.Hall,
	}
	if hl := strings.TrimSpace(req.Hall); hl != "" {
		t.Hall = hl
	}
	if sn := strings.TrimSpace(req.SeatNumber); sn != "" {
		t.SeatNumber = sql.NullString{String: sn, Valid: true}
	}
	if n := strings.TrimSpace(req.Notes); n != "" {
		t.Notes = sql.NullString{String: n, Valid: true}
	}
	if currentRole(c) == repository.RoleAdmin {
		t.ApprovalStatus = repository.ApprovalApproved
		t.ApprovedBy = sql.NullInt64{Int64: int64(uid), Valid: true}
		t.ApprovedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	} else {
		t.ApprovalStatus = repository.ApprovalPending
	}

	if err := h.Tickets.Issue(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue ticket failed"})
	}
	if t.ApprovalStatus == repository.ApprovalApproved {
		publishTicketEvent(t, exam.Title)
	}
	return c.JSON(http.StatusCreated, toTicketResp(t))
}

type approvalReq struct {
	Status string `json:"status"` // APPROVED | REJECTED
	Reason string `json:"reason"`
}

// SetApproval records an admin decision on a pending ticket. Approval
// makes the ticket visible to the student and emits a notification event.
func (h *HallTicketHandler) SetApproval(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req approvalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != repository.ApprovalApproved && status != repository.ApprovalRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be APPROVED or REJECTED"})
	}
	if status == repository.ApprovalRejected && strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required when rejecting"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tickets.GetByID(ctx, id); err != nil {
		if err == repository.ErrTicketNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ticket failed"})
	}

	t, err := h.Tickets.SetApproval(ctx, id, status, uid, strings.TrimSpace(req.Reason))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update approval failed"})
	}
	if status == repository.ApprovalApproved {
		title := ""
		if exam, err := h.Exams.GetByID(ctx, t.ExamID); err == nil {
			title = exam.Title
		}
		publishTicketEvent(t, title)
	}
	return c.JSON(http.StatusOK, toTicketResp(t))
}

// Revoke deactivates a ticket.
func (h *HallTicketHandler) Revoke(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.Revoke(ctx, id); err != nil {
		if err == repository.ErrTicketNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke ticket failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByExam returns all tickets for an exam with student details, for
// invigilation lists.
func (h *HallTicketHandler) ListByExam(c echo.Context) error {
	examID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exam id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListByExam(ctx, examID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tickets failed"})
	}
	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		row := toTicketResp(&t.HallTicket)
		out = append(out, echo.Map{
			"ticket":       row,
			"student_name": t.StudentName.String,
			"roll_number":  t.RollNumber.String,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}

// MyTickets returns the caller's approved active tickets with exam
// summaries. Pending and rejected tickets do not appear.
func (h *HallTicketHandler) MyTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListForStudent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tickets failed"})
	}
	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		row := toTicketResp(&t.HallTicket)
		entry := echo.Map{"ticket": row}
		if t.ExamTitle.Valid {
			exam := echo.Map{
				"title":      t.ExamTitle.String,
				"start_time": t.StartTime.String,
				"end_time":   t.EndTime.String,
			}
			if t.ExamDate.Valid {
				exam["date"] = t.ExamDate.Time.Format("2006-01-02")
			}
			entry["exam"] = exam
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}
