// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into notification
// log entries.
package queue

// Queue names shared by the publisher and the consumer.
const (
	TicketIssuedQueue     = "hallticket.issued"
	SeatingFinalizedQueue = "seating.finalized"
)

// TicketIssuedEvent is published when a hall ticket is issued or
// approved. It carries enough information for downstream consumers to
// notify the student without querying the primary database.
type TicketIssuedEvent struct {
	TicketID   uint64 `json:"ticket_id"`
	SerialNo   string `json:"serial_no"`
	StudentID  uint64 `json:"student_id"`
	ExamID     uint64 `json:"exam_id"`
	ExamTitle  string `json:"exam_title"`
	Hall       string `json:"hall"`
	SeatNumber string `json:"seat_number,omitempty"`
	Approval   string `json:"approval"`
	IssuedAt   string `json:"issued_at"`
}

// SeatingFinalizedEvent is published when a seating arrangement becomes
// immutable, so notification or export pipelines can pick it up.
type SeatingFinalizedEvent struct {
	ArrangementID uint64 `json:"arrangement_id"`
	ExamID        uint64 `json:"exam_id"`
	ExamTitle     string `json:"exam_title"`
	Hall          string `json:"hall"`
	SeatCount     int    `json:"seat_count"`
	FinalizedBy   uint64 `json:"finalized_by"`
	FinalizedAt   string `json:"finalized_at"`
}
