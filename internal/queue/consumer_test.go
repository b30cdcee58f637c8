package queue

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLine_TicketIssued(t *testing.T) {
	body, err := json.Marshal(TicketIssuedEvent{
		TicketID:  10,
		SerialNo:  "f4c6f1f2-0000-0000-0000-000000000000",
		StudentID: 7,
		ExamID:    1,
		ExamTitle: "Algorithms Final",
		Hall:      "Hall-A",
		Approval:  "APPROVED",
		IssuedAt:  "2026-08-31T10:00:00Z",
	})
	require.NoError(t, err)

	line, err := formatLine(TicketIssuedQueue, body)
	require.NoError(t, err)
	assert.Contains(t, line, "Hall ticket issued")
	assert.Contains(t, line, "ticket_id=10")
	assert.Contains(t, line, `exam="Algorithms Final"`)
	assert.Contains(t, line, "approval=APPROVED")
}

func TestFormatLine_SeatingFinalized(t *testing.T) {
	body, err := json.Marshal(SeatingFinalizedEvent{
		ArrangementID: 3,
		ExamID:        1,
		ExamTitle:     "Algorithms Final",
		Hall:          "Hall-A",
		SeatCount:     23,
		FinalizedBy:   42,
		FinalizedAt:   "2026-08-31T10:00:00Z",
	})
	require.NoError(t, err)

	line, err := formatLine(SeatingFinalizedQueue, body)
	require.NoError(t, err)
	assert.Contains(t, line, "Seating finalized")
	assert.Contains(t, line, "seats=23")
	assert.Contains(t, line, "by=42")
}

func TestForwardDeliveries_TagsWithQueueName(t *testing.T) {
	msgs := make(chan amqp.Delivery, 1)
	msgs <- amqp.Delivery{Body: []byte(`{"exam_id":1}`)}
	close(msgs)

	out := make(chan tagged, 1)
	forwardDeliveries(msgs, SeatingFinalizedQueue, out, make(chan struct{}))

	got := <-out
	assert.Equal(t, SeatingFinalizedQueue, got.queue)
	assert.Equal(t, []byte(`{"exam_id":1}`), got.d.Body)
}

func TestForwardDeliveries_ReleasedOnShutdown(t *testing.T) {
	msgs := make(chan amqp.Delivery, 1)
	msgs <- amqp.Delivery{Body: []byte(`{}`)}

	// Nothing reads from out, so the forwarder blocks mid-send the way it
	// would when the consume loop has already returned on a broker close.
	out := make(chan tagged)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		forwardDeliveries(msgs, TicketIssuedQueue, out, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder still blocked after shutdown")
	}
}

func TestFormatLine_UnknownQueue(t *testing.T) {
	_, err := formatLine("nope", []byte(`{}`))
	assert.Error(t, err)
}

func TestFormatLine_BadPayload(t *testing.T) {
	_, err := formatLine(TicketIssuedQueue, []byte(`not json`))
	assert.Error(t, err)
}
