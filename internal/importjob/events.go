package importjob

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/ilker/ledger-server/internal/snapshot"
)

// TopicImportFinished carries one FinishEvent per finished import.
const TopicImportFinished = "import.finished"

// FinishEvent is published when an import reaches CONCLUIDO or ERRO.
// Snapshot is the decoded snapshot's header, nil when decoding failed;
// Error is nil on success.
type FinishEvent struct {
	RequestID  string             `json:"request_id"`
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Snapshot   *snapshot.Metadata `json:"snapshot"`
	Error      *string            `json:"error"`
	FinishedAt time.Time          `json:"finished_at"`
}

// NewFinishMessage wraps ev for the message bus.
func NewFinishMessage(ev FinishEvent) (*message.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal finish event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("request_id", ev.RequestID)
	return msg, nil
}

// DecodeFinishEvent reads a message created by NewFinishMessage.
func DecodeFinishEvent(msg *message.Message) (FinishEvent, error) {
	var ev FinishEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return FinishEvent{}, fmt.Errorf("unmarshal finish event: %w", err)
	}
	return ev, nil
}
