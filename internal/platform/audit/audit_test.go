package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogSink_Record(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	sink := NewLogSink(logger)

	err := sink.Record(context.Background(), Entry{
		GroupID:    "clinic_norte",
		ActorID:    "user-1",
		Action:     "appointment.cancel",
		Resource:   "appointment",
		ResourceID: "abc-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if line["action"] != "appointment.cancel" {
		t.Errorf("action = %v, want appointment.cancel", line["action"])
	}
	if line["group_id"] != "clinic_norte" {
		t.Errorf("group_id = %v, want clinic_norte", line["group_id"])
	}
}
