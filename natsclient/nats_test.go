package natsclient

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"story-competition/models"
)

func TestSubject(t *testing.T) {
	got := Subject(models.EventResultsFinalized)
	if got != "stories.competition.competition.results_finalized" {
		t.Fatalf("unexpected subject %s", got)
	}
}

func TestNotifyPublishesJSON(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}
	client, err := NewNatsClient(url)
	if err != nil {
		t.Fatalf("NewNatsClient: %v", err)
	}
	defer client.Close()

	received := make(chan *nats.Msg, 1)
	sub, err := client.Subscribe(Subject(models.EventSubmissionConfirmed), func(m *nats.Msg) { received <- m })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	_ = client.Conn.Flush()

	event := models.Event{Type: models.EventSubmissionConfirmed, CompetitionID: "c1", UserID: "u1", EntryID: "e1"}
	if err := client.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	select {
	case m := <-received:
		var got models.Event
		if err := json.Unmarshal(m.Data, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.EntryID != "e1" || got.CompetitionID != "c1" {
			t.Fatalf("expected event for e1/c1, got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event within 2s")
	}
}
