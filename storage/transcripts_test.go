package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"searchpipe/model"
)

func newStore(t *testing.T) *TranscriptStore {
	t.Helper()
	s, err := NewTranscriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTranscriptStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tr := &Transcript{
		Pipe:   "exa-agent",
		Query:  "What is the capital of France?",
		Answer: "Paris [1].",
		Status: model.StatusDone,
		Citations: []model.Citation{
			{Index: 1, Label: "[1] France", URLs: []string{"https://en.wikipedia.org/wiki/France"}},
			{Index: 2, Label: "[2] https://b.example", URLs: []string{"https://b.example"}},
		},
		Duration: 1500 * time.Millisecond,
	}
	if err := s.Record(ctx, tr); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tr.ID == "" || tr.SessionID != tr.ID || tr.CreatedAt.IsZero() {
		t.Errorf("defaults not assigned: %+v", tr)
	}

	got, err := s.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Answer != tr.Answer || got.Status != model.StatusDone || got.Duration != tr.Duration {
		t.Errorf("got %+v", got)
	}
	if len(got.Citations) != 2 || got.Citations[1].Label != "[2] https://b.example" {
		t.Errorf("citations = %+v", got.Citations)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v", err)
	}
}

func TestHistoryAndSearch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []*Transcript{
		{SessionID: "s1", Pipe: "sonar-direct", Query: "Tell me about France.", Answer: "France is in Europe.", Status: model.StatusDone, CreatedAt: base},
		{SessionID: "s1", Pipe: "sonar-direct", Query: "Its capital?", Answer: "Par", Status: model.StatusFailed, Error: "Error: timed out", CreatedAt: base.Add(time.Minute)},
		{SessionID: "s1", Pipe: "sonar-direct", Query: "Its capital?", Answer: "Paris.", Status: model.StatusDone, CreatedAt: base.Add(2 * time.Minute)},
		{SessionID: "s2", Pipe: "exa-agent", Query: "sync.Once example", Answer: "Use once.Do.", Status: model.StatusDone, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		if err := s.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	history, err := s.History(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Message{
		model.UserMessage("Tell me about France."),
		model.AssistantMessage("France is in Europe."),
		model.UserMessage("Its capital?"),
		model.AssistantMessage("Paris."),
	}
	if len(history) != len(want) {
		t.Fatalf("history = %+v", history)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], want[i])
		}
	}

	found, err := s.Search(ctx, "FRANCE")
	if err != nil || len(found) != 1 || found[0].SessionID != "s1" {
		t.Errorf("Search = %+v, %v", found, err)
	}
	if found, _ := s.Search(ctx, " "); len(found) != 0 {
		t.Errorf("blank search = %+v", found)
	}

	list, err := s.List(ctx, 2)
	if err != nil || len(list) != 2 || list[0].Pipe != "exa-agent" {
		t.Errorf("List = %+v, %v", list, err)
	}
}
