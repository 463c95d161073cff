package store

import (
	"errors"
	"testing"
	"time"
)

func TestEventRepository_AppendAndList(t *testing.T) {
	s := newTestStore(t)
	createRecognizer(t, s, "rec-1", "flip")
	createRecognizer(t, s, "rec-2", "wave")
	repo := s.Events()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	kinds := []string{"activated", "deactivated", "activated"}
	for _, k := range kinds {
		if err := repo.Append(&Event{RecognizerID: "rec-1", Kind: k, Reason: "completed", OccurredAt: at}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}
	e := &Event{RecognizerID: "rec-2", Kind: "abandoned", Reason: "timeout"}
	if err := repo.Append(e); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if e.ID == 0 || e.OccurredAt.IsZero() {
		t.Errorf("expected ID and time set, got %+v", e)
	}

	all, err := repo.List("", 0)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 4 || all[0].Kind != "abandoned" {
		t.Errorf("expected newest first, got %+v", all)
	}

	recent, _ := repo.List("rec-1", 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}
	if !recent[0].OccurredAt.Equal(at) {
		t.Errorf("expected occurred_at %v, got %v", at, recent[0].OccurredAt)
	}
}

func TestEventRepository_Prune(t *testing.T) {
	s := newTestStore(t)
	createRecognizer(t, s, "rec-1", "flip")
	repo := s.Events()

	for i := 0; i < 5; i++ {
		repo.Append(&Event{RecognizerID: "rec-1", Kind: "activated", Reason: "completed"})
	}

	removed, err := repo.Prune(2)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}
	left, _ := repo.List("", 10)
	if len(left) != 2 {
		t.Errorf("expected 2 left, got %d", len(left))
	}
}

func TestTraceRepository(t *testing.T) {
	s := newTestStore(t)
	createRecognizer(t, s, "rec-1", "flip")
	repo := s.Traces()

	tr := &Trace{RecognizerID: "rec-1", Name: "flip", Data: []byte(`[{"at":0}]`)}
	if err := repo.Create(tr); err != nil {
		t.Fatalf("failed to create trace: %v", err)
	}
	if tr.ID == 0 {
		t.Error("expected trace ID to be set")
	}

	got, err := repo.GetByID(tr.ID)
	if err != nil {
		t.Fatalf("failed to get trace: %v", err)
	}
	if string(got.Data) != `[{"at":0}]` {
		t.Errorf("unexpected data %s", got.Data)
	}

	list, _ := repo.ListByRecognizer("rec-1")
	if len(list) != 1 {
		t.Errorf("expected 1 trace, got %d", len(list))
	}

	if err := repo.Delete(tr.ID); err != nil {
		t.Fatalf("failed to delete trace: %v", err)
	}
	if _, err := repo.GetByID(tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if !repo.GetBool(SettingDetectionEnabled, true) {
		t.Error("expected default for unset key")
	}

	if err := repo.SetBool(SettingDetectionEnabled, false); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if repo.GetBool(SettingDetectionEnabled, true) {
		t.Error("expected stored false")
	}

	repo.Set(SettingDetectionEnabled, "maybe")
	if !repo.GetBool(SettingDetectionEnabled, true) {
		t.Error("expected default for unparseable value")
	}
}
