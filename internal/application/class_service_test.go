package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/schedule"
)

type classRepoStub struct {
	classes map[string]persistence.Class
}

func newClassRepoStub() *classRepoStub {
	return &classRepoStub{classes: make(map[string]persistence.Class)}
}

func (s *classRepoStub) CreateClass(ctx context.Context, class persistence.Class) error {
	s.classes[class.ID] = class
	return nil
}

func (s *classRepoStub) UpdateClass(ctx context.Context, class persistence.Class) error {
	if _, ok := s.classes[class.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.classes[class.ID] = class
	return nil
}

func (s *classRepoStub) GetClass(ctx context.Context, id string) (persistence.Class, error) {
	class, ok := s.classes[id]
	if !ok {
		return persistence.Class{}, persistence.ErrNotFound
	}
	return class, nil
}

func (s *classRepoStub) ListClasses(ctx context.Context) ([]persistence.Class, error) {
	out := make([]persistence.Class, 0, len(s.classes))
	for _, class := range s.classes {
		out = append(out, class)
	}
	return out, nil
}

func (s *classRepoStub) DeleteClass(ctx context.Context, id string) error {
	if _, ok := s.classes[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.classes, id)
	return nil
}

func TestClassService_CreateClass_CanonicalizesSessions(t *testing.T) {
	repo := newClassRepoStub()
	service := NewClassService(repo, nil, fixedIDs("cls"), nil, nil)

	class, err := service.CreateClass(context.Background(), CreateClassParams{
		Input: ClassInput{
			Name:          "Evening Yoga",
			SessionLength: 60,
			Sessions: []string{
				"2024-01-08T18:00:00Z",
				"2024-01-01T18:00:00Z",
				"2024-01-08T18:00:00Z",
				"not a timestamp",
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}

	want := []string{"2024-01-01T18:00:00Z", "2024-01-08T18:00:00Z"}
	if len(class.Sessions) != len(want) {
		t.Fatalf("expected %d sessions, got %v", len(want), class.Sessions)
	}
	for i, session := range want {
		if class.Sessions[i] != session {
			t.Errorf("session %d: expected %s, got %s", i, session, class.Sessions[i])
		}
	}
}

func TestClassService_CreateClass_ExpandsRecurrence(t *testing.T) {
	repo := newClassRepoStub()
	service := NewClassService(repo, nil, fixedIDs("cls"), nil, nil)

	class, err := service.CreateClass(context.Background(), CreateClassParams{
		Input: ClassInput{
			Name: "Evening Yoga",
			Recurrence: &schedule.RecurrenceSpec{
				Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
				StartDate: "2024-01-01",
				EndDate:   "2024-01-14",
				TimeOfDay: "18:00",
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}
	if len(class.Sessions) != 4 {
		t.Fatalf("expected 4 generated sessions, got %v", class.Sessions)
	}
	if class.SessionLength != schedule.DefaultSessionLength {
		t.Errorf("expected default session length %d, got %d", schedule.DefaultSessionLength, class.SessionLength)
	}
}

func TestClassService_CreateClass_InvalidRecurrence(t *testing.T) {
	repo := newClassRepoStub()
	service := NewClassService(repo, nil, fixedIDs("cls"), nil, nil)

	_, err := service.CreateClass(context.Background(), CreateClassParams{
		Input: ClassInput{
			Name: "Evening Yoga",
			Recurrence: &schedule.RecurrenceSpec{
				StartDate: "2024-01-14",
				EndDate:   "2024-01-01",
				TimeOfDay: "18:00",
			},
		},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors["recurrence.weekdays"]; !ok {
		t.Errorf("expected recurrence.weekdays field error, got %v", vErr.FieldErrors)
	}
	if len(repo.classes) != 0 {
		t.Error("expected no class persisted on validation failure")
	}
}

func TestClassService_CheckSessionConflicts(t *testing.T) {
	repo := newClassRepoStub()
	busy := map[string]bool{"2024-01-01T18:00:00Z": true}
	oracle := schedule.AvailabilityOracleFunc(func(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
		return !busy[schedule.NormalizeInstant(start)], nil
	})
	service := NewClassService(repo, oracle, fixedIDs("cls"), nil, nil)

	roomID := "room1"
	repo.classes["cls1"] = persistence.Class{
		ID:            "cls1",
		Name:          "Evening Yoga",
		RoomID:        &roomID,
		SessionLength: 60,
		Sessions:      []string{"2024-01-01T18:00:00Z", "2024-01-03T18:00:00Z"},
	}

	conflicts, err := service.CheckSessionConflicts(context.Background(), Principal{}, "cls1")
	if err != nil {
		t.Fatalf("CheckSessionConflicts failed: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("expected entries for every session, got %v", conflicts)
	}
	if !conflicts["2024-01-01T18:00:00Z"] {
		t.Error("expected conflict for busy session")
	}
	if conflicts["2024-01-03T18:00:00Z"] {
		t.Error("expected free session to have no conflict")
	}
}

func TestClassService_CheckSessionConflicts_NoRoom(t *testing.T) {
	repo := newClassRepoStub()
	service := NewClassService(repo, nil, nil, nil, nil)

	repo.classes["cls1"] = persistence.Class{
		ID:       "cls1",
		Name:     "Evening Yoga",
		Sessions: []string{"2024-01-01T18:00:00Z"},
	}

	conflicts, err := service.CheckSessionConflicts(context.Background(), Principal{}, "cls1")
	if err != nil {
		t.Fatalf("CheckSessionConflicts failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected empty conflict map without a room, got %v", conflicts)
	}
}
