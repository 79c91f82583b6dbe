package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestRoleCapabilities(t *testing.T) {
	if !RoleOrganizer.Can(CapabilityModerate) || RoleOrganizer.Can(CapabilityJoin) {
		t.Fatalf("unexpected organizer capabilities")
	}
	if !RoleParticipant.Can(CapabilityJoin) || RoleParticipant.Can(CapabilityCreate) {
		t.Fatalf("unexpected participant capabilities")
	}
	err := Identity{UserID: "u1", Role: RoleParticipant}.Require(CapabilityModerate)
	if KindOf(err) != KindAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestProfileDecodesVariantByRole(t *testing.T) {
	var p Profile
	if err := json.Unmarshal([]byte(`{"role":"participant","data":{"nickname":"Ace"}}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Participant == nil || p.Participant.Nickname != "Ace" || p.Organizer != nil {
		t.Fatalf("unexpected profile %+v", p)
	}

	err := json.Unmarshal([]byte(`{"role":"participant","data":{"organization":"ACME"}}`), &p)
	if err == nil {
		t.Fatalf("expected organizer field to be rejected on participant profile")
	}

	raw, err := json.Marshal(Profile{Role: RoleOrganizer, Organizer: &OrganizerProfile{DisplayName: "Host"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var back Profile
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode roundtrip: %v", err)
	}
	if back.Organizer == nil || back.Organizer.DisplayName != "Host" {
		t.Fatalf("unexpected organizer profile %+v", back)
	}
}

func TestKindOfWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", ErrDuplicateSubmission)
	if KindOf(wrapped) != KindResourceConflict {
		t.Fatalf("expected resource conflict, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, ErrDuplicateSubmission) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("expected unknown errors to be internal")
	}
}

func TestPublicProjectionHidesAnswers(t *testing.T) {
	code := "ABC234"
	g := Game{
		ID:          "g1",
		OrganizerID: "org",
		JoinCode:    &code,
		Config:      GameConfig{Items: []Item{{ID: "q1", Prompt: "2+2?", Answer: "4", Points: 10}}},
	}
	raw, err := json.Marshal(g.Public())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	if _, ok := fields["organizerId"]; ok {
		t.Fatalf("organizer id leaked: %s", raw)
	}
	if string(raw) == "" || containsAnswer(raw) {
		t.Fatalf("answer leaked: %s", raw)
	}
}

func containsAnswer(raw []byte) bool {
	var out struct {
		Items []map[string]any `json:"items"`
	}
	_ = json.Unmarshal(raw, &out)
	for _, item := range out.Items {
		if _, ok := item["answer"]; ok {
			return true
		}
	}
	return false
}
