package drafts

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

func TestRendererPostCombinesTitleAndBody(t *testing.T) {
	r := NewRenderer()

	media := "https://cdn.example.com/pic.jpg"
	content := r.Post(&models.Draft{Title: "Headline", Body: "Body text", MediaURL: &media})
	if content.Text != "Headline\n\nBody text" {
		t.Fatalf("unexpected post text %q", content.Text)
	}
	if content.PhotoURL != media {
		t.Fatalf("unexpected photo url %q", content.PhotoURL)
	}

	bare := r.Post(&models.Draft{Body: "Body only"})
	if bare.Text != "Body only" {
		t.Fatalf("unexpected post text %q", bare.Text)
	}
}

func TestRendererCardShowsScheduleTime(t *testing.T) {
	r := NewRenderer()
	at := time.Date(2026, 4, 1, 18, 30, 0, 0, time.UTC)

	card := r.Card(&models.Draft{ID: uuid.New()}, enums.DraftStateScheduled, &at)
	if !strings.Contains(card, "SCHEDULED") {
		t.Fatalf("card must name the state: %q", card)
	}
	if !strings.Contains(card, "2026-04-01 18:30") {
		t.Fatalf("card must show the publication time: %q", card)
	}
}

func TestRendererKeyboardMatchesState(t *testing.T) {
	r := NewRenderer()
	draft := &models.Draft{ID: uuid.New()}

	kb := r.Keyboard(draft, enums.DraftStateReady, nil)
	if kb == nil {
		t.Fatal("ready state must have a keyboard")
	}
	var labels []string
	for _, row := range kb.Rows {
		for _, btn := range row {
			labels = append(labels, btn.Label)
			if !strings.HasPrefix(btn.Data, "draft:"+draft.ID.String()+":") {
				t.Fatalf("callback data must carry the draft id, got %q", btn.Data)
			}
		}
	}
	if len(labels) != 4 {
		t.Fatalf("expected 4 actions for ready, got %v", labels)
	}

	if kb := r.Keyboard(draft, enums.DraftStateArchive, nil); kb != nil {
		t.Fatal("archive has no actions")
	}
}
