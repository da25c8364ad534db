package page

import (
	"bytes"
	"strings"
	"testing"

	"github.com/STRATINT/activityscan/internal/models"
)

const timeline = `<!DOCTYPE html>
<html><body>
<div class="row">
  <div class="screenshot-container" id="s1">
    <img src="/shots/1.jpg">
    <div class="progress" data-original-title="Total 65% | Mouse 10% | Keyboard 0%"></div>
  </div>
  <div class="activity-screenshot" id="s2" style="margin: 4px; border: 1px solid gray">
    <img src="">
    <img src="https://cdn.example.com/2.jpg">
    <div class="progress" title="12% 6% 6%"></div>
    <a class="inline-link clickable text-success">note</a>
  </div>
  <div class="screenshot-container" id="s3">
    <div class="progress" data-original-title="80% 40% 40%"></div>
  </div>
  <div class="screenshot-container" id="s4">
    <img src="data:image/png;base64,AAAA">
    <div class="activity-warning-note" style="color: red;">stale</div>
  </div>
</div>
</body></html>`

func parseTimeline(t *testing.T, base string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(timeline), base)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return doc
}

func TestParse_Records(t *testing.T) {
	doc := parseTimeline(t, "https://tracker.example.com/timeline/42")
	records := doc.Records()

	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	tests := []struct {
		index   int
		image   string
		tooltip string
		noted   bool
	}{
		{0, "https://tracker.example.com/shots/1.jpg", "Total 65% | Mouse 10% | Keyboard 0%", false},
		{1, "https://cdn.example.com/2.jpg", "12% 6% 6%", true},
		{2, "", "80% 40% 40%", false},
		{3, "data:image/png;base64,AAAA", "", false},
	}

	for _, tt := range tests {
		rec := records[tt.index]
		if rec.Index != tt.index {
			t.Errorf("record %d: Index = %d", tt.index, rec.Index)
		}
		if rec.ImageRef != tt.image {
			t.Errorf("record %d: ImageRef = %q, want %q", tt.index, rec.ImageRef, tt.image)
		}
		if rec.TooltipText != tt.tooltip {
			t.Errorf("record %d: TooltipText = %q, want %q", tt.index, rec.TooltipText, tt.tooltip)
		}
		if rec.HasExistingNote != tt.noted {
			t.Errorf("record %d: HasExistingNote = %v, want %v", tt.index, rec.HasExistingNote, tt.noted)
		}
	}
}

func TestParse_WithoutBaseURLKeepsRelativeSource(t *testing.T) {
	doc := parseTimeline(t, "")
	if got := doc.Records()[0].ImageRef; got != "/shots/1.jpg" {
		t.Errorf("ImageRef = %q, want relative source", got)
	}
}

func TestParse_InvalidBaseURL(t *testing.T) {
	if _, err := Parse(strings.NewReader(timeline), "://bad"); err == nil {
		t.Error("expected error for invalid base url")
	}
}

func TestRemoveNotes(t *testing.T) {
	doc := parseTimeline(t, "")

	if removed := doc.RemoveNotes(); removed != 1 {
		t.Errorf("RemoveNotes() = %d, want 1", removed)
	}
	if removed := doc.RemoveNotes(); removed != 0 {
		t.Errorf("second RemoveNotes() = %d, want 0", removed)
	}
	if strings.Contains(doc.String(), "stale") {
		t.Error("stale note still rendered")
	}
}

func TestRemoveNotes_ClearsFlagBorders(t *testing.T) {
	first := parseTimeline(t, "")
	first.Records()[0].AddReason(models.FlagReason{Kind: models.FlagKindLowTotal, Label: "Low total activity (<20%)", Severity: models.SeverityA})
	first.Annotate()
	if !strings.Contains(first.String(), "3px solid red") {
		t.Fatal("expected the first pass to border the flagged container")
	}

	rescan, err := Parse(strings.NewReader(first.String()), "")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if removed := rescan.RemoveNotes(); removed != 2 {
		t.Errorf("RemoveNotes() = %d, want 2", removed)
	}
	rescan.Annotate()

	out := rescan.String()
	if strings.Contains(out, "3px solid") {
		t.Errorf("border from the earlier pass still rendered:\n%s", out)
	}
	if !strings.Contains(out, `<div class="screenshot-container" id="s1">`) {
		t.Errorf("emptied style attribute should be dropped:\n%s", out)
	}
	if !strings.Contains(out, `style="margin: 4px; border: 1px solid gray"`) {
		t.Errorf("page's own border must be kept:\n%s", out)
	}
}

func TestAnnotate(t *testing.T) {
	doc := parseTimeline(t, "")
	records := doc.Records()

	records[0].AddReason(models.FlagReason{Kind: models.FlagKindLowTotal, Label: "Low total activity (<20%)", Severity: models.SeverityA})
	records[0].AddReason(models.FlagReason{Kind: models.FlagKindVisuallySimilar, Label: "Visually similar to previous screenshot", Severity: models.SeverityC})
	records[1].AddReason(models.FlagReason{Kind: models.FlagKindInputMismatch, Label: "Keyboard <1%, Mouse >0%", Severity: models.SeverityB})

	if touched := doc.Annotate(); touched != 2 {
		t.Errorf("Annotate() = %d, want 2", touched)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<div class="activity-warning-note" style="color: red; font-weight: bold; font-size: 12px;">Low total activity (&lt;20%)</div>`,
		`<div class="activity-warning-note" style="color: orange; font-weight: bold; font-size: 12px;">Visually similar to previous screenshot</div>`,
		`<div class="screenshot-container" id="s1" style="border: 3px solid orange;">`,
		`style="margin: 4px; border: 3px solid purple;"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "1px solid gray") {
		t.Error("previous border must be replaced")
	}
}

func TestAnnotate_UnflaggedUntouched(t *testing.T) {
	doc := parseTimeline(t, "")
	doc.RemoveNotes()
	before := doc.String()

	if touched := doc.Annotate(); touched != 0 {
		t.Errorf("Annotate() = %d, want 0", touched)
	}
	if doc.String() != before {
		t.Error("page changed without flags")
	}
}
