// Package page reads screenshot records out of an activity timeline page and
// writes flag annotations back into it.
package page

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/STRATINT/activityscan/internal/models"
)

// Class names of the timeline markup.
const (
	ContainerClass    = "screenshot-container"
	AltContainerClass = "activity-screenshot"
	ProgressClass     = "progress"
	NoteClass         = "activity-warning-note"
)

// noteMarkerClasses must all be present on an element for the container to
// count as already annotated by a reviewer.
var noteMarkerClasses = []string{"inline-link", "clickable", "text-success"}

const noteStyle = "color: %s; font-weight: bold; font-size: 12px;"

// Document is a parsed timeline page. Records are built once at parse time
// and stay bound to their containers, so Annotate reflects whatever a scan
// wrote onto them.
type Document struct {
	root       *html.Node
	containers []*html.Node
	records    []*models.ScreenshotRecord
}

// Parse reads an HTML page. Relative image sources are resolved against
// baseURL when it is non-empty.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		base = u
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	doc := &Document{root: root}
	for i, container := range findAll(root, isContainer) {
		doc.containers = append(doc.containers, container)
		doc.records = append(doc.records, readRecord(i, container, base))
	}
	return doc, nil
}

// Records returns one record per screenshot container, in document order.
func (d *Document) Records() []*models.ScreenshotRecord {
	return d.records
}

// RemoveNotes deletes warning notes and container borders left by an earlier
// scan and returns how many notes were removed.
func (d *Document) RemoveNotes() int {
	for _, container := range d.containers {
		removeStyleProperty(container, "border", isFlagBorder)
	}

	notes := findAll(d.root, func(n *html.Node) bool {
		return hasClass(n, NoteClass)
	})
	for _, n := range notes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(notes)
}

// Annotate writes one warning note per flag reason into each flagged
// container and borders the container in the color of its last reason. It
// returns the number of containers touched.
func (d *Document) Annotate() int {
	touched := 0
	for i, rec := range d.records {
		if !rec.Flagged || len(rec.FlagReasons) == 0 {
			continue
		}
		container := d.containers[i]
		for _, reason := range rec.FlagReasons {
			container.AppendChild(noteNode(reason))
		}
		last := rec.FlagReasons[len(rec.FlagReasons)-1]
		setStyleProperty(container, "border", flagBorderPrefix+last.Severity.Color())
		touched++
	}
	return touched
}

const flagBorderPrefix = "3px solid "

// isFlagBorder matches border values written by Annotate for any severity.
func isFlagBorder(value string) bool {
	color, ok := strings.CutPrefix(value, flagBorderPrefix)
	if !ok {
		return false
	}
	for _, sev := range []models.Severity{models.SeverityA, models.SeverityB, models.SeverityC} {
		if color == sev.Color() {
			return true
		}
	}
	return false
}

// Render serialises the document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document to a string.
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

func readRecord(index int, container *html.Node, base *url.URL) *models.ScreenshotRecord {
	rec := &models.ScreenshotRecord{Index: index}

	if img := findFirst(container, func(n *html.Node) bool {
		return n.DataAtom == atom.Img && strings.TrimSpace(getAttr(n, "src")) != ""
	}); img != nil {
		rec.ImageRef = resolve(base, strings.TrimSpace(getAttr(img, "src")))
	}

	if progress := findFirst(container, func(n *html.Node) bool {
		return hasClass(n, ProgressClass)
	}); progress != nil {
		rec.TooltipText = getAttr(progress, "data-original-title")
		if rec.TooltipText == "" {
			rec.TooltipText = getAttr(progress, "title")
		}
	}

	rec.HasExistingNote = findFirst(container, func(n *html.Node) bool {
		for _, class := range noteMarkerClasses {
			if !hasClass(n, class) {
				return false
			}
		}
		return true
	}) != nil

	return rec
}

func resolve(base *url.URL, src string) string {
	if base == nil || strings.HasPrefix(src, "data:") {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

func noteNode(reason models.FlagReason) *html.Node {
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: NoteClass},
			{Key: "style", Val: fmt.Sprintf(noteStyle, reason.Severity.Color())},
		},
	}
	div.AppendChild(&html.Node{Type: html.TextNode, Data: reason.Label})
	return div
}

func isContainer(n *html.Node) bool {
	return hasClass(n, ContainerClass) || hasClass(n, AltContainerClass)
}
