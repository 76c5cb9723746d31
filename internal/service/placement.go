package service

import (
	"regexp"
	"strings"

	"github.com/maheshrc27/autopost-api/internal/models"
)

// PlaceholderMarker marks where an image fragment may go in an article body.
const PlaceholderMarker = "<!--autopost:image-->"

var (
	subheadingClose = regexp.MustCompile(`(?i)</h[23]\s*>`)
	firstHeading    = regexp.MustCompile(`(?is)<h[1-6][^>]*>.*?</h[1-6]\s*>`)
)

// InsertPlaceholders puts a marker after every subheading. Bodies that already
// carry markers are returned unchanged.
func InsertPlaceholders(body string) string {
	if strings.Contains(body, PlaceholderMarker) {
		return body
	}
	return subheadingClose.ReplaceAllStringFunc(body, func(tag string) string {
		return tag + "\n" + PlaceholderMarker
	})
}

func CountPlaceholders(body string) int {
	return strings.Count(body, PlaceholderMarker)
}

func StripPlaceholders(body string) string {
	body = strings.ReplaceAll(body, "\n"+PlaceholderMarker, "")
	return strings.ReplaceAll(body, PlaceholderMarker, "")
}

// PlaceFragments folds rendered fragments into body. With markers present the
// fragments go round-robin over the markers, cycling when there are fewer
// fragments than markers. Without markers they follow the first heading, or
// lead the body when it has none.
func PlaceFragments(body string, fragments []models.ImageFragment) string {
	if len(fragments) == 0 {
		return StripPlaceholders(body)
	}

	parts := strings.Split(body, PlaceholderMarker)
	markers := len(parts) - 1
	if markers > 0 {
		slots := make([]strings.Builder, markers)
		total := max(markers, len(fragments))
		for k := 0; k < total; k++ {
			slots[k%markers].WriteString(fragments[k%len(fragments)].RenderedHTML)
		}

		var b strings.Builder
		b.WriteString(parts[0])
		for i := 0; i < markers; i++ {
			b.WriteString(slots[i].String())
			b.WriteString(parts[i+1])
		}
		return b.String()
	}

	var block strings.Builder
	for _, f := range fragments {
		block.WriteString(f.RenderedHTML)
	}

	if loc := firstHeading.FindStringIndex(body); loc != nil {
		return body[:loc[1]] + "\n" + block.String() + body[loc[1]:]
	}
	return block.String() + "\n" + body
}
