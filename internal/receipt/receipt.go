// Package receipt renders plain-text collection receipts. Generation is a
// pure formatting step over already-committed item data, kept separate from
// the store mutation so a rendering failure can never undo a collection.
package receipt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reclaim-app/reclaim/pkg/models"
)

var whitespace = regexp.MustCompile(`\s+`)

// Generate produces the downloadable receipt document for a collected item.
// Collector fields come from the recorded collection details; missing details
// render as empty lines rather than failing.
func Generate(item *models.Item) string {
	var details models.CollectionDetails
	if item.CollectionDetails != nil {
		details = *item.CollectionDetails
	}

	collectedAt := ""
	if item.CollectedAt != nil {
		collectedAt = item.CollectedAt.Format("1/2/2006, 3:04:05 PM")
	}

	var b strings.Builder
	b.WriteString("LOST & FOUND COLLECTION RECEIPT\n")
	b.WriteString("================================\n\n")

	b.WriteString("Item Details:\n")
	writeField(&b, "Title", item.Title)
	writeField(&b, "Description", item.Description)
	writeField(&b, "Location Found", item.Location)
	writeField(&b, "Category", string(item.Category))
	writeField(&b, "Reported By", item.UserEmail)
	b.WriteString("\n")

	b.WriteString("Collector Details:\n")
	writeField(&b, "Name", details.CollectorName)
	writeField(&b, "Roll Number", details.RollNumber)
	writeField(&b, "Phone", details.Phone)
	writeField(&b, "Email", details.Email)
	b.WriteString("\n")

	b.WriteString("Collection Date: " + collectedAt + "\n")
	b.WriteString("\nThis receipt confirms the collection of the above item.\n")
	return b.String()
}

// Filename derives the download name for a receipt, replacing whitespace in
// the title with underscores and appending the collection time in unix
// milliseconds.
func Filename(item *models.Item) string {
	title := whitespace.ReplaceAllString(item.Title, "_")

	var millis int64
	if item.CollectedAt != nil {
		millis = item.CollectedAt.UnixMilli()
	} else {
		millis = time.Now().UnixMilli()
	}
	return fmt.Sprintf("receipt_%s_%d.txt", title, millis)
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString("- " + name + ": " + value + "\n")
}
