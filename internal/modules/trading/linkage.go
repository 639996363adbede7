package trading

import (
	"fmt"
	"regexp"
)

// A trade's free-text note may carry a back-reference to the journal entry
// that spawned it, encoded as a bracketed tag: "[JE:<entry id>]".
var journalRefPattern = regexp.MustCompile(`\[JE:([A-Za-z0-9-]+)\]`)

// JournalRef extracts the journal entry ID from a trade note.
// Returns "" when the note carries no tag.
func JournalRef(note string) string {
	match := journalRefPattern.FindStringSubmatch(note)
	if match == nil {
		return ""
	}
	return match[1]
}

// FormatJournalRef renders the note tag for a journal entry ID.
func FormatJournalRef(entryID string) string {
	return fmt.Sprintf("[JE:%s]", entryID)
}
