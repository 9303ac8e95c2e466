package redaction

import "strings"

// LocateResult is the outcome of locating detector output in a document.
type LocateResult struct {
	Entities  []Entity
	Unlocated []Detection
}

// Locate resolves detections to offsets in text. See LocateReport.
func Locate(text string, detections []Detection) []Entity {
	return LocateReport(text, detections).Entities
}

// LocateReport resolves each detection, in order, to the first occurrence of
// its text at or after a forward-only cursor. The cursor moves to the end of
// every match, so repeated values bind to successive occurrences instead of
// all binding to the first one.
//
// Detections that cannot be found in the remaining suffix, and detections with
// empty text, are dropped from Entities and listed in Unlocated. A detection
// reported out of document order can therefore miss an occurrence the cursor
// has already passed.
func LocateReport(text string, detections []Detection) LocateResult {
	var res LocateResult
	cursor := 0

	for _, d := range detections {
		if d.Text == "" {
			res.Unlocated = append(res.Unlocated, d)
			continue
		}

		idx := strings.Index(text[cursor:], d.Text)
		if idx == -1 {
			res.Unlocated = append(res.Unlocated, d)
			continue
		}

		start := cursor + idx
		end := start + len(d.Text)
		res.Entities = append(res.Entities, Entity{
			Text:  d.Text,
			Type:  d.Type,
			Start: start,
			End:   end,
		})
		cursor = end
	}

	return res
}
