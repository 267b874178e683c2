// Package bulletin turns the raw dispatch bulletin page into individual
// disaster statement strings.
package bulletin

import (
	"regexp"
	"strings"
)

// StructureError means the page no longer contains the expected zone
// markers, i.e. the upstream bulletin format changed. It is fatal for
// the run.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "bulletin structure mismatch: " + e.Reason
}

var (
	// The page wraps each zone in fixed ASCII-art markers:
	// ↓現在発生している災害↓ ... ↑現在発生している災害↑ for ongoing ones,
	// ↓過去の災害経過情報↓ ... ↑過去の災害経過情報↑ for resolved ones.
	zonePattern = regexp.MustCompile(
		`(?s).+↓現在発生している災害↓(.+)↑現在発生している災害↑.+↓過去の災害経過情報↓(.+)↑過去の災害経過情報↑.+`)

	// One statement per <span>, always starting with MM月DD日 and ending
	// with the sentence terminator.
	statementPattern = regexp.MustCompile(`<span>(\d{2}月\d{2}日.+?。)</span>`)
)

// Normalize replaces full-width spaces with ordinary ones. The page mixes
// both, and the statement grammar assumes plain spaces.
func Normalize(pageText string) string {
	return strings.ReplaceAll(pageText, "　", " ")
}

// Segment splits normalized page text into the current-disasters zone and
// the past-disasters zone. It returns a *StructureError when the marker
// sequence is missing; no partial result is produced.
func Segment(pageText string) (current, past string, err error) {
	m := zonePattern.FindStringSubmatch(pageText)
	if m == nil {
		return "", "", &StructureError{Reason: "current/past zone markers not found"}
	}
	return m[1], m[2], nil
}

// ExtractStatements returns every statement span in zoneText in the order
// found. The page lists newest first, so callers ingest the result in
// reverse to process oldest first.
func ExtractStatements(zoneText string) []string {
	matches := statementPattern.FindAllStringSubmatch(zoneText, -1)
	statements := make([]string, 0, len(matches))
	for _, m := range matches {
		statements = append(statements, m[1])
	}
	return statements
}
