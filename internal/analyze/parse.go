package analyze

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

// ParseError means a single statement does not match the bulletin grammar.
// It is isolated per record: the analyzer logs it and moves on.
type ParseError struct {
	Stage  string
	Reason string
}

func (e *ParseError) Error() string {
	return "statement parse failed at " + e.Stage + ": " + e.Reason
}

var (
	// Stage 1: "MM月DD日 HH:MM <city> <remainder>。"
	openingPattern = regexp.MustCompile(
		`^(?P<month>\d{2})月(?P<day>\d{2})日 (?P<hour>\d{2}):(?P<minute>\d{2}) (?P<city>\S+?) (?P<next>.+)。$`)

	// Stage 2: "<address>(に|の)<category>(は|のため)<status>"
	remainderPattern = regexp.MustCompile(
		`^(?P<address>.+?)(に|の)(?P<category>\S+?)(は|のため)(?P<status>.+)$`)

	// Optional "HH:MM" prefix on the status clause carrying the close time.
	closeTimePattern = regexp.MustCompile(`^(?P<hour>\d{2}):(?P<minute>\d{2}).+$`)
)

// Ordered category keywords; first match wins, so a clause naming both a
// fire and a rescue classifies as fire.
var categoryKeywords = []struct {
	keyword  string
	category models.Category
}{
	{"火災", models.CategoryFire},
	{"救助", models.CategoryRescue},
	{"警戒", models.CategoryAlert},
	{"救急", models.CategoryMedicalSupport},
}

// ParseStatement derives the structured detail for one raw statement.
// The statement's own RetrievedAt is the reference date for year inference;
// backfilled rows carry their snapshot timestamp there.
func ParseStatement(st models.RawStatement, homeCity string) (*models.DisasterDetail, error) {
	m := matchGroups(openingPattern, st.Text)
	if m == nil {
		return nil, &ParseError{Stage: "opening", Reason: "statement does not match MM月DD日 HH:MM grammar"}
	}

	detail := &models.DisasterDetail{
		StatementID: st.ID,
		OpenedAt:    inferOpenedAt(st.RetrievedAt, m),
	}

	// The bulletin names the municipality for out-of-town dispatches only
	// in the sense that the home city is the implicit default.
	if city := m["city"]; city != homeCity {
		detail.Locality = &city
	}

	m2 := matchGroups(remainderPattern, m["next"])
	if m2 == nil {
		return nil, &ParseError{Stage: "remainder", Reason: "no address/category/status clause found"}
	}

	detail.Category = classifyCategory(m2["category"])
	detail.CategoryDetail = m2["category"]
	detail.AddressPrimary, detail.AddressSecondary = splitAddress(m2["address"])
	detail.Status, detail.ClosedAt = classifyStatus(m2["status"], st.Zone, detail.OpenedAt)

	return detail, nil
}

// inferOpenedAt builds the disaster start time. The bulletin carries no
// year: use the reference date's year, minus one when the reference month
// precedes the parsed month (the bulletin rolled over a year boundary).
func inferOpenedAt(reference time.Time, m map[string]string) time.Time {
	month := atoi(m["month"])
	year := reference.Year()
	if int(reference.Month()) < month {
		year--
	}
	return time.Date(year, time.Month(month), atoi(m["day"]),
		atoi(m["hour"]), atoi(m["minute"]), 0, 0, time.Local)
}

func classifyCategory(clause string) models.Category {
	for _, kw := range categoryKeywords {
		if strings.Contains(clause, kw.keyword) {
			return kw.category
		}
	}
	return models.CategoryOther
}

// splitAddress decomposes the address clause on its single space separator.
// A one-token address yields no secondary part.
func splitAddress(clause string) (primary string, secondary *string) {
	parts := strings.SplitN(clause, " ", 2)
	primary = parts[0]
	if len(parts) == 2 && parts[1] != "" {
		secondary = &parts[1]
	}
	return primary, secondary
}

func classifyStatus(clause string, zone models.Zone, openedAt time.Time) (models.Status, *time.Time) {
	switch {
	case strings.Contains(clause, "消防車が出動しました"):
		// A dispatch-only line in the past zone is already resolved.
		if zone == models.ZoneCurrent {
			return models.StatusOpened, nil
		}
		return models.StatusClosed, nil
	case strings.Contains(clause, "救助終了しました"):
		return models.StatusRescueComplete, extractCloseTime(clause, openedAt)
	case strings.Contains(clause, "消火の必要はありませんでした"):
		return models.StatusNoExtinguishNeed, nil
	case strings.Contains(clause, "鎮圧しました"):
		return models.StatusContained, extractCloseTime(clause, openedAt)
	case strings.Contains(clause, "鎮火しました"):
		return models.StatusExtinguished, extractCloseTime(clause, openedAt)
	default:
		return models.StatusClosed, nil
	}
}

// extractCloseTime reads the "HH:MM" prefix of the status clause, placed on
// the same calendar date as openedAt. A close time numerically earlier than
// the open time means the event crossed midnight, so the date advances one
// day. Returns nil when the clause carries no time prefix.
func extractCloseTime(clause string, openedAt time.Time) *time.Time {
	m := matchGroups(closeTimePattern, clause)
	if m == nil {
		return nil
	}

	closedAt := time.Date(openedAt.Year(), openedAt.Month(), openedAt.Day(),
		atoi(m["hour"]), atoi(m["minute"]), 0, 0, openedAt.Location())
	if closedAt.Before(openedAt) {
		closedAt = closedAt.AddDate(0, 0, 1)
	}
	return &closedAt
}

func matchGroups(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
