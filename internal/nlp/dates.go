package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"oraculo/internal/core"
)

var ptMonths = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "marco": time.March,
	"abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November, "dezembro": time.December,
}

var ptMonthNames = map[time.Month]string{
	time.January: "janeiro", time.February: "fevereiro", time.March: "março",
	time.April: "abril", time.May: "maio", time.June: "junho",
	time.July: "julho", time.August: "agosto", time.September: "setembro",
	time.October: "outubro", time.November: "novembro", time.December: "dezembro",
}

// MonthName returns the Portuguese name of a month, accents included, for
// report labels.
func MonthName(m time.Month) string {
	return ptMonthNames[m]
}

var ptWeekdays = map[string]time.Weekday{
	"domingo": time.Sunday, "segunda": time.Monday, "terca": time.Tuesday,
	"quarta": time.Wednesday, "quinta": time.Thursday, "sexta": time.Friday,
	"sabado": time.Saturday,
}

var (
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	namedDayRe  = regexp.MustCompile(`dia\s+(\d{1,2})\s+de\s+(janeiro|fevereiro|marco|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro)`)
	pastWeekRe  = regexp.MustCompile(`(domingo|segunda|terca|quarta|quinta|sexta|sabado)(?:-feira)?\s+passad[ao]`)
)

// ResolvedDate is the outcome of recognizing a temporal expression.
// Matched holds the exact normalized phrase that produced the date so
// callers can strip it from the surrounding text.
type ResolvedDate struct {
	Date    time.Time
	Matched string
}

// ResolveDate scans a text fragment for a temporal expression relative to
// now. Rules apply in priority order: literal keywords (hoje, ontem,
// amanhã), explicit dd/mm/yyyy, "dia N de <mês>", "semana passada" and
// "<weekday> passada". The fragment is normalized before matching, so
// accented and unaccented spellings both resolve. ok is false when no
// temporal cue is recognized; callers then default to today.
func ResolveDate(fragment string, now time.Time) (ResolvedDate, bool) {
	t := Normalize(fragment)
	today := core.Day(now)

	switch {
	case strings.Contains(t, "ontem"):
		return ResolvedDate{Date: today.AddDate(0, 0, -1), Matched: "ontem"}, true
	case strings.Contains(t, "hoje"):
		return ResolvedDate{Date: today, Matched: "hoje"}, true
	case strings.Contains(t, "amanha"):
		return ResolvedDate{Date: today.AddDate(0, 0, 1), Matched: "amanha"}, true
	}

	if m := slashDateRe.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := calendarDate(year, time.Month(month), day); ok {
			return ResolvedDate{Date: d, Matched: m[0]}, true
		}
		return ResolvedDate{}, false
	}

	if m := namedDayRe.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := ptMonths[m[2]]
		if d, ok := calendarDate(now.Year(), month, day); ok {
			return ResolvedDate{Date: d, Matched: m[0]}, true
		}
		return ResolvedDate{}, false
	}

	if strings.Contains(t, "semana passada") {
		return ResolvedDate{Date: today.AddDate(0, 0, -7), Matched: "semana passada"}, true
	}

	if m := pastWeekRe.FindStringSubmatch(t); m != nil {
		target := ptWeekdays[m[1]]
		// Most recent strictly-past occurrence of the weekday.
		back := int(now.Weekday()-target+6)%7 + 1
		return ResolvedDate{Date: today.AddDate(0, 0, -back), Matched: m[0]}, true
	}

	return ResolvedDate{}, false
}

// calendarDate rejects day/month combinations that time.Date would silently
// normalize, such as 31/02.
func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
