package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date strings are coerced to a canonical partial-date form: "2016",
// "2016-07", or "2016-07-02". Precision never exceeds what the source
// stated.

var (
	yearOnlyPattern  = regexp.MustCompile(`^\d{4}$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	fullDatePattern  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	// RIS-style "2016/07/02/extra" dates keep only the date part.
	risDatePattern = regexp.MustCompile(`^(\d{4})/(\d{0,2})/(\d{0,2})`)
)

var textualLayouts = []string{
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2006",
	"Jan 2006",
}

// CoerceDate normalizes a source date string. Unparseable input is
// returned trimmed rather than dropped, so no source data is lost.
func CoerceDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if yearOnlyPattern.MatchString(s) {
		return s
	}

	if m := fullDatePattern.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], pad(m[2]), pad(m[3]))
	}

	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s", m[1], pad(m[2]))
	}

	if m := risDatePattern.FindStringSubmatch(s); m != nil {
		switch {
		case m[2] == "" && m[3] == "":
			return m[1]
		case m[3] == "":
			return fmt.Sprintf("%s-%s", m[1], pad(m[2]))
		default:
			return fmt.Sprintf("%s-%s-%s", m[1], pad(m[2]), pad(m[3]))
		}
	}

	for _, layout := range textualLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if strings.Contains(layout, "2,") || strings.Contains(layout, "2 ") {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01")
		}
	}

	return s
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
