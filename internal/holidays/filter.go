package holidays

import "time"

const isoDateLayout = "2006-01-02"

// FilterByDay keeps the holidays whose calendar month and day match, ignoring
// the year, and applies the field defaults. Input order is preserved and
// duplicates are kept. Entries whose date cannot be parsed are dropped.
func FilterByDay(raw []RawHoliday, month, day int) []Holiday {
	out := make([]Holiday, 0)
	for _, r := range raw {
		m, d, ok := monthDay(r.Date)
		if !ok || m != month || d != day {
			continue
		}
		out = append(out, normalize(r))
	}
	return out
}

func monthDay(iso string) (int, int, bool) {
	if len(iso) < len(isoDateLayout) {
		return 0, 0, false
	}
	t, err := time.Parse(isoDateLayout, iso[:len(isoDateLayout)])
	if err != nil {
		return 0, 0, false
	}
	return int(t.Month()), t.Day(), true
}

func normalize(r RawHoliday) Holiday {
	h := Holiday{
		Name:        r.Name,
		Description: r.Description,
		Type:        DefaultType,
		Date:        r.Date,
	}
	if h.Description == "" {
		h.Description = DefaultDescription
	}
	switch {
	case len(r.Types) > 0 && r.Types[0] != "":
		h.Type = r.Types[0]
	case r.PrimaryType != "":
		h.Type = r.PrimaryType
	}
	return h
}
