package planning

import (
	"fmt"
	"time"
)

// Week: неделя плана; последняя обрезается концом месяца.
type Week struct {
	Number int
	Start  time.Time
	End    time.Time
	Label  string
}

// ParseMonth разбирает "YYYY-MM" в первое число месяца (UTC).
func ParseMonth(s string) (time.Time, error) {
	m, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return m, nil
}

// MonthBounds: [начало месяца, начало следующего).
func MonthBounds(month time.Time) (time.Time, time.Time) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Weeks режет месяц на 7-дневные куски начиная с 1-го числа.
func Weeks(month time.Time) []Week {
	start, next := MonthBounds(month)
	last := next.AddDate(0, 0, -1)

	var out []Week
	for n, ws := 1, start; !ws.After(last); n++ {
		we := ws.AddDate(0, 0, 6)
		if we.After(last) {
			we = last
		}
		out = append(out, Week{
			Number: n,
			Start:  ws,
			End:    we,
			Label:  fmt.Sprintf("Week %d (%s - %s)", n, ws.Format("Jan 02"), we.Format("Jan 02")),
		})
		ws = we.AddDate(0, 0, 1)
	}
	return out
}
