package store

import (
	"fmt"
	"time"
)

// DisplayDate renders t the way the fleet web views print notification
// dates: "À l'instant", "30min", "2h", "Hier", then D/M/Y.
func DisplayDate(t, now time.Time) string {
	t = t.In(now.Location())
	d := now.Sub(t)

	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	sameDay := y1 == y2 && m1 == m2 && d1 == d2

	switch {
	case d < time.Minute:
		return "À l'instant"
	case d < time.Hour:
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	case sameDay:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	yesterday := now.AddDate(0, 0, -1)
	y3, m3, d3 := yesterday.Date()
	if y1 == y3 && m1 == m3 && d1 == d3 {
		return "Hier"
	}

	return t.Format("02/01/2006")
}
