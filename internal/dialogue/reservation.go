package dialogue

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lumiere-assistant-backend/internal/session"
)

var ErrMalformedReservation = errors.New("malformed reservation request")

var (
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|(\d{1,2})/(\d{1,2})/(\d{4})`)
	timePattern   = regexp.MustCompile(`\d{1,2}:\d{2}`)
	peoplePattern = regexp.MustCompile(`(\d+)\s*people|for (\d+)`)
)

// ParseReservation extracts date, time and party size from text. All three
// must be present. Dates may be ISO or MM/DD/YYYY and are returned as ISO;
// times are returned as zero-padded HH:MM.
func ParseReservation(text string) (session.Reservation, error) {
	dm := datePattern.FindStringSubmatch(text)
	tm := timePattern.FindString(text)
	pm := peoplePattern.FindStringSubmatch(strings.ToLower(text))
	if dm == nil || tm == "" || pm == nil {
		return session.Reservation{}, ErrMalformedReservation
	}

	date := dm[0]
	if dm[1] != "" {
		month, _ := strconv.Atoi(dm[1])
		day, _ := strconv.Atoi(dm[2])
		date = fmt.Sprintf("%s-%02d-%02d", dm[3], month, day)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return session.Reservation{}, fmt.Errorf("%w: invalid date %q", ErrMalformedReservation, date)
	}

	clock, err := time.Parse("15:04", tm)
	if err != nil {
		return session.Reservation{}, fmt.Errorf("%w: invalid time %q", ErrMalformedReservation, tm)
	}

	raw := pm[1]
	if raw == "" {
		raw = pm[2]
	}
	people, err := strconv.Atoi(raw)
	if err != nil || people < 1 {
		return session.Reservation{}, fmt.Errorf("%w: invalid party size %q", ErrMalformedReservation, raw)
	}

	return session.Reservation{Date: date, Time: clock.Format("15:04"), PartySize: people}, nil
}
