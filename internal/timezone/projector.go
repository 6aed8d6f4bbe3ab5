package timezone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
)

// Projector converts UTC instants into wall-clock values within an arbitrary
// IANA timezone. All slot comparisons in the booking engine go through this;
// nothing may depend on the host timezone.
type Projector interface {
	// DayOfWeek returns the weekday of the instant in tz, 0=Sunday..6=Saturday.
	DayOfWeek(t time.Time, tz string) (int, error)
	// TimeOfDay returns the 24h wall-clock time of the instant in tz as "HH:MM:SS".
	TimeOfDay(t time.Time, tz string) (string, error)
	// DateString returns the calendar date of the instant in tz as "YYYY-MM-DD".
	DateString(t time.Time, tz string) (string, error)
}

var weekdayNumbers = map[string]int{
	"Sunday":    0,
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
}

type LocationProjector struct {
	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewProjector() *LocationProjector {
	return &LocationProjector{cache: make(map[string]*time.Location)}
}

func (p *LocationProjector) location(tz string) (*time.Location, error) {
	p.mu.RLock()
	loc, ok := p.cache[tz]
	p.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	p.mu.Lock()
	p.cache[tz] = loc
	p.mu.Unlock()
	return loc, nil
}

func (p *LocationProjector) DayOfWeek(t time.Time, tz string) (int, error) {
	loc, err := p.location(tz)
	if err != nil {
		return 0, err
	}

	name := t.In(loc).Weekday().String()
	n, ok := weekdayNumbers[name]
	if !ok {
		// Cannot happen for a valid time.Weekday; if it ever does, a wrong
		// day beats a crashed booking endpoint.
		logger.Error("unknown weekday name, falling back to local weekday", "weekday", name, "tz", tz)
		return int(t.Weekday()), nil
	}
	return n, nil
}

func (p *LocationProjector) TimeOfDay(t time.Time, tz string) (string, error) {
	loc, err := p.location(tz)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format("15:04:05"), nil
}

func (p *LocationProjector) DateString(t time.Time, tz string) (string, error) {
	loc, err := p.location(tz)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format("2006-01-02"), nil
}

var _ Projector = (*LocationProjector)(nil)
