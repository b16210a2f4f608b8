package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronSpec is a parsed standard 5-field cron expression: minute hour
// day-of-month month day-of-week. No seconds field, no names (JAN/MON),
// matching the subset the spec's Scheduler Façade actually needs — no
// cron-parsing library exists anywhere in the retrieved example pack, so
// this is a deliberate from-scratch stdlib implementation.
type cronSpec struct {
	minute, hour, dom, month, dow fieldSet
}

type fieldSet map[int]bool

func parseCron(expr string) (cronSpec, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return cronSpec{}, fmt.Errorf("scheduler: cron expression %q must have 5 fields", expr)
	}

	minute, err := parseField(fields[0], 0, 59)
	if err != nil {
		return cronSpec{}, fmt.Errorf("scheduler: minute field: %w", err)
	}

	hour, err := parseField(fields[1], 0, 23)
	if err != nil {
		return cronSpec{}, fmt.Errorf("scheduler: hour field: %w", err)
	}

	dom, err := parseField(fields[2], 1, 31)
	if err != nil {
		return cronSpec{}, fmt.Errorf("scheduler: day-of-month field: %w", err)
	}

	month, err := parseField(fields[3], 1, 12)
	if err != nil {
		return cronSpec{}, fmt.Errorf("scheduler: month field: %w", err)
	}

	dow, err := parseField(fields[4], 0, 6)
	if err != nil {
		return cronSpec{}, fmt.Errorf("scheduler: day-of-week field: %w", err)
	}

	return cronSpec{minute: minute, hour: hour, dom: dom, month: month, dow: dow}, nil
}

// parseField expands one cron field ("*", "5", "1-5", "*/15", "1,5,10")
// into the set of matching integers within [lo, hi].
func parseField(field string, lo, hi int) (fieldSet, error) {
	set := make(fieldSet)

	for _, part := range strings.Split(field, ",") {
		if err := parsePart(part, lo, hi, set); err != nil {
			return nil, err
		}
	}

	return set, nil
}

func parsePart(part string, lo, hi int, set fieldSet) error {
	step := 1

	if idx := strings.IndexByte(part, '/'); idx >= 0 {
		s, err := strconv.Atoi(part[idx+1:])
		if err != nil || s < 1 {
			return fmt.Errorf("invalid step in %q", part)
		}

		step = s
		part = part[:idx]
	}

	rangeLo, rangeHi := lo, hi

	switch {
	case part == "*" || part == "":
		// full range, already set above
	case strings.Contains(part, "-"):
		bounds := strings.SplitN(part, "-", 2)

		a, err := strconv.Atoi(bounds[0])
		if err != nil {
			return fmt.Errorf("invalid range start in %q", part)
		}

		b, err := strconv.Atoi(bounds[1])
		if err != nil {
			return fmt.Errorf("invalid range end in %q", part)
		}

		rangeLo, rangeHi = a, b
	default:
		v, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid value %q", part)
		}

		rangeLo, rangeHi = v, v
	}

	if rangeLo < lo || rangeHi > hi || rangeLo > rangeHi {
		return fmt.Errorf("value out of range in %q (want [%d,%d])", part, lo, hi)
	}

	for v := rangeLo; v <= rangeHi; v += step {
		set[v] = true
	}

	return nil
}

func (c cronSpec) matches(t time.Time) bool {
	return c.minute[t.Minute()] &&
		c.hour[t.Hour()] &&
		c.dom[t.Day()] &&
		c.month[int(t.Month())] &&
		c.dow[int(t.Weekday())]
}

// next returns the earliest minute-aligned time strictly after from that
// matches c. Bounded to two years out to guarantee termination on
// unsatisfiable expressions (e.g. Feb 30).
func (c cronSpec) next(from time.Time) (time.Time, error) {
	t := from.Truncate(time.Minute).Add(time.Minute)
	limit := from.AddDate(2, 0, 0)

	for t.Before(limit) {
		if c.matches(t) {
			return t, nil
		}

		t = t.Add(time.Minute)
	}

	return time.Time{}, fmt.Errorf("scheduler: no matching time found within 2 years")
}
