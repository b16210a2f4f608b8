package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron_EveryMinute(t *testing.T) {
	spec, err := parseCron("* * * * *")
	require.NoError(t, err)

	now := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)
	assert.True(t, spec.matches(now))
}

func TestParseCron_SpecificHourMinute(t *testing.T) {
	spec, err := parseCron("30 9 * * *")
	require.NoError(t, err)

	assert.True(t, spec.matches(time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)))
	assert.False(t, spec.matches(time.Date(2026, 3, 5, 9, 31, 0, 0, time.UTC)))
}

func TestParseCron_Step(t *testing.T) {
	spec, err := parseCron("*/15 * * * *")
	require.NoError(t, err)

	assert.True(t, spec.matches(time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)))
	assert.True(t, spec.matches(time.Date(2026, 3, 5, 9, 15, 0, 0, time.UTC)))
	assert.False(t, spec.matches(time.Date(2026, 3, 5, 9, 20, 0, 0, time.UTC)))
}

func TestParseCron_Range(t *testing.T) {
	spec, err := parseCron("0 9-17 * * 1-5")
	require.NoError(t, err)

	// 2026-03-05 is a Thursday.
	assert.True(t, spec.matches(time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)))
	assert.False(t, spec.matches(time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC)))

	// 2026-03-07 is a Saturday.
	assert.False(t, spec.matches(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)))
}

func TestParseCron_InvalidFieldCount(t *testing.T) {
	_, err := parseCron("* * *")
	assert.Error(t, err)
}

func TestParseCron_InvalidValue(t *testing.T) {
	_, err := parseCron("99 * * * *")
	assert.Error(t, err)
}

func TestCronSpec_Next(t *testing.T) {
	spec, err := parseCron("0 0 * * *")
	require.NoError(t, err)

	from := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	next, err := spec.next(from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), next)
}
