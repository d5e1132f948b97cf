package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestRandomCode(t *testing.T) {
	code := RandomCode(8)
	assert.Len(t, code, 8)
	for _, ambiguous := range []string{"0", "O", "1", "I"} {
		assert.NotContains(t, code, ambiguous)
	}
	assert.NotEqual(t, RandomCode(8), RandomCode(8))
}

func TestToday(t *testing.T) {
	in := time.Date(2024, 1, 15, 18, 30, 45, 123, time.Local)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local), Today(in))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 1, 15, 6, 0, 0, 0, time.Local)
	evening := time.Date(2024, 1, 15, 23, 59, 0, 0, time.Local)
	nextDay := time.Date(2024, 1, 16, 0, 0, 0, 0, time.Local)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
}
