package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	a := New(now)
	b := New(now)
	c := New(now.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestTime(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	got, err := Time(New(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
