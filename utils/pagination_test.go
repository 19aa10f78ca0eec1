package utils

import (
	"math"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(95, 20, 40)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 5, p.Pages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(0, 20, 0)
	assert.Equal(t, 0, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
	assert.Equal(t, 1, p.Page)

	p = NewPagination(100, 20, 80)
	assert.Equal(t, 5, p.Page)
	assert.False(t, p.HasNext)
}

func TestParsePageParams(t *testing.T) {
	cases := []struct {
		name               string
		page, limit, off   string
		wantLimit, wantOff int
	}{
		{"defaults", "", "", "", 10, 0},
		{"page and limit", "3", "20", "", 20, 40},
		{"limit clamped", "1", "101", "", 100, 0},
		{"offset wins", "5", "10", "7", 10, 7},
		{"non-positive falls back", "0", "-5", "", 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePageParams(tc.page, tc.limit, tc.off, 10, 100)
			require.NoError(t, err)
			assert.Equal(t, tc.wantLimit, got.Limit)
			assert.Equal(t, tc.wantOff, got.Offset)
		})
	}

	_, err := ParsePageParams("abc", "", "", 10, 100)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, ToAppError(err).Status)
}

func TestParsePageParamsRejectsOverflowingPage(t *testing.T) {
	largest := math.MaxInt / 10
	for _, page := range []string{strconv.Itoa(largest + 1), strconv.Itoa(math.MaxInt)} {
		_, err := ParsePageParams(page, "10", "", 10, 100)
		require.Error(t, err, page)
		assert.Equal(t, http.StatusBadRequest, ToAppError(err).Status)
	}

	got, err := ParsePageParams(strconv.Itoa(largest), "10", "", 10, 100)
	require.NoError(t, err)
	assert.Equal(t, (largest-1)*10, got.Offset)
}
