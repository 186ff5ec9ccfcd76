package percent

import (
	"testing"

	"gopri/domain/measure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		raw  string
		want measure.Value
	}{
		{"73%", measure.Of(0.73)},
		{" 50 % ", measure.Of(0.5)},
		{"73", measure.Of(0.73)},
		{"0.73", measure.Of(0.73)},
		{"1", measure.Of(1)},
		{"0", measure.Of(0)},
		{"-", measure.Missing()},
		{" - ", measure.Missing()},
		{"", measure.Missing()},
		{"n/a", measure.Missing()},
		{"abc%", measure.Missing()},
	}

	for _, tt := range tests {
		got := ParseCell(tt.raw)
		assert.Equal(t, tt.want.Valid, got.Valid, "raw=%q", tt.raw)
		if tt.want.Valid {
			assert.InDelta(t, tt.want.Float, got.Float, 1e-12, "raw=%q", tt.raw)
		}
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, measure.Of(0.5), ParseNumber(0.5))
	assert.InDelta(t, 1.5, ParseNumber(150).Float, 1e-12)
}

func TestLoadTimeValueRejectedByStrictSite(t *testing.T) {
	// 150 is rescaled to 1.5 at load time; the strict call site must refuse it.
	loaded := ParseNumber(150)
	require.True(t, loaded.Valid)

	_, err := RequireRatio(loaded.Float)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRequireRatio(t *testing.T) {
	for _, ok := range []float64{0, 0.3, 1} {
		v, err := RequireRatio(ok)
		assert.NoError(t, err)
		assert.Equal(t, ok, v)
	}
	for _, bad := range []float64{-0.01, 1.01, 70} {
		_, err := RequireRatio(bad)
		assert.ErrorIs(t, err, ErrOutOfRange, "value=%v", bad)
	}
}
