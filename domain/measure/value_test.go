package measure

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfRejectsNaN(t *testing.T) {
	assert.False(t, Of(math.NaN()).Valid)
	assert.False(t, Of(math.Inf(1)).Valid)
	assert.True(t, Of(0).Valid, "zero is a real value, not missing")
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Of(0.25), Missing()})
	require.NoError(t, err)
	assert.Equal(t, "[0.25,null]", string(data))

	var back []Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Value{Of(0.25), Missing()}, back)
}

func TestValueFormatting(t *testing.T) {
	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "0.5", Of(0.5).String())
	assert.Equal(t, "N/A", Missing().Format(3))
	assert.Equal(t, "0.333", Of(1.0/3).Format(3))
	assert.Equal(t, 7.0, Missing().Or(7))
	assert.Nil(t, Missing().Ptr())
	assert.Equal(t, Of(2), FromPtr(Of(2).Ptr()))
}

func TestFloatsSkipsMissing(t *testing.T) {
	values := []Value{Of(1), Missing(), Of(3)}
	assert.Equal(t, []float64{1, 3}, Floats(values))
	assert.Equal(t, 2, CountValid(values))
}
