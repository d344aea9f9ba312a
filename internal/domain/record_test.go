package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(t *testing.T, schema []string, values []Value) ClimateRecord {
	t.Helper()
	rec, err := NewClimateRecord(schema, values)
	require.NoError(t, err)
	return rec
}

func TestNewClimateRecord(t *testing.T) {
	t.Run("zips schema and values positionally", func(t *testing.T) {
		rec := testRecord(t,
			[]string{ColYear, ColMonth, ColDay, "max_temp"},
			[]Value{IntValue(2019), IntValue(3), IntValue(1), FloatValue(-2.5)},
		)

		v, ok := rec.Get("max_temp")
		require.True(t, ok)
		assert.InDelta(t, -2.5, v.Float, 1e-9)
	})

	t.Run("length mismatch is an error", func(t *testing.T) {
		_, err := NewClimateRecord([]string{ColYear, ColMonth}, []Value{IntValue(2019)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 columns")
	})
}

func TestClimateRecord_Get(t *testing.T) {
	rec := testRecord(t, []string{ColCity}, []Value{StrValue("Toronto")})

	_, ok := rec.Get("missing")
	assert.False(t, ok)

	v, ok := rec.Get(ColCity)
	require.True(t, ok)
	assert.Equal(t, "Toronto", v.Str)
}

func TestClimateRecord_Int(t *testing.T) {
	rec := testRecord(t,
		[]string{ColYear, ColDay, "spd_of_max_gust", "comment"},
		[]Value{IntValue(2019), StrValue("14†"), StrValue("<31"), StrValue("calm")},
	)

	year, ok := rec.Int(ColYear)
	require.True(t, ok)
	assert.Equal(t, int64(2019), year)

	// String day cells fall back to their digit run.
	day, ok := rec.Int(ColDay)
	require.True(t, ok)
	assert.Equal(t, int64(14), day)

	gust, ok := rec.Int("spd_of_max_gust")
	require.True(t, ok)
	assert.Equal(t, int64(31), gust)

	_, ok = rec.Int("comment")
	assert.False(t, ok)

	_, ok = rec.Int("missing")
	assert.False(t, ok)
}

func TestClimateRecord_Richness(t *testing.T) {
	rec := testRecord(t,
		[]string{"a", "b", "c", "d", "e"},
		[]Value{
			IntValue(5),       // counts
			IntValue(0),       // zero, does not count
			FloatValue(-1.2),  // counts
			StrValue("a1b"),   // counts
			StrValue("M"),     // does not count
		},
	)
	assert.Equal(t, 3, rec.Richness())
}
