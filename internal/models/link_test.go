package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewLinkIDIsRandom(t *testing.T) {
	a, err := NewLinkID()
	require.NoError(t, err)
	b, err := NewLinkID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 64)
}

func TestLinkIDParseRoundTrip(t *testing.T) {
	id, err := NewLinkID()
	require.NoError(t, err)

	parsed, err := ParseLinkID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseLinkID("abcd")
	assert.Error(t, err)
	_, err = ParseLinkID("zz")
	assert.Error(t, err)
}

func TestDateRangeContains(t *testing.T) {
	start := date(2024, time.February, 5)
	end := date(2024, time.March, 10)
	r := DateRange{Start: &start, End: &end}

	assert.True(t, r.Contains(date(2024, time.February, 5)))
	assert.True(t, r.Contains(date(2024, time.March, 10)))
	assert.True(t, r.Contains(date(2024, time.February, 20)))
	assert.False(t, r.Contains(date(2024, time.February, 4)))
	assert.False(t, r.Contains(date(2024, time.March, 11)))
}

func TestDateRangeUnbounded(t *testing.T) {
	r := DateRange{}
	assert.True(t, r.Contains(date(1990, time.January, 1)))
	assert.True(t, r.Contains(date(2100, time.December, 31)))

	end := date(2024, time.March, 10)
	r = DateRange{End: &end}
	assert.True(t, r.Contains(date(2000, time.June, 1)))
	assert.False(t, r.Contains(date(2024, time.March, 11)))
}

func TestDateRangeValue(t *testing.T) {
	start := date(2024, time.February, 5)
	end := date(2024, time.March, 10)

	v, err := DateRange{Start: &start, End: &end}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[2024-02-05,2024-03-11)", v)

	v, err = DateRange{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[,)", v)

	_, err = DateRange{Start: &end, End: &start}.Value()
	assert.Error(t, err)
}

func TestDateRangeScan(t *testing.T) {
	var r DateRange
	require.NoError(t, r.Scan([]byte("[2024-02-05,2024-03-11)")))
	require.NotNil(t, r.Start)
	require.NotNil(t, r.End)
	assert.Equal(t, date(2024, time.February, 5), *r.Start)
	assert.Equal(t, date(2024, time.March, 10), *r.End)

	require.NoError(t, r.Scan([]byte("(,)")))
	assert.Nil(t, r.Start)
	assert.Nil(t, r.End)

	require.NoError(t, r.Scan([]byte("empty")))
	assert.False(t, r.Contains(date(2024, time.February, 5)))
}

func TestDateRangeScanValueRoundTrip(t *testing.T) {
	start := date(2024, time.February, 5)
	end := date(2024, time.March, 10)
	in := DateRange{Start: &start, End: &end}

	v, err := in.Value()
	require.NoError(t, err)

	var out DateRange
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, *in.Start, *out.Start)
	assert.Equal(t, *in.End, *out.End)
}

func TestLinkJSONShape(t *testing.T) {
	id, err := NewLinkID()
	require.NoError(t, err)

	start := date(2024, time.February, 5)
	link := Link{ID: id, Options: Options{Range: DateRange{Start: &start}}}

	raw, err := json.Marshal(link)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id.String(), decoded["id"])
	assert.NotContains(t, decoded, "owner")
}
