package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"2024-03-01T00:00:00Z", "2024-03-01"},
		{"2024-03-01T17:45:00Z", "2024-03-01"},
		{"2024-03-01T09:00:00-05:00", "2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "01/03/2024", "2024-13-01", "2024-03-01Tgarbage"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestParseDatePtr_NilAndEmpty(t *testing.T) {
	d, err := ParseDatePtr(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	empty := ""
	d, err = ParseDatePtr(&empty)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDate_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		D  Date  `json:"d"`
		DP *Date `json:"dp"`
	}
	in := wrapper{D: NewDate(2022, 6, 1)}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2022-06-01","dp":null}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2022-06-01T00:00:00Z","dp":"2020-01-01"}`), &out))
	assert.True(t, out.D.Equal(in.D))
	require.NotNil(t, out.DP)
	assert.Equal(t, "2020-01-01", out.DP.String())
}

func TestMinMaxDate(t *testing.T) {
	a := MustParseDate("2020-01-01")
	b := MustParseDate("2022-06-01")
	c := MustParseDate("2021-05-05")

	assert.Equal(t, a, MinDate(a, b))
	assert.Equal(t, a, MinDate(b, a))
	assert.Equal(t, b, MaxDate(a, b, c))
	assert.Equal(t, b, MaxDate(c, a, b))
}

func TestDaysSince(t *testing.T) {
	now := MustParseDate("2024-07-01")
	assert.Equal(t, 90, now.DaysSince(now.AddDays(-90)))
	assert.Equal(t, 0, now.DaysSince(now))
}
