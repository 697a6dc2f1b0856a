package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	b, err := json.Marshal(struct {
		Expiry *Date `json:"expiry"`
		Close  *Date `json:"close"`
	}{Expiry: &d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiry":"2024-02-29","close":null}`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &back))
	assert.True(t, back.Equal(d.Time))

	assert.Error(t, json.Unmarshal([]byte(`"02/29/2024"`), &back))
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2024, time.March, 1)

	tests := []struct {
		name    string
		src     any
		wantErr bool
	}{
		{"text", "2024-03-01", false},
		{"text with time", "2024-03-01 00:00:00+00:00", false},
		{"bytes", []byte("2024-03-01"), false},
		{"driver time", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"null", nil, true},
		{"number", 20240301, true},
		{"garbage", "soon", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := d.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, d)
		})
	}
}

func TestDate_DaysUntil(t *testing.T) {
	start := NewDate(2024, time.March, 1)
	assert.Equal(t, 37, start.DaysUntil(NewDate(2024, time.April, 7)))
	assert.Equal(t, -1, start.DaysUntil(NewDate(2024, time.February, 29)))
	assert.Equal(t, 0, start.DaysUntil(start))
}

func TestParseSource(t *testing.T) {
	got, err := ParseSource(" WebUll ")
	require.NoError(t, err)
	assert.Equal(t, SourceWebull, got)

	_, err = ParseSource("schwab")
	assert.Error(t, err)
}
