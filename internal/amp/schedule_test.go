package amp

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	for _, v := range []string{"0", "1", "1.313", "1000000"} {
		s, err := New(d(v))
		require.NoError(t, err, v)
		assert.True(t, s.Value(start).Equal(d(v)))
	}

	for _, v := range []string{"-1", "0.5", "1000001"} {
		_, err := New(d(v))
		assert.ErrorIs(t, err, ErrInvalidValue, v)
	}
}

func TestSchedule_LinearRamp(t *testing.T) {
	s, err := New(d("10"))
	require.NoError(t, err)

	end := start.Add(48 * time.Hour)
	require.NoError(t, s.SetTarget(start, d("100"), end))

	assert.True(t, s.Value(start).Equal(d("10")))
	assert.True(t, s.Value(start.Add(12*time.Hour)).Equal(d("32.5")))
	assert.True(t, s.Value(start.Add(24*time.Hour)).Equal(d("55")))
	assert.True(t, s.Value(end).Equal(d("100")))
	assert.True(t, s.Value(end.Add(time.Hour)).Equal(d("100")))

	target, ts := s.Target()
	assert.True(t, target.Equal(d("100")))
	assert.Equal(t, end, ts)
}

func TestSchedule_RampDown(t *testing.T) {
	s, err := New(d("100"))
	require.NoError(t, err)

	require.NoError(t, s.SetTarget(start, d("10"), start.Add(24*time.Hour)))
	assert.True(t, s.Value(start.Add(12*time.Hour)).Equal(d("55")))
}

func TestSchedule_RetargetMidRamp(t *testing.T) {
	s, err := New(d("10"))
	require.NoError(t, err)
	require.NoError(t, s.SetTarget(start, d("100"), start.Add(48*time.Hour)))

	mid := start.Add(24 * time.Hour)
	require.NoError(t, s.SetTarget(mid, d("20"), mid.Add(24*time.Hour)))

	assert.True(t, s.Value(mid).Equal(d("55")))
	assert.True(t, s.Value(mid.Add(12*time.Hour)).Equal(d("37.5")))
}

func TestSchedule_SetTargetValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		window time.Duration
		want   error
	}{
		{"below minimum", "0.5", 24 * time.Hour, ErrInvalidValue},
		{"above maximum", "1000001", 24 * time.Hour, ErrInvalidValue},
		{"window too short", "200", 23 * time.Hour, ErrInvalidTimestamp},
		{"increase too large", "1001", 24 * time.Hour, ErrInvalidValue},
		{"decrease too large", "9.99", 24 * time.Hour, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(d("100"))
			require.NoError(t, err)

			err = s.SetTarget(start, d(tt.target), start.Add(tt.window))
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, s.Value(start.Add(48*time.Hour)).Equal(d("100")), "schedule must be unchanged")
		})
	}
}

func TestSchedule_ConstantProductCannotRamp(t *testing.T) {
	s, err := New(decimal.Zero)
	require.NoError(t, err)

	err = s.SetTarget(start, d("1"), start.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidValue)
}
