package modsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeLapse(t *testing.T) {
	tl := NewTimeLapse(time.Millisecond, 100, 150)

	assert.Equal(t, int64(50), tl.Length())
	assert.Equal(t, int64(50), tl.TimeLeft())
	assert.Equal(t, int64(100), tl.Time())
	assert.True(t, tl.HasTimeLeft())
	assert.Equal(t, time.Millisecond, tl.Unit())

	require.NoError(t, tl.Consume(20))
	assert.Equal(t, int64(120), tl.Time())
	assert.Equal(t, int64(20), tl.TimeConsumed())
	assert.Equal(t, int64(30), tl.TimeLeft())
	assert.Equal(t, "[100,150) at 120", tl.String())

	err := tl.Consume(31)
	require.ErrorIs(t, err, ErrTimeLapseExhausted)
	assert.Equal(t, int64(120), tl.Time(), "a failed consume uses nothing")

	require.ErrorIs(t, tl.Consume(-1), ErrNegativeConsumption)

	tl.ConsumeAll()
	assert.False(t, tl.HasTimeLeft())
	assert.Equal(t, int64(0), tl.TimeLeft())

	tl.reset()
	assert.Equal(t, int64(50), tl.TimeLeft())
}

func TestTimeLapse_IsIn(t *testing.T) {
	tl := NewTimeLapse(time.Second, 10, 20)
	tests := []struct {
		t    int64
		want bool
	}{
		{9, false},
		{10, true},
		{19, true},
		{20, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tl.IsIn(tt.t), "IsIn(%d)", tt.t)
	}
}
