package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestManualAdvanceFiresInOrder(t *testing.T) {
	m := NewManual(epoch)

	var fired []string
	m.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	m.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	m.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	m.Advance(3 * time.Second)

	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, epoch.Add(3*time.Second), m.Now())
	assert.Equal(t, 1, m.Pending())
}

func TestManualRescheduledTimersFireWithinSameAdvance(t *testing.T) {
	m := NewManual(epoch)

	ticks := 0
	var arm func()
	arm = func() {
		m.AfterFunc(time.Second, func() {
			ticks++
			arm()
		})
	}
	arm()

	m.Advance(5 * time.Second)
	require.Equal(t, 5, ticks)
	assert.Equal(t, 1, m.Pending())
}

func TestManualCallbackSeesDueTime(t *testing.T) {
	m := NewManual(epoch)

	var seen time.Time
	m.AfterFunc(1500*time.Millisecond, func() { seen = m.Now() })
	m.Advance(10 * time.Second)

	assert.Equal(t, epoch.Add(1500*time.Millisecond), seen)
}

func TestManualStop(t *testing.T) {
	m := NewManual(epoch)

	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop is a no-op")

	m.Advance(time.Minute)
	assert.False(t, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestRealAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
