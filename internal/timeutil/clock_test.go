package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTickerFiresOnAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	ticker := clock.NewTicker(3 * time.Second)
	require.Equal(t, 1, clock.Tickers())

	clock.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its period elapsed")
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case ts := <-ticker.C():
		assert.Equal(t, start.Add(3*time.Second), ts)
	default:
		t.Fatal("ticker did not fire")
	}
	assert.Equal(t, start.Add(3*time.Second), clock.Now())
}

func TestMockTickerStop(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Second)
	ticker.Stop()

	clock.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
