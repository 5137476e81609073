package bandwidth

import (
	"testing"
	"time"
)

func TestRecordSeedsEMA(t *testing.T) {
	e := New()
	e.Record(1024*1024, time.Second)
	if got := e.CurrentSpeed(); got != 1024*1024 {
		t.Fatalf("CurrentSpeed() = %v, want %v", got, 1024*1024)
	}
}

func TestRecordSmoothsTowardNewObservation(t *testing.T) {
	e := New()
	e.Record(1000, time.Second) // ema = 1000
	e.Record(0, time.Second)    // ema = 0.3*0 + 0.7*1000 = 700
	if got := e.CurrentSpeed(); got >= 1000 || got <= 0 {
		t.Fatalf("CurrentSpeed() = %v, want strictly between 0 and 1000", got)
	}
}

func TestETAUndefinedWhenSpeedZero(t *testing.T) {
	e := New()
	if got := e.ETASeconds(1000); got != 0 {
		t.Fatalf("ETASeconds() = %v, want 0 (undefined) before any Record", got)
	}
}

func TestETAComputation(t *testing.T) {
	e := New()
	e.Record(1000, time.Second) // speed = 1000 B/s
	got := e.ETASeconds(5000)
	if got != 5 {
		t.Fatalf("ETASeconds(5000) = %v, want 5", got)
	}
}

func TestTotalBytesAccumulates(t *testing.T) {
	e := New()
	e.Record(100, time.Second)
	e.Record(200, time.Second)
	if got := e.TotalBytes(); got != 300 {
		t.Fatalf("TotalBytes() = %d, want 300", got)
	}
}

func TestRecordIgnoresNonPositiveElapsed(t *testing.T) {
	e := New()
	e.Record(1000, 0)
	if got := e.TotalBytes(); got != 0 {
		t.Fatalf("TotalBytes() = %d, want 0 (elapsed<=0 ignored)", got)
	}
}
