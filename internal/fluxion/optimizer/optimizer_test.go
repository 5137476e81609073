package optimizer

import "testing"

func TestSuggestConcurrencyBuckets(t *testing.T) {
	o := New()
	cases := []struct {
		name   string
		length int64
		want   int
	}{
		{"unknown", -1, DefaultMin},
		{"tiny", 512 * 1024, 1},
		{"small", 5 << 20, 4},
		{"medium", 50 << 20, 8},
		{"large", 500 << 20, 16},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := o.SuggestConcurrency(c.length); got != c.want {
				t.Errorf("SuggestConcurrency(%d) = %d, want %d", c.length, got, c.want)
			}
		})
	}
}

func TestReportThrottleHalvesAndSuppresses(t *testing.T) {
	o := New()
	o.SuggestConcurrency(500 << 20) // seeds concurrency = 16
	o.ReportThrottle()
	if got := o.Concurrency(); got != 8 {
		t.Fatalf("concurrency after throttle = %d, want 8", got)
	}
}

func TestConcurrencyNeverBelowMin(t *testing.T) {
	o := New()
	o.SuggestConcurrency(100) // concurrency = 1
	o.ReportThrottle()
	if got := o.Concurrency(); got != DefaultMin {
		t.Fatalf("concurrency = %d, want floored at %d", got, DefaultMin)
	}
}
