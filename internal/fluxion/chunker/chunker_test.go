package chunker

import "testing"

func TestPlanChunksPartition(t *testing.T) {
	c := New()
	const total = 5 * 1024 * 1024
	plans := c.PlanChunks(total, 0)

	var cursor int64
	for i, p := range plans {
		if p.Index != i {
			t.Fatalf("plan %d: index = %d, want %d", i, p.Index, i)
		}
		if p.Start != cursor {
			t.Fatalf("plan %d: start = %d, want %d", i, p.Start, cursor)
		}
		if p.Start > p.End {
			t.Fatalf("plan %d: start %d > end %d", i, p.Start, p.End)
		}
		cursor = p.End + 1
	}
	if cursor != total {
		t.Fatalf("plans cover up to %d, want %d", cursor, total)
	}
}

func TestPlanChunksEmptyEdgeCases(t *testing.T) {
	c := New()
	if got := c.PlanChunks(0, 0); got != nil {
		t.Fatalf("total_size=0: got %v plans, want nil", got)
	}
	if got := c.PlanChunks(100, 100); got != nil {
		t.Fatalf("offset==total_size: got %v plans, want nil", got)
	}
	if got := c.PlanChunks(100, 200); got != nil {
		t.Fatalf("offset>total_size: got %v plans, want nil", got)
	}
}

func TestFeedbackDoublesOnImprovement(t *testing.T) {
	c := New()
	start := c.CurrentSize()

	// First feedback seeds the EMA with the observation itself, so
	// observed >= ema is always true on the first call.
	c.Feedback(int64(start), 1)
	if got := c.CurrentSize(); got != start*2 {
		t.Fatalf("after first feedback: size = %d, want %d", got, start*2)
	}
}

func TestFeedbackHalvesOnRegression(t *testing.T) {
	c := New()
	// Seed a fast EMA baseline.
	c.Feedback(10*1024*1024, 1)
	sizeAfterSeed := c.CurrentSize()

	// Now report a much slower chunk relative to the seeded EMA.
	c.Feedback(1024, 1)
	if got := c.CurrentSize(); got >= sizeAfterSeed {
		t.Fatalf("after regression: size = %d, want less than %d", got, sizeAfterSeed)
	}
}

func TestFeedbackRespectsBounds(t *testing.T) {
	c := New()
	for i := 0; i < 20; i++ {
		c.Feedback(100*1024*1024, 1) // fast: keep doubling
	}
	if got := c.CurrentSize(); got != MaxChunkSize {
		t.Fatalf("size = %d, want capped at max %d", got, MaxChunkSize)
	}

	c2 := New()
	c2.Feedback(1, 1) // seed
	for i := 0; i < 20; i++ {
		c2.Feedback(0, 1) // 0 bytes: always slower than ema, keep halving
	}
	if got := c2.CurrentSize(); got != MinChunkSize {
		t.Fatalf("size = %d, want floored at min %d", got, MinChunkSize)
	}
}

func TestFeedbackIgnoresNonPositiveElapsed(t *testing.T) {
	c := New()
	start := c.CurrentSize()
	c.Feedback(1<<30, 0)
	if got := c.CurrentSize(); got != start {
		t.Fatalf("size changed on elapsed<=0: got %d, want unchanged %d", got, start)
	}
}
