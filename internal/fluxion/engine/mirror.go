package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

type mirrorCandidate struct {
	url     string
	latency float64
}

// Mirror probes all urls concurrently, discards failures, and fetches from
// the lowest-latency survivor.
func (e *Engine) Mirror(ctx context.Context, urls []string, outputPath string, progress ProgressSink) (model.FetchResult, error) {
	if len(urls) == 0 {
		return model.FetchResult{}, fluxerr.New(fluxerr.Network, "no mirror URLs provided")
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		candidates []mirrorCandidate
	)

	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			result, err := e.Probe(ctx, u, nil)
			if err != nil {
				return
			}
			mu.Lock()
			candidates = append(candidates, mirrorCandidate{url: u, latency: result.LatencyMs})
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	if len(candidates) == 0 {
		return model.FetchResult{}, fluxerr.New(fluxerr.Network, "all mirror probes failed")
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].latency < candidates[j].latency })
	best := candidates[0]

	req := model.DefaultFetchRequest(best.url)
	req.OutputPath = outputPath
	return e.Fetch(ctx, req, progress)
}
