package engine

import (
	"context"
	"io"
	"net/http"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
)

const streamChunkSize = 64 * 1024

// StreamChunk is one piece of a Stream's body, or its terminal error: a
// non-nil Err on the final received chunk indicates how the stream ended.
type StreamChunk struct {
	Data []byte
	Err  error
}

// Stream opens a streaming GET with assembled headers and yields body
// chunks of up to 64 KiB on the returned channel, closing it after the
// body is fully read or an error occurs.
func (e *Engine) Stream(ctx context.Context, rawURL string, headers map[string]string) (<-chan StreamChunk, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, headers)
	if err != nil {
		return nil, err
	}

	resp, err := e.clients.HTTP.Do(req)
	if err != nil {
		return nil, fluxerr.New(fluxerr.Network, "stream request failed").WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp)
		return nil, fluxerr.Newf(fluxerr.Network, "stream request returned status %d", resp.StatusCode).WithStatus(resp.StatusCode)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		buf := make([]byte, streamChunkSize)
		for {
			select {
			case <-ctx.Done():
				out <- StreamChunk{Err: ctx.Err()}
				return
			default:
			}

			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				out <- StreamChunk{Data: chunk}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				out <- StreamChunk{Err: fluxerr.New(fluxerr.Network, "stream read failed").WithCause(err)}
				return
			}
		}
	}()

	return out, nil
}
