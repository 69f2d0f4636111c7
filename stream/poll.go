package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/makalin/LiveWeave/errors"
)

// PollSource issues a GET per record. The first Next fetches immediately;
// later ones wait interval first. With a zero interval the source yields one
// record and then io.EOF.
type PollSource struct {
	url      string
	client   *http.Client
	interval time.Duration
	clock    clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	err     error
}

// NewPollSource creates a polling source. A nil client uses
// http.DefaultClient and a nil clk uses the wall clock.
func NewPollSource(url string, client *http.Client, interval time.Duration, clk clock.Clock) *PollSource {
	if client == nil {
		client = http.DefaultClient
	}
	if clk == nil {
		clk = clock.WallClock
	}
	if interval < 0 {
		interval = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PollSource{
		url:      url,
		client:   client,
		interval: interval,
		clock:    clk,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Next returns the next response body. Non-2xx responses end the sequence
// with *errors.HTTPError, network failures with *errors.ConnectionError.
func (p *PollSource) Next(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if p.ctx.Err() != nil {
		p.err = io.EOF
		return nil, p.err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unlink := context.AfterFunc(p.ctx, stop)
	defer unlink()

	if p.started {
		if p.interval == 0 {
			p.err = io.EOF
			return nil, p.err
		}
		if err := sleep(ctx, p.clock, p.interval); err != nil {
			return nil, p.closedOr(err)
		}
	}
	p.started = true

	body, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, p.closedOr(ctx.Err())
		}
		p.err = err
		return nil, err
	}
	return body, nil
}

// closedOr reports io.EOF when the source itself was closed, err otherwise.
func (p *PollSource) closedOr(err error) error {
	if p.ctx.Err() != nil {
		p.err = io.EOF
		return io.EOF
	}
	return err
}

func (p *PollSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, &errors.ConnectionError{URL: p.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &errors.ConnectionError{URL: p.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &errors.HTTPError{Status: resp.StatusCode, URL: p.url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ConnectionError{URL: p.url, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// Close stops polling. An in-flight request or delay is abandoned and later
// Next calls return io.EOF.
func (p *PollSource) Close() error {
	p.cancel()
	return nil
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	timer := clk.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
