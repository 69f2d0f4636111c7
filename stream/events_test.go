package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalin/LiveWeave/errors"
)

func eventServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, flush func())) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		handler(w, r, flusher.Flush)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEventSource_MessagesOnlyInOrder(t *testing.T) {
	srv := eventServer(t, func(w http.ResponseWriter, _ *http.Request, flush func()) {
		fmt.Fprint(w, "data: {\"n\":1}\n\n")
		fmt.Fprint(w, "event: ping\ndata: {\"ignored\":true}\n\n")
		fmt.Fprint(w, "event: message\ndata: {\"n\":2}\n\n")
		fmt.Fprint(w, ": comment only\n\n")
		fmt.Fprint(w, "id: 3\ndata: {\"n\":3}\n\n")
		flush()
	})

	src := NewEventSource(srv.URL, nil, false, nil, nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []string
	for {
		msg, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(msg))
	}
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, got)
}

func TestEventSource_BadStatusIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewEventSource(srv.URL, nil, false, nil, nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := src.Next(ctx)
	var ce *errors.ConnectionError
	assert.ErrorAs(t, err, &ce)
}

func TestEventSource_CloseCancelsSubscription(t *testing.T) {
	disconnected := make(chan struct{})
	srv := eventServer(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, "data: {\"n\":1}\n\n")
		flush()
		<-r.Context().Done()
		close(disconnected)
	})

	src := NewEventSource(srv.URL, nil, false, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"n":1}`, string(msg))

	require.NoError(t, src.Close())

	select {
	case <-disconnected:
	case <-ctx.Done():
		t.Fatal("server connection was not released")
	}
	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}
