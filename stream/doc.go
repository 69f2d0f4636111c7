// Package stream turns HTTP polling, server-sent events and websockets into
// one pull-based sequence of decoded JSON records.
//
// An Opener resolves a Request against its base location, applies the
// credentials policy and returns a Stream:
//
//	opener := stream.NewOpener(
//	    stream.WithBase(base),
//	    stream.WithCookieJar(jar),
//	    stream.WithMetrics(registry),
//	)
//	s, err := opener.Open(ctx, stream.Request{
//	    Source:       "/api/stats",
//	    Transport:    stream.TransportPoll,
//	    PollInterval: 5 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	for {
//	    rec, err := s.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err // *errors.HTTPError, *errors.ParseError or *errors.ConnectionError
//	    }
//	    render(rec)
//	}
//
// A failed stream stays failed: every later Next returns the same error.
// Restarting means opening a new Stream.
package stream
