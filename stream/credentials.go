package stream

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/makalin/LiveWeave/errors"
)

// resolve parses locator relative to base.
func resolve(base *url.URL, locator string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(locator))
	if err != nil {
		return nil, &errors.ConnectionError{URL: locator, Err: err}
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() || ref.Host == "" {
		return nil, &errors.ConnectionError{URL: locator, Err: fmt.Errorf("relative locator without a base location")}
	}
	return ref, nil
}

func sameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(httpScheme(a.Scheme), httpScheme(b.Scheme)) && strings.EqualFold(a.Host, b.Host)
}

// httpScheme folds socket schemes onto their HTTP counterparts so a ws://
// locator can share an origin with an http:// page.
func httpScheme(scheme string) string {
	switch strings.ToLower(scheme) {
	case "ws":
		return "http"
	case "wss":
		return "https"
	}
	return strings.ToLower(scheme)
}

// attachCookies reports whether the jar accompanies a request to target.
func attachCookies(mode Credentials, jar http.CookieJar, base, target *url.URL) bool {
	if jar == nil {
		return false
	}
	switch mode {
	case CredentialsInclude:
		return true
	case CredentialsSameOrigin:
		return sameOrigin(base, target)
	}
	return false
}

// clientFor returns a shallow copy of base with the jar attached or removed.
func clientFor(base *http.Client, jar http.CookieJar, attach bool) *http.Client {
	c := *base
	c.Jar = nil
	if attach {
		c.Jar = jar
	}
	return &c
}

// cookieHeader renders the jar's cookies for target as request headers. The
// cookie jar keys on http(s) URLs, so socket schemes are folded first.
func cookieHeader(jar http.CookieJar, target *url.URL) http.Header {
	lookup := *target
	lookup.Scheme = httpScheme(target.Scheme)

	cookies := jar.Cookies(&lookup)
	if len(cookies) == 0 {
		return nil
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return http.Header{"Cookie": []string{strings.Join(parts, "; ")}}
}
