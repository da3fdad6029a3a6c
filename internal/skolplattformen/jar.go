package skolplattformen

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/akeamc/skool/internal/models"
)

// snapshotJar wraps a standard cookie jar and records every cookie it is
// handed, so the full session can be persisted and later rebuilt. The
// standard jar only exposes cookies per request URL, which is not enough to
// round-trip a session.
type snapshotJar struct {
	mu       sync.Mutex
	inner    http.CookieJar
	recorded map[string]models.Cookie
}

func newSnapshotJar() (*snapshotJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &snapshotJar{inner: inner, recorded: make(map[string]models.Cookie)}, nil
}

func (j *snapshotJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	for _, c := range cookies {
		domain := c.Domain
		if domain == "" {
			domain = u.Hostname()
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		key := c.Name + ";" + domain + ";" + path
		if c.MaxAge < 0 {
			delete(j.recorded, key)
			continue
		}
		j.recorded[key] = models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
	}
	j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
}

func (j *snapshotJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// snapshot lists all cookies the jar has seen, in no particular order.
func (j *snapshotJar) snapshot() []models.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]models.Cookie, 0, len(j.recorded))
	for _, c := range j.recorded {
		out = append(out, c)
	}
	return out
}

// restoreJar rebuilds a cookie jar from a session snapshot.
func restoreJar(cookies []models.Cookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		u := &url.URL{Scheme: "https", Host: host, Path: c.Path}
		jar.SetCookies(u, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}})
	}

	return jar, nil
}
