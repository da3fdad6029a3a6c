package models

import (
	"time"
)

// SessionTTL bounds how long a cached upstream session may be reused.
const SessionTTL = 15 * time.Minute

// Cookie is a snapshot of an RFC 6265 cookie, detached from any jar so the
// session can be sealed and restored across processes.
type Cookie struct {
	Name     string    `msgpack:"name"`
	Value    string    `msgpack:"value"`
	Domain   string    `msgpack:"domain"`
	Path     string    `msgpack:"path"`
	Expires  time.Time `msgpack:"expires"`
	Secure   bool      `msgpack:"secure"`
	HTTPOnly bool      `msgpack:"http_only"`
}

// Session is the authenticated materialisation required to call the upstream:
// a cookie jar snapshot plus the scraped X-Scope header value.
type Session struct {
	Service string   `msgpack:"service"`
	Cookies []Cookie `msgpack:"cookies"`
	Scope   string   `msgpack:"scope"`
}
