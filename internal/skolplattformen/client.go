package skolplattformen

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
)

// UserAgent is sent on every upstream request 🥸
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:95.0) Gecko/20100101 Firefox/95.0"

// upstreamHost is the host value the Skola24 RPCs expect in request bodies.
const upstreamHost = "fns.stockholm.se"

// Endpoints holds the upstream base URLs (scheme + host). They are fixed in
// production and overridden in tests.
type Endpoints struct {
	// SSO is the SAML SSO service (fnsservicesso1.stockholm.se).
	SSO string
	// Login is the CA SiteMinder forms host (login001.stockholm.se).
	Login string
	// API is the timetable host serving the Skola24 RPCs (fns.stockholm.se).
	API string
}

// DefaultEndpoints returns the production upstream hosts.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		SSO:   "https://fnsservicesso1.stockholm.se",
		Login: "https://login001.stockholm.se",
		API:   "https://fns.stockholm.se",
	}
}

// Client calls the Skola24 RPC endpoints with an authenticated session. The
// zero value is not usable; construct with NewClient.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	scope     string
	logger    *zap.Logger
}

// NewClient rebuilds an HTTP client from a session snapshot. The session's
// scope token is sent as the X-Scope header on every RPC.
func NewClient(session *models.Session, endpoints Endpoints, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	jar, err := restoreJar(session.Cookies)
	if err != nil {
		return nil, err
	}

	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		endpoints: endpoints,
		scope:     session.Scope,
		logger:    logger,
	}, nil
}
