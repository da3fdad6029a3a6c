package skolplattformen

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

// Authenticator executes the multi-leg SSO login flow. Each leg consumes
// cookies set by the previous one, so the flow is strictly sequential and a
// fresh jar is created per login.
type Authenticator struct {
	Endpoints Endpoints
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Login performs the full flow and returns a session snapshot: all jar
// cookies plus the scraped X-Scope value.
func (a Authenticator) Login(ctx context.Context, username, password string) (*models.Session, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jar, err := newSnapshotJar()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	client := &http.Client{Jar: jar, Timeout: a.Timeout}

	// Leg 1: SSO bootstrap; find the student login link.
	doc, err := a.getDoc(ctx, client, a.Endpoints.SSO+"/sso-ng/saml-2.0/authenticate?customer=https://login001.stockholm.se&targetsystem=TimetableViewer")
	if err != nil {
		return nil, err
	}

	studentHref, ok := anchorHref(doc, "navBtn", "Elever")
	if !ok {
		return nil, appErrors.ScrapingFailed("no student login button found")
	}

	// Leg 2: student landing page; find the username/password option.
	doc, err = a.getDoc(ctx, client, a.Endpoints.Login+"/siteminderagent/forms/"+studentHref)
	if err != nil {
		return nil, err
	}

	passwordHref, ok := anchorHref(doc, "beta", "")
	if !ok {
		return nil, appErrors.ScrapingFailed("no username-password option found")
	}

	// Leg 3: credentials page; lift the login form and inject credentials.
	doc, err = a.getDoc(ctx, client, a.Endpoints.Login+"/siteminderagent/forms/"+passwordHref)
	if err != nil {
		return nil, err
	}

	form := scrapeForm(doc)
	if form == nil {
		return nil, appErrors.ScrapingFailed("no login form found")
	}
	form["user"] = username
	form["password"] = password
	form["submit"] = ""

	// Leg 4: submit the login form.
	res, err := a.postForm(ctx, client, a.Endpoints.Login+"/siteminderagent/forms/login.fcc", form)
	if err != nil {
		return nil, err
	}
	doc, err = a.readDoc(res)
	if err != nil {
		return nil, err
	}

	form = scrapeForm(doc)
	if form == nil {
		return nil, appErrors.ScrapingFailed("no sso request form found")
	}

	// Leg 5: forward the SAML request. A 400 here means the credentials were
	// rejected; anything else carries the SAML response form.
	res, err = a.postForm(ctx, client, a.Endpoints.Login+"/affwebservices/public/saml2sso", form)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusBadRequest {
		_ = res.Body.Close()
		logger.Debug("upstream rejected credentials")
		return nil, appErrors.ErrBadCredentials
	}
	doc, err = a.readDoc(res)
	if err != nil {
		return nil, err
	}

	form = scrapeForm(doc)
	if form == nil {
		return nil, appErrors.ScrapingFailed("no sso response form found")
	}

	// Leg 6: deliver the SAML response; the jar collects the session cookies.
	res, err = a.postForm(ctx, client, a.Endpoints.SSO+"/sso-ng/saml-2.0/response", form)
	if err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()

	// Leg 7: harvest the scope token from the timetable viewer landing page.
	doc, err = a.getDoc(ctx, client, a.Endpoints.API+"/ng/timetable/timetable-viewer/fns.stockholm.se/")
	if err != nil {
		return nil, err
	}

	scope, ok := doc.Find("nova-widget").First().Attr("scope")
	if !ok {
		return nil, appErrors.ScrapingFailed("no scope found")
	}

	cookies := jar.snapshot()
	logger.Debug("login succeeded", zap.Int("cookies", len(cookies)))

	return &models.Session{
		Service: models.ServiceSkolplattformen,
		Cookies: cookies,
		Scope:   scope,
	}, nil
}

func (a Authenticator) getDoc(ctx context.Context, client *http.Client, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}
	req.Header.Set("User-Agent", UserAgent)

	res, err := client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}

	return a.readDoc(res)
}

func (a Authenticator) postForm(ctx context.Context, client *http.Client, rawURL string, fields map[string]string) (*http.Response, error) {
	values := url.Values{}
	for name, value := range fields {
		values.Set(name, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}

	return res, nil
}

func (a Authenticator) readDoc(res *http.Response) (*goquery.Document, error) {
	defer res.Body.Close()

	doc, err := parseDocument(res.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}
	return doc, nil
}
