package skolplattformen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

// submittedLogin records what the login form leg received.
type submittedLogin struct {
	User     string
	Password string
	Target   string
}

// fakeUpstream serves every leg of the login flow from one mux.
func fakeUpstream(t *testing.T, rejectCredentials bool) (*httptest.Server, *submittedLogin) {
	t.Helper()

	submitted := &submittedLogin{}
	mux := http.NewServeMux()

	mux.HandleFunc("/sso-ng/saml-2.0/authenticate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a class="navBtn" href="ignore">Personal</a>
			<a class="navBtn" href="student?sso=1">Elever</a>
		</body></html>`))
	})

	mux.HandleFunc("/siteminderagent/forms/student", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a class="beta" href="pwd?x=1">Logga in</a></body></html>`))
	})

	mux.HandleFunc("/siteminderagent/forms/pwd", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><form>
			<input name="target" value="T1"/>
			<input name="smagentname" value="agent"/>
		</form></body></html>`))
	})

	mux.HandleFunc("/siteminderagent/forms/login.fcc", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		submitted.User = r.PostForm.Get("user")
		submitted.Password = r.PostForm.Get("password")
		submitted.Target = r.PostForm.Get("target")

		http.SetCookie(w, &http.Cookie{Name: "SMSESSION", Value: "sm-1", Path: "/"})
		_, _ = w.Write([]byte(`<html><body><form>
			<input name="SAMLRequest" value="req"/>
		</form></body></html>`))
	})

	mux.HandleFunc("/affwebservices/public/saml2sso", func(w http.ResponseWriter, r *http.Request) {
		if rejectCredentials {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`<html><body><form>
			<input name="SAMLResponse" value="resp"/>
		</form></body></html>`))
	})

	mux.HandleFunc("/sso-ng/saml-2.0/response", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "resp", r.PostForm.Get("SAMLResponse"))
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s-1", Path: "/"})
	})

	mux.HandleFunc("/ng/timetable/timetable-viewer/fns.stockholm.se/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><nova-widget scope="Z"></nova-widget></body></html>`))
	})

	return httptest.NewServer(mux), submitted
}

func testEndpoints(server *httptest.Server) Endpoints {
	return Endpoints{SSO: server.URL, Login: server.URL, API: server.URL}
}

func TestLoginHappyPath(t *testing.T) {
	server, submitted := fakeUpstream(t, false)
	defer server.Close()

	auth := Authenticator{Endpoints: testEndpoints(server), Timeout: 5 * time.Second}
	session, err := auth.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "alice", submitted.User)
	assert.Equal(t, "hunter2", submitted.Password)
	assert.Equal(t, "T1", submitted.Target)

	assert.Equal(t, models.ServiceSkolplattformen, session.Service)
	assert.Equal(t, "Z", session.Scope)
	assert.NotEmpty(t, session.Cookies)

	names := make(map[string]bool)
	for _, c := range session.Cookies {
		names[c.Name] = true
	}
	assert.True(t, names["SMSESSION"])
	assert.True(t, names["session"])
}

func TestLoginBadCredentials(t *testing.T) {
	server, submitted := fakeUpstream(t, true)
	defer server.Close()

	auth := Authenticator{Endpoints: testEndpoints(server), Timeout: 5 * time.Second}
	_, err := auth.Login(context.Background(), "alice", "wrong")
	assert.True(t, appErrors.Is(err, appErrors.ErrBadCredentials))
	assert.Equal(t, "wrong", submitted.Password)
}

func TestLoginMissingScope(t *testing.T) {
	server, _ := fakeUpstream(t, false)
	defer server.Close()

	override := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ng/timetable/timetable-viewer/fns.stockholm.se/" {
			_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`))
			return
		}
		server.Config.Handler.ServeHTTP(w, r)
	}))
	defer override.Close()

	auth := Authenticator{Endpoints: testEndpoints(override), Timeout: 5 * time.Second}
	_, err := auth.Login(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrScrapingFailed))
}

func TestLoginMissingStudentButton(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer server.Close()

	auth := Authenticator{Endpoints: testEndpoints(server), Timeout: 5 * time.Second}
	_, err := auth.Login(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrScrapingFailed))
}
