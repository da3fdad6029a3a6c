package skolplattformen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	session := &models.Session{Service: models.ServiceSkolplattformen, Scope: "Z"}
	client, err := NewClient(session, testEndpoints(server), 5*time.Second, nil)
	require.NoError(t, err)
	return client
}

func TestListTimetables(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ng/api/services/skola24/get/personal/timetables", r.URL.Path)
		assert.Equal(t, "Z", r.Header.Get("X-Scope"))

		var body map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "fns.stockholm.se", body["getPersonalTimetablesRequest"]["hostName"])

		_, _ = w.Write([]byte(`{"data":{"getPersonalTimetablesResponse":{"studentTimetables":[
			{"schoolGuid":"sg","unitGuid":"ug","schoolID":"sid","timetableID":"tid","personGuid":"pg","firstName":"Alice","lastName":"A"}
		]}},"validation":[]}`))
	}))
	defer server.Close()

	timetables, err := testClient(t, server).ListTimetables(context.Background())
	require.NoError(t, err)
	require.Len(t, timetables, 1)
	assert.Equal(t, "ug", timetables[0].UnitGUID)
	assert.Equal(t, "pg", timetables[0].PersonGUID)
	assert.Equal(t, "Alice", timetables[0].FirstName)
}

func TestListTimetablesAbsentList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"getPersonalTimetablesResponse":{}},"validation":[]}`))
	}))
	defer server.Close()

	timetables, err := testClient(t, server).ListTimetables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, timetables)
	assert.NotNil(t, timetables)
}

func TestValidationErrorsSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"validation":[{"message":"invalid host"}]}`))
	}))
	defer server.Close()

	_, err := testClient(t, server).ListTimetables(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrScrapingFailed))
}

func TestAvailableFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ng/api/get/timetable/selection", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ug", body["unitGuid"])

		_, _ = w.Write([]byte(`{"data":{
			"classes":[{"groupGuid":"cg","groupName":"8B"}],
			"students":[{"personGuid":"p1"},{"personGuid":"p2"}]
		},"validation":[]}`))
	}))
	defer server.Close()

	filters, err := testClient(t, server).AvailableFilters(context.Background(), "ug")
	require.NoError(t, err)
	require.Len(t, filters.Classes, 1)
	assert.Equal(t, "8B", filters.Classes[0].GroupName)
	assert.Len(t, filters.Students, 2)
}

func TestLessonsByWeek(t *testing.T) {
	var sawKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ng/api/get/timetable/render/key":
			_, _ = w.Write([]byte(`{"data":{"key":"render-key-1"},"validation":[]}`))
		case "/ng/api/render/timetable":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			sawKey = body["renderKey"].(string)
			assert.Equal(t, "ug", body["unitGuid"])
			assert.Equal(t, float64(732), body["width"])
			assert.Equal(t, float64(550), body["height"])
			assert.Equal(t, float64(5), body["selectionType"])
			assert.Equal(t, "pg", body["selection"])
			assert.Equal(t, float64(10), body["week"])
			assert.Equal(t, float64(2024), body["year"])

			_, _ = w.Write([]byte(`{"data":{
				"lessonInfo":[{"guidId":"L1","texts":["Math","Mr A","R12"],"timeStart":"08:00","timeEnd":"08:45","dayOfWeekNumber":1}],
				"boxList":[{"bColor":"#abcdef","lessonGuids":["L1"]}]
			},"validation":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	week, err := models.NewWeek(2024, 10)
	require.NoError(t, err)

	lessons, err := testClient(t, server).LessonsByWeek(context.Background(), "ug", StudentSelection("pg"), week)
	require.NoError(t, err)
	assert.Equal(t, "render-key-1", sawKey)
	require.Len(t, lessons, 1)
	assert.Equal(t, uuid.NewSHA1(lessonNamespace, []byte("L1")), lessons[0].ID)
	assert.Equal(t, "2024-03-04T07:00:00Z", lessons[0].Start.Format(time.RFC3339))
	assert.Equal(t, "2024-03-04T07:45:00Z", lessons[0].End.Format(time.RFC3339))
}

func TestTransportErrorRetriedOnce(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Kill the connection mid-response to force a transport error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"data":{"getPersonalTimetablesResponse":{}},"validation":[]}`))
	}))
	defer server.Close()

	timetables, err := testClient(t, server).ListTimetables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, timetables)
	assert.Equal(t, 2, calls)
}
