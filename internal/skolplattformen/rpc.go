package skolplattformen

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/akeamc/skool/pkg/errors"
)

// responseWrapper is the envelope every Skola24 RPC answers with. A non-empty
// validation list means the request was rejected upstream.
type responseWrapper struct {
	Data       json.RawMessage   `json:"data"`
	Validation []json.RawMessage `json:"validation"`
}

// Timetable identifies one of a student's personal timetables.
type Timetable struct {
	SchoolGUID  string `json:"schoolGuid"`
	UnitGUID    string `json:"unitGuid"`
	SchoolID    string `json:"schoolID"`
	TimetableID string `json:"timetableID"`
	PersonGUID  string `json:"personGuid"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// ClassFilter is a class offered by a school unit's selection endpoint.
type ClassFilter struct {
	GroupGUID string `json:"groupGuid"`
	GroupName string `json:"groupName"`
}

// StudentFilter is a student offered by a school unit's selection endpoint.
type StudentFilter struct {
	PersonGUID string `json:"personGuid"`
}

// Filters is the set of render targets a school unit exposes.
type Filters struct {
	Classes  []ClassFilter   `json:"classes"`
	Students []StudentFilter `json:"students"`
}

// Selection names what a timetable render should cover: a class or a single
// student.
type Selection struct {
	guid string
	kind int
}

// ClassSelection renders a whole class by its group GUID.
func ClassSelection(groupGUID string) Selection {
	return Selection{guid: groupGUID, kind: 0}
}

// StudentSelection renders a single student by person GUID.
func StudentSelection(personGUID string) Selection {
	return Selection{guid: personGUID, kind: 5}
}

// post sends one RPC and decodes the envelope. Transport errors are retried
// once; the upstream tears down idle connections aggressively and the retry
// rides a fresh one.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(`"` + b + `"`)
	default:
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
	}

	res, err := c.do(ctx, path, payload)
	if err != nil {
		c.logger.Debug("rpc transport error, retrying once", zap.String("path", path), zap.Error(err))
		res, err = c.do(ctx, path, payload)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		c.logger.Warn("rpc returned non-200", zap.String("path", path), zap.Int("status", res.StatusCode))
		return appErrors.ErrUpstreamHTTP
	}

	var wrapper responseWrapper
	if err := json.NewDecoder(res.Body).Decode(&wrapper); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}
	if len(wrapper.Validation) > 0 {
		c.logger.Warn("rpc validation error", zap.String("path", path), zap.Int("count", len(wrapper.Validation)))
		return appErrors.ScrapingFailed("skola24 validation error")
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamHTTP.Code, appErrors.ErrUpstreamHTTP.Status, appErrors.ErrUpstreamHTTP.Message)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.API+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Scope", c.scope)

	return c.http.Do(req)
}

// ListTimetables returns the personal timetables visible to the session. An
// absent list upstream means the student has none.
func (c *Client) ListTimetables(ctx context.Context) ([]Timetable, error) {
	body := map[string]any{
		"getPersonalTimetablesRequest": map[string]any{
			"hostName": upstreamHost,
		},
	}

	var data struct {
		GetPersonalTimetablesResponse struct {
			StudentTimetables []Timetable `json:"studentTimetables"`
		} `json:"getPersonalTimetablesResponse"`
	}
	if err := c.post(ctx, "/ng/api/services/skola24/get/personal/timetables", body, &data); err != nil {
		return nil, err
	}

	timetables := data.GetPersonalTimetablesResponse.StudentTimetables
	if timetables == nil {
		timetables = []Timetable{}
	}
	return timetables, nil
}

// AvailableFilters lists the classes and students a school unit exposes as
// render targets.
func (c *Client) AvailableFilters(ctx context.Context, unitGUID string) (*Filters, error) {
	body := map[string]any{
		"hostName": upstreamHost,
		"unitGuid": unitGUID,
		"filters": map[string]bool{
			"class":           true,
			"course":          true,
			"group":           true,
			"period":          true,
			"room":            true,
			"student":         true,
			"subject":         true,
			"teacher":         true,
			"timetableViewer": true,
		},
	}

	var filters Filters
	if err := c.post(ctx, "/ng/api/get/timetable/selection", body, &filters); err != nil {
		return nil, err
	}
	return &filters, nil
}

// renderKey fetches a single-use key for a timetable render.
func (c *Client) renderKey(ctx context.Context) (string, error) {
	var data struct {
		Key string `json:"key"`
	}
	if err := c.post(ctx, "/ng/api/get/timetable/render/key", "", &data); err != nil {
		return "", err
	}
	return data.Key, nil
}
