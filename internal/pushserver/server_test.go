package pushserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flipdot/driver/internal/config"
	"github.com/flipdot/driver/internal/frame"
	"github.com/flipdot/driver/internal/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, logiface.LevelDebug)
}

type fakeInspector struct {
	hasContent bool
	currentID  string
}

func (f fakeInspector) HasContent() bool { return f.hasContent }
func (f fakeInspector) CurrentID() string { return f.currentID }

func validContent(id string) *frame.Content {
	return &frame.Content{
		ContentID: id,
		Frames:    []frame.Frame{{Data: []byte{0x00}, Width: 8, Height: 1}},
		Playback:  frame.PlaybackMode{Priority: 5, Interruptible: true},
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.Log == nil {
		opts.Log = testLogger()
	}
	if opts.DisplayWidth == 0 {
		opts.DisplayWidth = 8
	}
	if opts.DisplayHeight == 0 {
		opts.DisplayHeight = 1
	}
	if opts.OnPush == nil {
		opts.OnPush = func(*frame.Content) {}
	}
	s := New(opts)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return s, hs
}

func TestHealthEndpoint(t *testing.T) {
	_, hs := newTestServer(t, Options{Queue: fakeInspector{hasContent: true, currentID: "c1"}})

	resp, err := http.Get(hs.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	require.NotNil(t, body.HasContent)
	assert.True(t, *body.HasContent)
	assert.Equal(t, "c1", body.CurrentID)
}

func TestPushAccepted(t *testing.T) {
	var pushed *frame.Content
	_, hs := newTestServer(t, Options{
		OnPush: func(c *frame.Content) { pushed = c },
	})

	b, err := json.Marshal(validContent("c1"))
	require.NoError(t, err)

	resp, err := http.Post(hs.URL+"/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, pushed)
	assert.Equal(t, "c1", pushed.ContentID)
}

func TestPushUnauthorized(t *testing.T) {
	_, hs := newTestServer(t, Options{
		Auth: config.Auth{Type: config.AuthBearer, Token: "secret"},
	})

	b, _ := json.Marshal(validContent("c1"))
	resp, err := http.Post(hs.URL+"/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPushAuthorizedBearer(t *testing.T) {
	_, hs := newTestServer(t, Options{
		Auth: config.Auth{Type: config.AuthBearer, Token: "secret"},
	})

	b, _ := json.Marshal(validContent("c1"))
	req, err := http.NewRequest(http.MethodPost, hs.URL+"/", bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPushMalformedBody(t *testing.T) {
	_, hs := newTestServer(t, Options{})
	resp, err := http.Post(hs.URL+"/", "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPushInvalidContentRejected(t *testing.T) {
	_, hs := newTestServer(t, Options{})
	c := validContent("")
	b, _ := json.Marshal(c)
	resp, err := http.Post(hs.URL+"/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPushDimensionMismatchRejected(t *testing.T) {
	_, hs := newTestServer(t, Options{DisplayWidth: 56, DisplayHeight: 14})
	b, _ := json.Marshal(validContent("c1")) // 8x1, panel is 56x14
	resp, err := http.Post(hs.URL+"/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Error)
}

func TestPushRequestTooLarge(t *testing.T) {
	_, hs := newTestServer(t, Options{MaxRequestSize: 10})
	b, _ := json.Marshal(validContent("c1"))
	resp, err := http.Post(hs.URL+"/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
