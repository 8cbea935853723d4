package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-widget/internal/content"

	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestQuerySendsRequestAndParsesReply(t *testing.T) {
	var got map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, DefaultQueryPath, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"text":"hi there","thread_id":"t1"}`)
	})

	reply, err := c.Query(context.Background(), QueryRequest{Text: "hello", UserID: "user_abc"})
	require.NoError(t, err)
	require.True(t, content.Text("hi there").Equal(reply.Content))
	require.Equal(t, "t1", reply.ThreadID)
	require.Equal(t, map[string]any{"text": "hello", "userId": "user_abc", "thread_id": nil}, got)
}

func TestQuerySendsThreadID(t *testing.T) {
	var got QueryRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"text":"ok"}`)
	})

	thread := "t1"
	reply, err := c.Query(context.Background(), QueryRequest{Text: "again", UserID: "u", ThreadID: &thread})
	require.NoError(t, err)
	require.Equal(t, "", reply.ThreadID)
	require.NotNil(t, got.ThreadID)
	require.Equal(t, "t1", *got.ThreadID)
}

func TestQueryReplyShapes(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		want   content.Raw
		thread string
	}{
		{"bare string", `"just text"`, content.Text("just text"), ""},
		{"links", `{"text":[{"url":"https://a","title":"A"}]}`, content.Links(content.Link{URL: "https://a", Title: "A"}), ""},
		{"weather", `{"text":{"weather":"sunny","temperature":"70F"}}`, content.WeatherReport(content.Weather{Weather: "sunny", Temperature: "70F"}), ""},
		{"missing text", `{"thread_id":"t9"}`, content.Text(""), "t9"},
		{"numeric thread", `{"text":"x","thread_id":42}`, content.Text("x"), "42"},
		{"array body", `[1,2]`, content.Text(""), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})
			reply, err := c.Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
			require.NoError(t, err)
			require.True(t, tc.want.Equal(reply.Content), "got %#v", reply.Content)
			require.Equal(t, tc.thread, reply.ThreadID)
		})
	}
}

func TestQueryApplicationError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"quota exceeded"}`)
	})

	_, err := c.Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.Status)
	require.Equal(t, "quota exceeded", appErr.Message)
}

func TestQueryApplicationErrorWithoutMessage(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "", appErr.Message)
}

func TestQueryProtocolError(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadGateway} {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `<html>gateway</html>`)
		})

		_, err := c.Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
		var protoErr *ProtocolError
		require.ErrorAs(t, err, &protoErr)
		require.Equal(t, status, protoErr.Status)
	}
}

func TestQueryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.False(t, errors.Is(err, ErrTimeout))
}

func TestQueryTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	_, err := NewClient(srv.URL, 50*time.Millisecond).Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestClearHistory(t *testing.T) {
	var got clearRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, DefaultClearPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `not even json`)
	})

	require.NoError(t, c.ClearHistory(context.Background(), "user_abc"))
	require.Equal(t, "user_abc", got.UserID)
}

func TestClearHistoryStatus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	var appErr *ApplicationError
	require.ErrorAs(t, c.ClearHistory(context.Background(), "u"), &appErr)
	require.Equal(t, http.StatusServiceUnavailable, appErr.Status)
}

func TestWithPaths(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/ask", r.URL.Path)
		_, _ = io.WriteString(w, `"ok"`)
	})
	WithPaths("/v2/ask", "")(c)
	require.Equal(t, DefaultClearPath, c.clearPath)

	_, err := c.Query(context.Background(), QueryRequest{Text: "q", UserID: "u"})
	require.NoError(t, err)
}
