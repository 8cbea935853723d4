package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"chat-widget/internal/config"

	"github.com/stretchr/testify/require"
)

// withHome points HOME at a temp dir and hides CHAT_WIDGET_* variables.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	prev := config.GetEnv
	config.GetEnv = func(key string) string {
		if key == "HOME" {
			return home
		}
		return ""
	}
	t.Cleanup(func() { config.GetEnv = prev })
	return home
}

type recorder struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
}

func (r *recorder) handler(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		r.mu.Lock()
		r.paths = append(r.paths, req.URL.Path)
		r.bodies = append(r.bodies, body)
		r.mu.Unlock()
		_, _ = io.WriteString(w, reply)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestWhoamiIsStable(t *testing.T) {
	home := withHome(t)

	first, _, err := execute(t, "", "whoami")
	require.NoError(t, err)
	require.Regexp(t, `^user_[0-9a-z]{13}\n$`, first)

	second, _, err := execute(t, "", "whoami")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.FileExists(t, filepath.Join(home, ".chat-widget", "identity.json"))
}

func TestWhoamiSQLiteStore(t *testing.T) {
	home := withHome(t)
	db := filepath.Join(home, "ids.db")

	first, _, err := execute(t, "", "whoami", "--identity-store", "sqlite", "--identity-path", db)
	require.NoError(t, err)
	second, _, err := execute(t, "", "whoami", "--identity-store", "sqlite", "--identity-path", db)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAskPrintsReply(t *testing.T) {
	withHome(t)
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(`{"text":"hello **there**","thread_id":"t9"}`))
	defer srv.Close()

	out, errOut, err := execute(t, "", "ask", "--base-url", srv.URL, "--identity-store", "memory", "--thread", "t1", "hi", "bot")
	require.NoError(t, err)
	require.Equal(t, "hello **there**\n", out)
	require.Contains(t, errOut, "--thread t9")

	require.Equal(t, []string{"/api/chat/query"}, rec.paths)
	require.Equal(t, "hi bot", rec.bodies[0]["text"])
	require.Equal(t, "t1", rec.bodies[0]["thread_id"])
	require.Regexp(t, `^user_`, rec.bodies[0]["userId"])
}

func TestAskReadsStdin(t *testing.T) {
	withHome(t)
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(`"piped"`))
	defer srv.Close()

	out, _, err := execute(t, "from stdin\n", "ask", "--base-url", srv.URL, "--identity-store", "memory")
	require.NoError(t, err)
	require.Equal(t, "piped\n", out)
	require.Equal(t, "from stdin", rec.bodies[0]["text"])
	require.Nil(t, rec.bodies[0]["thread_id"])
}

func TestAskEmptyReplyFallback(t *testing.T) {
	withHome(t)
	srv := httptest.NewServer((&recorder{}).handler(`{}`))
	defer srv.Close()

	out, _, err := execute(t, "", "ask", "--base-url", srv.URL, "--identity-store", "memory", "hi")
	require.NoError(t, err)
	require.Contains(t, out, "couldn't get a response")
}

func TestAskReportsBackendError(t *testing.T) {
	withHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model offline"}`)
	}))
	defer srv.Close()

	_, _, err := execute(t, "", "ask", "--base-url", srv.URL, "--identity-store", "memory", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model offline")
}

func TestAskRejectsBlankInput(t *testing.T) {
	withHome(t)
	_, _, err := execute(t, "   \n", "ask", "--identity-store", "memory")
	require.Error(t, err)
}

func TestClearSendsIdentity(t *testing.T) {
	withHome(t)
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(`{}`))
	defer srv.Close()

	_, errOut, err := execute(t, "", "clear", "--base-url", srv.URL)
	require.NoError(t, err)
	require.Contains(t, errOut, "Chat history cleared")
	require.Equal(t, []string{"/api/clearChatHistory"}, rec.paths)
	require.Regexp(t, `^user_`, rec.bodies[0]["userId"])
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	home := withHome(t)
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(`{"text":"ok"}`))
	defer srv.Close()

	cfgPath := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("base_url: http://127.0.0.1:1\nquery_path: /q\nidentity_store: memory\n"), 0o644))

	_, _, err := execute(t, "", "ask", "--config", cfgPath, "--base-url", srv.URL, "hi")
	require.NoError(t, err)
	require.Equal(t, []string{"/q"}, rec.paths)
}

func TestInvalidConfig(t *testing.T) {
	withHome(t)
	_, _, err := execute(t, "", "whoami", "--identity-store", "cloud")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid configuration")
}

func TestMissingExplicitConfig(t *testing.T) {
	home := withHome(t)
	_, _, err := execute(t, "", "whoami", "--config", filepath.Join(home, "nope.yaml"))
	require.Error(t, err)
}

func TestAskHTMLFormatEscapesReply(t *testing.T) {
	withHome(t)
	srv := httptest.NewServer((&recorder{}).handler(`{"text":"<img src=x onerror=alert(1)> **hi** www.example.com"}`))
	defer srv.Close()

	out, _, err := execute(t, "", "ask", "--base-url", srv.URL, "--identity-store", "memory", "--format", "html", "hi")
	require.NoError(t, err)
	require.NotContains(t, out, "<img")
	require.Contains(t, out, "&lt;img")
	require.Contains(t, out, "<strong>hi</strong>")
	require.Contains(t, out, `href="http://www.example.com"`)
}

func TestAskStripsEscapeSequences(t *testing.T) {
	withHome(t)
	srv := httptest.NewServer((&recorder{}).handler(`{"text":"hi \u001b]0;pwned\u0007there"}`))
	defer srv.Close()

	for _, format := range []string{"auto", "markdown", "terminal"} {
		out, _, err := execute(t, "", "ask", "--base-url", srv.URL, "--identity-store", "memory", "--format", format, "hi")
		require.NoError(t, err)
		require.NotContains(t, out, "\x1b]0;")
		require.NotContains(t, out, "pwned")
	}
}

func TestAskRejectsUnknownFormat(t *testing.T) {
	withHome(t)
	_, _, err := execute(t, "", "ask", "--identity-store", "memory", "--format", "pdf", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown format")
}
