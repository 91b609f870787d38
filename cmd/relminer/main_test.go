package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/entities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entities":[{"id":"e1","name":"Alice","domain":"Physics","relationships":[]}]}`))
	})
	mux.HandleFunc("GET /api/entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.PathValue("id") {
		case "e1":
			w.Write([]byte(`{"id":"e1","name":"Alice","domain":"Physics","relationships":[{"target_id":"e2","relationship_type":"同事","relationship_description":"同一实验室"}]}`))
		case "e2":
			w.Write([]byte(`{"id":"e2","name":"Bob","domain":"Chemistry","relationships":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"实体不存在"}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"relminer"}, args...))
	return out.String(), err
}

func TestEntitiesList(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "--api-url", srv.URL, "entities", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Physics")
}

func TestGraphJSON(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "--api-url", srv.URL, "--json", "graph", "-e", "e1", "-e", "e2")
	require.NoError(t, err)

	var r graph.Render
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	g := r.Graph()
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "e1", g.Nodes[0].ID)
	assert.Equal(t, "e2", g.Nodes[1].ID)
	require.Len(t, g.Links, 1)
	assert.Equal(t, "同事", g.Links[0].Type)
}

func TestGraphText(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "--api-url", srv.URL, "graph", "-e", "e1", "-e", "e2")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "同事")
}

func TestGraphErrors(t *testing.T) {
	srv := newBackend(t)

	_, err := run(t, "--api-url", srv.URL, "graph", "-e", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	_, err = run(t, "--api-url", srv.URL, "graph", "-e", "e1", "--format", "svg")
	require.Error(t, err)
}

func TestUploadRequiresFile(t *testing.T) {
	_, err := run(t, "upload")
	require.Error(t, err)
}

func TestBackendFromConfigFile(t *testing.T) {
	srv := newBackend(t)
	path := filepath.Join(t.TempDir(), "relminer.toml")
	require.NoError(t, os.WriteFile(path, []byte(`api_base_url = "`+srv.URL+`"`), 0o600))
	t.Setenv("RELMINER_API_BASE_URL", "")

	out, err := run(t, "--config", path, "entities", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
}

func TestBackendFromEnvironment(t *testing.T) {
	srv := newBackend(t)
	t.Setenv("RELMINER_API_BASE_URL", srv.URL)

	out, err := run(t, "entities", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
}

type settings struct {
	url      string
	timeout  time.Duration
	interval time.Duration
}

// readSettings runs args against an app with an extra command that records
// the resolved connection settings.
func readSettings(t *testing.T, args ...string) settings {
	t.Helper()
	var got settings
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.Commands = append(app.Commands, &cli.Command{
		Name: "settings",
		Action: func(c *cli.Context) error {
			got = settings{url: apiURL(c), timeout: requestTimeout(c), interval: pollInterval(c)}
			return nil
		},
	})
	require.NoError(t, app.Run(append(append([]string{"relminer"}, args...), "settings")))
	return got
}

func TestSettingsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relminer.toml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval = \"3s\"\nrequest_timeout = \"20s\"\n"), 0o600))
	t.Setenv("RELMINER_POLL_INTERVAL", "")
	t.Setenv("RELMINER_REQUEST_TIMEOUT", "1500")

	got := readSettings(t, "--config", path, "--api-url", "http://flag:1")
	assert.Equal(t, "http://flag:1", got.url)
	assert.Equal(t, 1500*time.Millisecond, got.timeout, "environment wins over the file")
	assert.Equal(t, 3*time.Second, got.interval)

	got = readSettings(t, "--config", path, "--poll-interval", "250ms")
	assert.Equal(t, 250*time.Millisecond, got.interval, "flags win over the configuration")
}

func TestInvalidConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "entities", "list")
	require.Error(t, err)
}
