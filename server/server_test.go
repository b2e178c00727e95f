package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/addrscout/config"
	"github.com/tranvictor/addrscout/server"
	"github.com/tranvictor/addrscout/service"
)

var (
	tether = ethcommon.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	eoa    = ethcommon.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
)

type staticStrategy map[ethcommon.Address]string

func (s staticStrategy) Name() string              { return "static" }
func (s staticStrategy) RequestsPerBatch() int     { return 5 }
func (s staticStrategy) BatchDelay() time.Duration { return 0 }

func (s staticStrategy) FetchOne(ctx context.Context, addr ethcommon.Address) (string, error) {
	return s[addr], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = ""
	cfg.LRUSize = 16
	app, err := service.NewAppWithStrategy(cfg, staticStrategy{tether: "TetherToken"}, nil)
	require.NoError(t, err)
	app.Start(context.Background())

	ts := httptest.NewServer(server.New(app.Dispatcher, app.Index, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type report struct {
	Skipped    bool   `json:"skipped"`
	Origin     string `json:"origin"`
	Candidates int    `json:"candidates"`
	Added      int    `json:"added"`
}

type origin struct {
	Host  string `json:"host"`
	Items []struct {
		Address string  `json:"address"`
		Name    *string `json:"name"`
	} `json:"items"`
}

func TestResourceResolveAndSearch(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/resources", map[string]any{
		"url":    "https://app.example.org/static/main.js?v=2",
		"origin": "https://app.example.org/",
		"body":   fmt.Sprintf("const a='%s',b='%s';", tether.Hex(), strings.ToLower(eoa.Hex())),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var r report
	decode(t, resp, &r)
	assert.Equal(t, report{Origin: "app.example.org", Candidates: 2, Added: 2}, r)

	resp, err := http.Get(ts.URL + "/v1/origins/app.example.org")
	require.NoError(t, err)
	var before origin
	decode(t, resp, &before)
	require.Len(t, before.Items, 2)
	assert.Nil(t, before.Items[0].Name)

	resp = postJSON(t, ts.URL+"/v1/origins/app.example.org/resolve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after origin
	decode(t, resp, &after)
	require.Len(t, after.Items, 2)
	assert.Equal(t, tether.Hex(), after.Items[0].Address)
	require.NotNil(t, after.Items[0].Name)
	assert.Equal(t, "TetherToken", *after.Items[0].Name)
	assert.Equal(t, eoa.Hex(), after.Items[1].Address)
	require.NotNil(t, after.Items[1].Name)
	assert.Empty(t, *after.Items[1].Name)

	resp, err = http.Get(ts.URL + "/v1/names/search?q=TetherToken")
	require.NoError(t, err)
	var hits []struct {
		Address string `json:"address"`
		Desc    string `json:"desc"`
		Score   int    `json:"score"`
	}
	decode(t, resp, &hits)
	require.Len(t, hits, 1)
	assert.Equal(t, tether.Hex(), hits[0].Address)

	resp, err = http.Get(ts.URL + "/v1/origins")
	require.NoError(t, err)
	var hosts []string
	decode(t, resp, &hosts)
	assert.Equal(t, []string{"app.example.org"}, hosts)
}

func TestResourceSkipsNonScriptUnlessForced(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{
		"url":    "https://example.org/index.html",
		"origin": "example.org",
		"body":   tether.Hex(),
	}

	var r report
	decode(t, postJSON(t, ts.URL+"/v1/resources", body), &r)
	assert.True(t, r.Skipped)
	assert.Zero(t, r.Added)

	body["force"] = true
	r = report{}
	decode(t, postJSON(t, ts.URL+"/v1/resources", body), &r)
	assert.False(t, r.Skipped)
	assert.Equal(t, 1, r.Added)
}

func TestResourceWithoutOrigin(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/v1/resources", map[string]any{
		"url":  "https://example.org/a.js",
		"body": tether.Hex(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var r report
	decode(t, resp, &r)
	assert.Zero(t, r.Added)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/resources", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/v1/resources", map[string]any{"origin": "example.org"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/names/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownOriginIsEmpty(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/origins/nowhere.example")
	require.NoError(t, err)
	var o origin
	decode(t, resp, &o)
	assert.Equal(t, "nowhere.example", o.Host)
	assert.Empty(t, o.Items)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "addrscout_")
}
