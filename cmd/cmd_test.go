package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/addrscout/config"
	"github.com/tranvictor/addrscout/ui"
)

var (
	tether = ethcommon.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	eoa    = ethcommon.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
)

// run executes the root command against dataDir and returns what it
// printed.
func run(t *testing.T, dataDir string, args ...string) (*ui.RecordingUI, error) {
	t.Helper()
	rec := ui.NewRecordingUI()
	prev := newUI
	newUI = func() ui.UI { return rec }
	t.Cleanup(func() { newUI = prev })

	config.Current = config.Default()
	ScanOrigin, ScanURL, ScanForce, ShowFilter = "", "", false, ""
	ShowShort, ShowJSON = false, false

	rootCmd.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return rec, err
}

// explorerSite serves etherscan-like address pages.
func explorerSite(t *testing.T, labels map[ethcommon.Address]string) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hex := strings.TrimPrefix(r.URL.Path, "/address/")
		title := fmt.Sprintf("Address %s | Etherscan", hex)
		if label, ok := labels[ethcommon.HexToAddress(hex)]; ok {
			title = label + " | Address " + strings.ToLower(hex)[:10] + " | Etherscan"
		}
		fmt.Fprintf(w, "<html><head><title>%s</title></head><body></body></html>", title)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeResource(t *testing.T, dir string) string {
	path := filepath.Join(dir, "bundle.js")
	body := fmt.Sprintf("const TOKEN='%s';const OWNER='%s';const BAD='0x1234';", tether.Hex(), strings.ToLower(eoa.Hex()))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestScanFileShowResolveSearch(t *testing.T) {
	dataDir := t.TempDir()
	site := explorerSite(t, map[ethcommon.Address]string{tether: "TetherToken"})
	t.Setenv(config.ETHERSCAN_SITE_URL_VAR, site.URL)

	rec, err := run(t, dataDir, "scan-file", writeResource(t, t.TempDir()), "--origin", "https://App.Example.org/swap")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("2 new address(es) recorded for app.example.org"))

	rec, err = run(t, dataDir, "show", "app.example.org")
	require.NoError(t, err)
	tables := rec.Tables()
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 2)
	for _, row := range tables[0] {
		assert.Equal(t, "(unresolved)", row[2])
	}

	rec, err = run(t, dataDir, "resolve", "app.example.org")
	require.NoError(t, err)
	tables = rec.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{
		{"1", tether.Hex(), "TetherToken"},
		{"2", eoa.Hex(), "-"},
	}, tables[0])

	rec, err = run(t, dataDir, "search", "TetherToken")
	require.NoError(t, err)
	tables = rec.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, tether.Hex(), tables[0][0][0])

	rec, err = run(t, dataDir, "show", "app.example.org", "--filter", "tether")
	require.NoError(t, err)
	tables = rec.Tables()
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 1)
	assert.Equal(t, tether.Hex(), tables[0][0][1])

	rec, err = run(t, dataDir, "show", "app.example.org", "--short")
	require.NoError(t, err)
	tables = rec.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"1", "0xdAC1...1ec7", "TetherToken"}, tables[0][0])

	rec, err = run(t, dataDir, "show", "app.example.org", "--json")
	require.NoError(t, err)
	assert.Empty(t, rec.Tables())
	assert.Equal(t,
		`{"address":"`+tether.Hex()+`","name":"TetherToken"}`+"\n"+
			`{"address":"`+eoa.Hex()+`","name":""}`+"\n",
		rec.Output())

	rec, err = run(t, dataDir, "hosts")
	require.NoError(t, err)
	assert.Equal(t, [][][]string{{{"app.example.org", "2", "1"}}}, rec.Tables())
}

func TestScanFetchesResource(t *testing.T) {
	resource := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"token":"%s"}`, tether.Hex())
	}))
	defer resource.Close()
	dataDir := t.TempDir()

	rec, err := run(t, dataDir, "scan", resource.URL+"/tokens.json", "--origin", "example.org")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("1 new address(es) recorded for example.org"))

	rec, err = run(t, dataDir, "scan", resource.URL+"/page.html", "--origin", "example.org")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("use --force"))
}

func TestBadFlagsAreRejected(t *testing.T) {
	_, err := run(t, t.TempDir(), "--strategy", "telepathy", "hosts")
	assert.ErrorContains(t, err, "telepathy")

	_, err = run(t, t.TempDir(), "--store", "redis", "hosts")
	assert.ErrorContains(t, err, "redis")
}

func TestHostsWhenEmpty(t *testing.T) {
	rec, err := run(t, t.TempDir(), "--store", "badger", "hosts")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("no sites recorded"))
}

func TestVersion(t *testing.T) {
	rec, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, []string{"Version: " + VERSION}, rec.InfoMessages())
}

func TestWhois(t *testing.T) {
	dataDir := t.TempDir()
	site := explorerSite(t, map[ethcommon.Address]string{tether: "TetherToken"})
	t.Setenv(config.ETHERSCAN_SITE_URL_VAR, site.URL)

	rec, err := run(t, dataDir, "whois", "token="+strings.ToLower(tether.Hex()), eoa.Hex(), "0x1234")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		tether.Hex() + ": TetherToken",
		eoa.Hex() + ": -",
	}, rec.InfoMessages())

	rec, err = run(t, dataDir, "hosts")
	require.NoError(t, err)
	assert.Empty(t, rec.Tables())
}

func TestScanForAddresses(t *testing.T) {
	items := scanForAddresses("a " + tether.Hex() + " b 0x0000000000000000000000000000000000000000 c 0xnope")
	require.Len(t, items, 1)
	assert.Equal(t, tether, items[0].Address)
}
