package explorers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/addrscout/util/explorers"
)

const tether = "0xdAC17F958D2ee523a2206206994597C13D831ec7"

func TestGetContractName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "getsourcecode", q.Get("action"))
		assert.Equal(t, "secret", q.Get("apikey"))
		assert.Equal(t, "1", q.Get("chainid"))
		if q.Get("address") == tether {
			fmt.Fprint(w, `{"status":"1","message":"OK","result":[{"ContractName":"TetherToken","ABI":"[]"}]}`)
			return
		}
		fmt.Fprint(w, `{"status":"1","message":"OK","result":[{"ContractName":"","ABI":"Contract source code not verified"}]}`)
	}))
	defer srv.Close()

	ex := explorers.NewEtherscanLikeExplorer(srv.URL+"/", "secret", 1)

	name, err := ex.GetContractName(context.Background(), tether)
	require.NoError(t, err)
	assert.Equal(t, "TetherToken", name)

	name, err = ex.GetContractName(context.Background(), "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestGetContractNameErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"not ok status": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
		},
		"http error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>`)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			_, err := explorers.NewEtherscanLikeExplorer(srv.URL, "", 1).GetContractName(context.Background(), tether)
			assert.Error(t, err)
		})
	}
}

func TestGetAddressLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/address/" + tether:
			fmt.Fprint(w, `<html><head><title>
				Tether USD (USDT) | Etherscan
			</title></head><body></body></html>`)
		case "/address/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			fmt.Fprintf(w, `<html><head><title>%s</title></head></html>`, r.URL.Path[len("/address/"):])
		}
	}))
	defer srv.Close()
	site := explorers.NewEtherscanLikeSite(srv.URL)

	label, err := site.GetAddressLabel(context.Background(), tether)
	require.NoError(t, err)
	assert.Equal(t, "Tether USD (USDT)", label)

	label, err = site.GetAddressLabel(context.Background(), "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	require.NoError(t, err)
	assert.Equal(t, "", label)

	_, err = site.GetAddressLabel(context.Background(), "missing")
	assert.Error(t, err)
}

func TestLabelFromTitle(t *testing.T) {
	addr := "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	assert.Equal(t, "", explorers.LabelFromTitle(addr, addr))
	assert.Equal(t, "", explorers.LabelFromTitle("Address 0xab5801a7d398351b8be11c439e05c5b3259aec9b | Etherscan", addr))
	assert.Equal(t, "Uniswap V2: Router 2", explorers.LabelFromTitle("Uniswap V2: Router 2 | Etherscan", addr))
	assert.Equal(t, "", explorers.LabelFromTitle("   ", addr))
}
