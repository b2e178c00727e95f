package explorers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type EtherscanLikeExplorer struct {
	ChainID uint64
	Domain  string
	APIKey  string
	Client  *http.Client
}

func NewEtherscanLikeExplorer(domain string, apiKey string, chainID uint64) *EtherscanLikeExplorer {
	return &EtherscanLikeExplorer{
		ChainID: chainID,
		Domain:  strings.TrimRight(domain, "/"),
		APIKey:  apiKey,
		Client:  defaultClient(),
	}
}

func (ee *EtherscanLikeExplorer) GetSourceCodeAPIURL(address string) string {
	return fmt.Sprintf(
		"%s/api?chainid=%d&module=contract&action=getsourcecode&address=%s&apikey=%s",
		ee.Domain,
		ee.ChainID,
		address,
		ee.APIKey,
	)
}

// etherscan envelope. result is a list of contracts on success and a plain
// string explaining the problem otherwise.
type sourceCodeResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type sourceCodeEntry struct {
	ContractName string `json:"ContractName"`
}

func (sr *sourceCodeResponse) IsOK() bool {
	return sr.Status == "1"
}

// GetContractName returns the verified contract name of address. Addresses
// that are not verified contracts resolve to "" with no error.
func (ee *EtherscanLikeExplorer) GetContractName(ctx context.Context, address string) (string, error) {
	url := ee.GetSourceCodeAPIURL(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := ee.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %s", ee.Domain, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	sourceResp := sourceCodeResponse{}
	if err := json.Unmarshal(body, &sourceResp); err != nil {
		return "", fmt.Errorf(
			"couldn't unmarshal %s to source code response, err: %w",
			string(body),
			err,
		)
	}
	if !sourceResp.IsOK() {
		var reason string
		if json.Unmarshal(sourceResp.Result, &reason) != nil {
			reason = string(sourceResp.Result)
		}
		return "", fmt.Errorf("error from %s: %s (%s)", ee.Domain, sourceResp.Message, reason)
	}
	entries := []sourceCodeEntry{}
	if err := json.Unmarshal(sourceResp.Result, &entries); err != nil {
		return "", fmt.Errorf("couldn't unmarshal source code result: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	return strings.TrimSpace(entries[0].ContractName), nil
}
