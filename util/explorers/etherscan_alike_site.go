package explorers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) addrscout"

// EtherscanLikeSite reads names off the <title> of an explorer's address
// page. Labelled pages are titled "<label> | ..."; unlabelled ones fall back
// to a title made of the address itself.
type EtherscanLikeSite struct {
	BaseURL string
	Client  *http.Client
}

func NewEtherscanLikeSite(baseURL string) *EtherscanLikeSite {
	return &EtherscanLikeSite{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  defaultClient(),
	}
}

func (es *EtherscanLikeSite) AddressPageURL(address string) string {
	return fmt.Sprintf("%s/address/%s", es.BaseURL, address)
}

func (es *EtherscanLikeSite) GetAddressLabel(ctx context.Context, address string) (string, error) {
	url := es.AddressPageURL(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")
	resp, err := es.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %s", url, resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}
	return LabelFromTitle(doc.Find("title").First().Text(), address), nil
}

// LabelFromTitle extracts the label from an address page title. A title that
// mentions the address itself is the explorer's fallback for unlabelled
// addresses and yields "".
func LabelFromTitle(title, address string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(title), strings.ToLower(address)) {
		return ""
	}
	label, _, _ := strings.Cut(title, "|")
	return strings.TrimSpace(label)
}
