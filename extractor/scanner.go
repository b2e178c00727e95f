package extractor

import (
	"net/url"
	"strings"

	"github.com/tranvictor/addrscout/common"
)

const marker = "0x"

// Candidates returns the address-sized window starting at every "0x" in text.
// The search resumes right after each marker, not after the window, so
// overlapping windows are all reported. A window cut short by the end of the
// text is returned as is and fails validation later.
func Candidates(text string) []string {
	var result []string
	offset := 0
	for {
		idx := strings.Index(text[offset:], marker)
		if idx < 0 {
			return result
		}
		start := offset + idx
		end := min(start+common.AddressTokenLength, len(text))
		result = append(result, text[start:end])
		offset = start + 1
	}
}

// IsScannable reports whether a response URL points at a script or JSON
// resource, the only kinds of response worth scanning.
func IsScannable(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		path = rawURL[:i]
	}
	path = strings.ToLower(path)
	return strings.HasSuffix(path, ".js") || strings.HasSuffix(path, ".json")
}
