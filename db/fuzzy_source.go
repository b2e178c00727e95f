package db

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tranvictor/addrscout/common"
)

const maxMatches = 10

// FuzzySource exposes an origin's address list to the fuzzy matcher. Each
// entry is matched as name_address, with spaces in the name turned into
// underscores.
type FuzzySource []common.AddressItem

func (self FuzzySource) Len() int {
	return len(self)
}

func (self FuzzySource) String(i int) string {
	return fmt.Sprintf("%s_%s", strings.Replace(self[i].NameOrEmpty(), " ", "_", -1), self[i].Address.Hex())
}

// Filter ranks items against input and keeps the best ten. An empty input
// returns items unchanged.
func Filter(items []common.AddressItem, input string) ([]common.AddressItem, []int) {
	if strings.TrimSpace(input) == "" {
		return items, nil
	}
	source := FuzzySource(items)
	matches := fuzzy.FindFrom(strings.Replace(input, " ", "_", -1), source)
	result := []common.AddressItem{}
	scores := []int{}
	for i := 0; i < maxMatches && i < len(matches); i++ {
		result = append(result, source[matches[i].Index])
		scores = append(scores, matches[i].Score)
	}
	return result, scores
}
