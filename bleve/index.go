package bleve

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/util/logging"
)

const maxHits = 10

type AddressDesc struct {
	Address string `json:"address"`
	Desc    string `json:"desc"`
}

// NameIndex is a full-text index over resolved contract names, keyed by
// checksum address.
type NameIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *zap.Logger
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName

	addressFieldMapping := bleve.NewTextFieldMapping()
	addressFieldMapping.Analyzer = keyword.Name

	defaultMapping := bleve.NewDocumentMapping()
	defaultMapping.AddFieldMappingsAt("desc", textFieldMapping)
	defaultMapping.AddFieldMappingsAt("address", addressFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", defaultMapping)

	indexMapping.TypeField = "type"
	indexMapping.DefaultAnalyzer = "en"

	return indexMapping
}

// Open opens the index at path, creating it when nothing is there yet.
func Open(path string, logger *zap.Logger) (*NameIndex, error) {
	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening name index at %s: %w", path, err)
	}
	return &NameIndex{index: index, logger: logging.OrNop(logger)}, nil
}

func NewMemOnly(logger *zap.Logger) (*NameIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating in-memory name index: %w", err)
	}
	return &NameIndex{index: index, logger: logging.OrNop(logger)}, nil
}

// IndexName records name for addr. Empty names are skipped since there is
// nothing to search for.
func (ni *NameIndex) IndexName(addr ethcommon.Address, name string) error {
	if name == "" {
		return nil
	}
	ni.mu.Lock()
	defer ni.mu.Unlock()
	id := addr.Hex()
	return ni.index.Index(id, AddressDesc{Address: id, Desc: name})
}

// Search runs a phrase match or'ed with a fuzzy match on the query and
// returns the hits along with their scores scaled to integers.
func (ni *NameIndex) Search(input string) ([]AddressDesc, []int) {
	matchQuery := bleve.NewMatchPhraseQuery(input)
	fuzzyQuery := bleve.NewFuzzyQuery(input)
	fuzzyQuery.Fuzziness = 1
	query := bleve.NewDisjunctionQuery(matchQuery, fuzzyQuery)
	request := bleve.NewSearchRequestOptions(query, maxHits, 0, false)
	request.Fields = []string{"address", "desc"}

	ni.mu.RLock()
	searchResults, err := ni.index.Search(request)
	ni.mu.RUnlock()
	if err != nil {
		ni.logger.Warn("name search failed", zap.String("query", input), zap.Error(err))
		return []AddressDesc{}, []int{}
	}

	results := []AddressDesc{}
	resultScores := []int{}
	for _, hit := range searchResults.Hits {
		address, _ := hit.Fields["address"].(string)
		desc, _ := hit.Fields["desc"].(string)
		if address == "" {
			address = hit.ID
		}
		resultScores = append(resultScores, int(hit.Score*1000000))
		results = append(results, AddressDesc{
			Address: address,
			Desc:    desc,
		})
	}
	return results, resultScores
}

func (ni *NameIndex) Count() (uint64, error) {
	ni.mu.RLock()
	defer ni.mu.RUnlock()
	return ni.index.DocCount()
}

func (ni *NameIndex) Close() error {
	ni.mu.Lock()
	defer ni.mu.Unlock()
	return ni.index.Close()
}
