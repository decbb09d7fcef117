package reports

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// OperationCache remembers whether an operation body parses as a GraphQL
// document. Entries are bounded by count and expire after a TTL.
type OperationCache struct {
	entries *expirable.LRU[uint64, bool]
}

func NewOperationCache(size int, ttl time.Duration) *OperationCache {
	return &OperationCache{
		entries: expirable.NewLRU[uint64, bool](size, nil, ttl),
	}
}

// IsValid parses operation on a cache miss.
func (c *OperationCache) IsValid(operation string) bool {
	key := xxhash.Sum64String(operation)
	if valid, ok := c.entries.Get(key); ok {
		metricOperationCacheTotal.WithLabelValues("hit").Inc()
		return valid
	}
	metricOperationCacheTotal.WithLabelValues("miss").Inc()

	valid := parses(operation)
	c.entries.Add(key, valid)
	return valid
}

func (c *OperationCache) Len() int {
	return c.entries.Len()
}

func parses(operation string) bool {
	doc, err := parser.ParseQuery(&ast.Source{Input: operation})
	if err != nil {
		return false
	}
	return len(doc.Operations) > 0
}
