package server

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// documentCache keeps parsed and validated query documents keyed by the
// hash of their text. Failed validations are cached too.
type documentCache struct {
	schema *language.Schema
	lru    *lru.Cache[uint64, *document]
}

type document struct {
	query string
	doc   *language.QueryDocument
	errs  language.ErrorList
}

func newDocumentCache(sch *schema.Schema, size int) (*documentCache, error) {
	src, err := language.LoadSchema("schema.graphql", schema.Render(sch))
	if err != nil {
		return nil, fmt.Errorf("server: load schema for validation: %w", err)
	}
	c, err := lru.New[uint64, *document](size)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return &documentCache{schema: src, lru: c}, nil
}

// get returns the validated document for query.
func (c *documentCache) get(query string) (*language.QueryDocument, language.ErrorList) {
	key := xxhash.Sum64String(query)
	if d, ok := c.lru.Get(key); ok && d.query == query {
		return d.doc, d.errs
	}
	doc, errs := language.LoadQuery(c.schema, query)
	c.lru.Add(key, &document{query: query, doc: doc, errs: errs})
	return doc, errs
}
