package db

import "context"

// Backend is a search engine connection. Handle swaps implementations of it
// at runtime, so every method must be safe for concurrent use.
type Backend interface {
	Pinger
	Searcher
	Close()
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher executes compiled search requests.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Count(ctx context.Context, req *SearchRequest) (int64, error)
}

// KVStore provides the key-value reads the record loader needs.
type KVStore interface {
	// GetMulti returns one entry per key in key order; absent keys yield nil.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
}
