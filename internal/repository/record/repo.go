package record

import (
	"context"
	"fmt"

	domrec "github.com/kailas-cloud/esquery/internal/domain/record"
)

// DefaultKeyPrefix namespaces record keys.
const DefaultKeyPrefix = "esquery:record:"

// store is the consumer interface for records (ISP).
type store interface {
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
}

// Repo implements usecase/search.RecordLoader on a key-value store.
type Repo struct {
	store  store
	prefix string
}

// New creates a record repository. An empty prefix selects DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// LoadByIDs returns records for ids in the same order. Ids without a stored
// record are dropped.
func (r *Repo) LoadByIDs(ctx context.Context, docType string, ids []string) ([]domrec.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(docType, id)
	}

	raws, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d %s records: %w", len(ids), docType, err)
	}

	out := make([]domrec.Record, 0, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		rec, err := decodeRecord(ids[i], docType, raw)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repo) key(docType, id string) string {
	return r.prefix + docType + ":" + id
}
