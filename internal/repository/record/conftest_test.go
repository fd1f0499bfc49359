package record

import "context"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getMultiFn func(ctx context.Context, keys []string) ([][]byte, error)
}

func (m *mockStore) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if m.getMultiFn != nil {
		return m.getMultiFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}
