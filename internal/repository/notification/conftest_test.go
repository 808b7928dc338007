package notification

import "context"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	saddFn         func(ctx context.Context, key string, members ...string) error
	smembersFn     func(ctx context.Context, key string) ([]string, error)
	incrFn         func(ctx context.Context, key string) (int64, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.saddFn != nil {
		return m.saddFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func newTestRepo() (*Repo, *mockStore) {
	ms := &mockStore{}
	return New(ms), ms
}
