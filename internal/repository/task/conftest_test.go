package task

import "context"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllFn       func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn  func(ctx context.Context, keys []string) ([]map[string]string, error)
	smembersFn      func(ctx context.Context, key string) ([]string, error)
	smembersMultiFn func(ctx context.Context, keys []string) ([][]string, error)
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

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) SMembersMulti(ctx context.Context, keys []string) ([][]string, error) {
	if m.smembersMultiFn != nil {
		return m.smembersMultiFn(ctx, keys)
	}
	return make([][]string, len(keys)), nil
}

func newTestRepo() (*Repo, *mockStore) {
	ms := &mockStore{}
	return New(ms), ms
}
