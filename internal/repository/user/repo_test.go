package user

import (
	"context"
	"errors"
	"testing"

	"github.com/collabtask/collabtask/internal/domain"
)

type mockStore struct {
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	smembersFn     func(ctx context.Context, key string) ([]string, error)
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

func seedUsers(ms *mockStore, hashes ...map[string]string) {
	ms.smembersFn = func(_ context.Context, key string) ([]string, error) {
		if key != "collabtask:users" {
			return nil, errors.New("unexpected key " + key)
		}
		ids := make([]string, len(hashes))
		for i := range hashes {
			ids[i] = hashes[i]["id"]
		}
		return ids, nil
	}
	ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
		return hashes, nil
	}
}

func TestFindByNameOrEmail(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)
	seedUsers(ms,
		map[string]string{"id": "7", "name": "Alice", "email": "alice@example.com", "active": "1"},
		map[string]string{"id": "8", "name": "Bob", "email": "bob@example.com", "active": "1"},
	)

	u, err := repo.FindByNameOrEmail(context.Background(), "bob@example.com", false)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 8 || u.Name != "Bob" {
		t.Errorf("got %+v", u)
	}

	// The match is against lowercased fields; the query arrives normalized.
	u, err = repo.FindByNameOrEmail(context.Background(), "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 7 {
		t.Errorf("got %+v", u)
	}
}

func TestFindByNameOrEmailActiveOnly(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)
	seedUsers(ms,
		map[string]string{"id": "7", "name": "Alice", "email": "alice@example.com", "active": "0"},
	)

	if _, err := repo.FindByNameOrEmail(context.Background(), "alice", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("active-only: got %v, want ErrNotFound", err)
	}

	u, err := repo.FindByNameOrEmail(context.Background(), "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if u.Active {
		t.Error("account must parse as inactive")
	}
}

func TestFindByNameOrEmailNoUsers(t *testing.T) {
	repo := New(&mockStore{})
	if _, err := repo.FindByNameOrEmail(context.Background(), "alice", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestFindByNameOrEmailStorageFailure(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)
	ms.smembersFn = func(context.Context, string) ([]string, error) {
		return nil, errors.New("connection refused")
	}

	if _, err := repo.FindByNameOrEmail(context.Background(), "alice", false); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestFindByID(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "collabtask:user:7" {
			t.Errorf("unexpected key %q", key)
		}
		return map[string]string{"name": "Alice", "email": "alice@example.com", "is_admin": "1"}, nil
	}

	u, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 7 || !u.IsAdmin || !u.Active {
		t.Errorf("got %+v", u)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	repo := New(&mockStore{})
	if _, err := repo.FindByID(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
