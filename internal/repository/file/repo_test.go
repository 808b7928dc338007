package file

import (
	"context"
	"errors"
	"testing"

	"github.com/collabtask/collabtask/internal/domain"
)

type mockStore struct {
	hgetAllMultiFn  func(ctx context.Context, keys []string) ([]map[string]string, error)
	smembersMultiFn func(ctx context.Context, keys []string) ([][]string, error)
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) SMembersMulti(ctx context.Context, keys []string) ([][]string, error) {
	if m.smembersMultiFn != nil {
		return m.smembersMultiFn(ctx, keys)
	}
	return make([][]string, len(keys)), nil
}

func TestFindByTaskIDs(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	ms.smembersMultiFn = func(_ context.Context, keys []string) ([][]string, error) {
		if keys[0] != "collabtask:task:1:files" {
			t.Errorf("set key %q", keys[0])
		}
		return [][]string{{"200"}}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if keys[0] != "collabtask:file:200" {
			t.Errorf("hash key %q", keys[0])
		}
		return []map[string]string{
			{"filename": "mockup.png", "file_type": "image/png", "file_size": "2048", "task_id": "1"},
		}, nil
	}

	grouped, err := repo.FindByTaskIDs(context.Background(), []int64{1})
	if err != nil {
		t.Fatal(err)
	}
	files := grouped[1]
	if len(files) != 1 {
		t.Fatalf("got %+v", grouped)
	}
	f := files[0]
	if f.ID != 200 || f.Filename != "mockup.png" || f.FileSize != 2048 {
		t.Errorf("got %+v", f)
	}
}

func TestFindByProjectIDs(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	ms.smembersMultiFn = func(_ context.Context, keys []string) ([][]string, error) {
		if keys[0] != "collabtask:project:10:files" {
			t.Errorf("set key %q", keys[0])
		}
		return [][]string{{"201", "202"}}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		return []map[string]string{
			{"filename": "charter.pdf", "project_id": "10"},
			{}, // deleted file still in the index set
		}, nil
	}

	grouped, err := repo.FindByProjectIDs(context.Background(), []int64{10})
	if err != nil {
		t.Fatal(err)
	}
	if len(grouped[10]) != 1 || grouped[10][0].Filename != "charter.pdf" {
		t.Fatalf("got %+v", grouped)
	}
}

func TestFindByTaskIDsEmptyInput(t *testing.T) {
	repo := New(&mockStore{})
	grouped, err := repo.FindByTaskIDs(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(grouped) != 0 {
		t.Fatalf("got %+v", grouped)
	}
}

func TestFindByTaskIDsStorageFailure(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)
	ms.smembersMultiFn = func(context.Context, []string) ([][]string, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.FindByTaskIDs(context.Background(), []int64{1})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}
