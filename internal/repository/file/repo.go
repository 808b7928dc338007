// Package file implements file-attachment lookups over the db facade.
package file

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

// store is the consumer interface for file lookups.
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
}

// Repo implements the file lookup contract of the search use case.
type Repo struct {
	store store
}

// New creates a file repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FindByTaskIDs bulk-fetches files attached to the given tasks, grouped by
// task ID.
func (r *Repo) FindByTaskIDs(ctx context.Context, taskIDs []int64) (map[int64][]domain.File, error) {
	setKeys := make([]string, len(taskIDs))
	for i, id := range taskIDs {
		setKeys[i] = taskFilesKey(id)
	}
	files, err := r.fetchGrouped(ctx, setKeys)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]domain.File, len(taskIDs))
	for _, f := range files {
		out[f.TaskID] = append(out[f.TaskID], f)
	}
	return out, nil
}

// FindByProjectIDs bulk-fetches files attached directly to the given
// projects, grouped by project ID.
func (r *Repo) FindByProjectIDs(ctx context.Context, projectIDs []int64) (map[int64][]domain.File, error) {
	setKeys := make([]string, len(projectIDs))
	for i, id := range projectIDs {
		setKeys[i] = projectFilesKey(id)
	}
	files, err := r.fetchGrouped(ctx, setKeys)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]domain.File, len(projectIDs))
	for _, f := range files {
		out[f.ProjectID] = append(out[f.ProjectID], f)
	}
	return out, nil
}

func (r *Repo) fetchGrouped(ctx context.Context, setKeys []string) ([]domain.File, error) {
	if len(setKeys) == 0 {
		return nil, nil
	}
	sets, err := r.store.SMembersMulti(ctx, setKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: file sets: %w", domain.ErrUnavailable, err)
	}

	var fileIDs []int64
	for _, set := range sets {
		for _, s := range set {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				continue
			}
			fileIDs = append(fileIDs, id)
		}
	}
	if len(fileIDs) == 0 {
		return nil, nil
	}

	hashKeys := make([]string, len(fileIDs))
	for i, id := range fileIDs {
		hashKeys[i] = fileKey(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch files: %w", domain.ErrUnavailable, err)
	}

	files := make([]domain.File, 0, len(hashes))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		files = append(files, parseFile(fileIDs[i], h))
	}
	return files, nil
}

func taskFilesKey(taskID int64) string {
	return keyPrefix + "task:" + strconv.FormatInt(taskID, 10) + ":files"
}

func projectFilesKey(projectID int64) string {
	return keyPrefix + "project:" + strconv.FormatInt(projectID, 10) + ":files"
}

func fileKey(id int64) string {
	return keyPrefix + "file:" + strconv.FormatInt(id, 10)
}

func parseFile(id int64, h map[string]string) domain.File {
	f := domain.File{
		ID:       id,
		Filename: h["filename"],
		FileType: h["file_type"],
	}
	f.FileSize, _ = strconv.ParseInt(h["file_size"], 10, 64)
	f.TaskID, _ = strconv.ParseInt(h["task_id"], 10, 64)
	f.ProjectID, _ = strconv.ParseInt(h["project_id"], 10, 64)
	f.UploaderID, _ = strconv.ParseInt(h["uploader_id"], 10, 64)
	if v := h["uploaded_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.UploadedAt = t
		}
	}
	return f
}
