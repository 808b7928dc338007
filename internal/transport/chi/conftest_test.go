package chi

import (
	"context"

	"go.uber.org/zap"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/realtime"
	accessuc "github.com/collabtask/collabtask/internal/usecase/access"
	notifyuc "github.com/collabtask/collabtask/internal/usecase/notify"
	searchuc "github.com/collabtask/collabtask/internal/usecase/search"
)

// fixture assembles the real use case services over in-memory data, so
// transport tests exercise the full stack below the router.
type fixture struct {
	tasks         []domain.Task
	projects      []domain.Project
	comments      map[int64][]domain.Comment
	taskFiles     map[int64][]domain.File
	projectFiles  map[int64][]domain.File
	users         map[int64]domain.User
	sessions      map[string]int64
	notifications map[int64]*domain.Notification
	memberships   map[[2]int64]bool // [projectID, userID]

	storeErr error // storage failure injected into every lister

	registry    *realtime.Registry
	broadcaster *realtime.Broadcaster
	search      *searchuc.Service
	notify      *notifyuc.Service
	access      *accessuc.Service
}

func newFixture() *fixture {
	f := &fixture{
		comments:      map[int64][]domain.Comment{},
		taskFiles:     map[int64][]domain.File{},
		projectFiles:  map[int64][]domain.File{},
		users:         map[int64]domain.User{},
		sessions:      map[string]int64{},
		notifications: map[int64]*domain.Notification{},
		memberships:   map[[2]int64]bool{},
	}
	f.registry = realtime.NewRegistry()
	f.broadcaster = realtime.NewBroadcaster(f.registry, zap.NewNop())
	f.access = accessuc.New(taskData{f}, projectData{f})
	f.search = searchuc.New(f.access, commentData{f}, fileData{f}, userData{f})
	f.notify = notifyuc.New(noteData{f}, f.broadcaster, zap.NewNop())
	return f
}

func (f *fixture) Ping(_ context.Context) error { return f.storeErr }

type taskData struct{ f *fixture }

func (d taskData) FindAccessibleByUser(_ context.Context, _ int64) ([]domain.Task, error) {
	return d.f.tasks, d.f.storeErr
}

func (d taskData) FindByID(_ context.Context, id int64) (domain.Task, error) {
	for _, t := range d.f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, domain.ErrNotFound
}

type projectData struct{ f *fixture }

func (d projectData) FindAccessibleByUser(_ context.Context, _ int64) ([]domain.Project, error) {
	return d.f.projects, d.f.storeErr
}

func (d projectData) HasMember(_ context.Context, projectID, userID int64) (bool, error) {
	return d.f.memberships[[2]int64{projectID, userID}], d.f.storeErr
}

type commentData struct{ f *fixture }

func (d commentData) FindByTaskIDs(_ context.Context, _ []int64) (map[int64][]domain.Comment, error) {
	return d.f.comments, nil
}

type fileData struct{ f *fixture }

func (d fileData) FindByTaskIDs(_ context.Context, _ []int64) (map[int64][]domain.File, error) {
	return d.f.taskFiles, nil
}

func (d fileData) FindByProjectIDs(_ context.Context, _ []int64) (map[int64][]domain.File, error) {
	return d.f.projectFiles, nil
}

type userData struct{ f *fixture }

func (d userData) FindByNameOrEmail(_ context.Context, q string, activeOnly bool) (domain.User, error) {
	for _, u := range d.f.users {
		if activeOnly && !u.Active {
			continue
		}
		if u.Email == q || u.Name == q {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (d userData) FindByID(_ context.Context, id int64) (domain.User, error) {
	if u, ok := d.f.users[id]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrNotFound
}

type sessionData struct{ f *fixture }

func (d sessionData) Resolve(_ context.Context, token string) (int64, error) {
	if d.f.storeErr != nil {
		return 0, d.f.storeErr
	}
	if id, ok := d.f.sessions[token]; ok {
		return id, nil
	}
	return 0, domain.ErrUnauthenticated
}

type noteData struct{ f *fixture }

func (d noteData) Create(_ context.Context, n *domain.Notification) error {
	n.ID = int64(len(d.f.notifications) + 1)
	cp := *n
	d.f.notifications[n.ID] = &cp
	return nil
}

func (d noteData) FindByID(_ context.Context, id int64) (domain.Notification, error) {
	if n, ok := d.f.notifications[id]; ok {
		return *n, nil
	}
	return domain.Notification{}, domain.ErrNotFound
}

func (d noteData) MarkRead(_ context.Context, id int64) error {
	if n, ok := d.f.notifications[id]; ok {
		n.Read = true
	}
	return nil
}

func (d noteData) UnreadCount(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range d.f.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}
