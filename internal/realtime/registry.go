package realtime

import "sync"

// shardCount splits the registry maps so broadcasts on unrelated projects
// and unrelated connection lifecycles do not serialize on one lock.
const shardCount = 16

// Registry maps live connections by user and by watched project. It is an
// explicitly owned instance, constructed once at process start and injected
// wherever needed; there is no package-level state. Entries live from
// connection open to connection close and are never persisted.
type Registry struct {
	users    [shardCount]userShard
	projects [shardCount]projectShard
}

type userShard struct {
	mu    sync.RWMutex
	conns map[int64]*Conn
}

type projectShard struct {
	mu       sync.RWMutex
	watchers map[int64]map[*Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.users {
		r.users[i].conns = make(map[int64]*Conn)
	}
	for i := range r.projects {
		r.projects[i].watchers = make(map[int64]map[*Conn]struct{})
	}
	return r
}

func shardIndex(id int64) int {
	return int(uint64(id) % shardCount)
}

// Register records the user's live connection. A previous connection for
// the same user is closed and replaced.
func (r *Registry) Register(userID int64, c *Conn) {
	s := &r.users[shardIndex(userID)]
	s.mu.Lock()
	prev := s.conns[userID]
	s.conns[userID] = c
	s.mu.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
}

// Unregister removes the user's connection, but only if it is still the
// one given; a reconnect that already replaced it is left alone.
func (r *Registry) Unregister(userID int64, c *Conn) {
	s := &r.users[shardIndex(userID)]
	s.mu.Lock()
	if s.conns[userID] == c {
		delete(s.conns, userID)
	}
	s.mu.Unlock()
}

// Lookup returns the user's live connection, or nil.
func (r *Registry) Lookup(userID int64) *Conn {
	s := &r.users[shardIndex(userID)]
	s.mu.RLock()
	c := s.conns[userID]
	s.mu.RUnlock()
	return c
}

// Watch adds a connection to a project's watcher set.
func (r *Registry) Watch(projectID int64, c *Conn) {
	s := &r.projects[shardIndex(projectID)]
	s.mu.Lock()
	set := s.watchers[projectID]
	if set == nil {
		set = make(map[*Conn]struct{})
		s.watchers[projectID] = set
	}
	set[c] = struct{}{}
	s.mu.Unlock()
}

// Unwatch removes a connection from a project's watcher set, dropping the
// set entirely once empty.
func (r *Registry) Unwatch(projectID int64, c *Conn) {
	s := &r.projects[shardIndex(projectID)]
	s.mu.Lock()
	if set := s.watchers[projectID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(s.watchers, projectID)
		}
	}
	s.mu.Unlock()
}

// Watchers returns a snapshot of the project's watcher set. The snapshot is
// safe to iterate while connections come and go.
func (r *Registry) Watchers(projectID int64) []*Conn {
	s := &r.projects[shardIndex(projectID)]
	s.mu.RLock()
	set := s.watchers[projectID]
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	s.mu.RUnlock()
	return out
}
