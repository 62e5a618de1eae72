package services

import (
	"sort"
	"sync"

	"github.com/km-arc/armature/framework/metadata"
)

// Task is one tracked item.
type Task struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// TaskService keeps tasks in memory, keyed by id. Safe for concurrent
// use by request handlers.
type TaskService struct {
	mu     sync.RWMutex
	nextID int
	tasks  map[int]Task
}

func NewTaskService() *TaskService {
	return &TaskService{nextID: 1, tasks: map[int]Task{}}
}

// List returns all tasks ordered by id.
func (s *TaskService) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Find returns the task with the given id.
func (s *TaskService) Find(id int) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Create stores a new task and returns it with its assigned id.
func (s *TaskService) Create(name string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{ID: s.nextID, Name: name}
	s.tasks[t.ID] = t
	s.nextID++
	return t
}

// Complete marks a task done.
func (s *TaskService) Complete(id int) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	t.Done = true
	s.tasks[id] = t
	return t, true
}

// Delete removes a task, reporting whether it existed.
func (s *TaskService) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[id]
	delete(s.tasks, id)
	return ok
}

// Declare registers the package's components. The priority puts
// services ahead of the controllers that consume them.
func Declare(r *metadata.Registry) {
	metadata.Service("TaskService").
		Constructor(NewTaskService).
		WithPriority(10).
		Register(r)
}
