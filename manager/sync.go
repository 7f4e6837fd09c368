package manager

import (
	"sync"

	"github.com/chianfern/free-fleet/messages"
	"github.com/chianfern/free-fleet/robot"
)

// SyncManager wraps a Manager with a mutex so it can be driven from one
// goroutine (typically a RunOnce ticker) while diagnostics or other
// read-only callers reach it from another. Manager itself follows spec.md
// §5's single-threaded contract; this is the opt-in synchronization layer
// spec.md §9 anticipates for exactly that situation.
type SyncManager struct {
	mu sync.Mutex
	m  *Manager
}

// NewSyncManager wraps an existing Manager.
func NewSyncManager(m *Manager) *SyncManager {
	return &SyncManager{m: m}
}

func (s *SyncManager) RunOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.RunOnce()
}

func (s *SyncManager) RequestPause(name string) (messages.CommandId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.RequestPause(name)
}

func (s *SyncManager) RequestResume(name string) (messages.CommandId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.RequestResume(name)
}

func (s *SyncManager) RequestDock(name, dockName string) (messages.CommandId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.RequestDock(name, dockName)
}

func (s *SyncManager) RequestRelocalization(name string, loc messages.Location, lastVisitedWaypointIndex int) (messages.CommandId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.RequestRelocalization(name, loc, lastVisitedWaypointIndex)
}

func (s *SyncManager) RequestNavigation(name string, path []messages.NavigationPoint) (messages.CommandId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.RequestNavigation(name, path)
}

func (s *SyncManager) RobotNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.RobotNames()
}

func (s *SyncManager) Robot(name string) (robot.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Robot(name)
}

func (s *SyncManager) AllRobots() []robot.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.AllRobots()
}
