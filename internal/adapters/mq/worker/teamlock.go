package worker

import "sync"

// teamLocker hands out one mutex per team so concurrent workers can
// process games touching disjoint teams in parallel.
//
// LockPair always acquires the two locks in lexicographic team-ID order,
// which makes deadlock between workers impossible regardless of which
// side of a game a team appears on.
type teamLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTeamLocker() *teamLocker {
	return &teamLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex for a team, creating it on first use.
func (l *teamLocker) lockFor(teamID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[teamID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[teamID] = m
	}
	return m
}

// LockPair locks both teams' mutexes in ID order and returns the
// matching unlock function.
func (l *teamLocker) LockPair(a, b string) func() {
	if a == b {
		// Defensive: a game between a team and itself is rejected
		// upstream, but locking the same mutex twice would deadlock.
		m := l.lockFor(a)
		m.Lock()
		return m.Unlock
	}

	first, second := a, b
	if second < first {
		first, second = second, first
	}

	fm := l.lockFor(first)
	sm := l.lockFor(second)
	fm.Lock()
	sm.Lock()
	return func() {
		sm.Unlock()
		fm.Unlock()
	}
}
