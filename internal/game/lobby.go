package game

import "sync"

// Entry is one player waiting in the matchmaking queue.
type Entry struct {
	Conn   Conn
	Name   string
	UserID *int64
}

// Lobby is the FIFO matchmaking queue. Players enter in join order and leave
// in batches of exactly Size, so nobody can be skipped by a later joiner.
type Lobby struct {
	mu    sync.Mutex
	size  int
	queue []Entry
}

// NewLobby creates a lobby that dispatches batches of size players.
func NewLobby(size int) *Lobby {
	return &Lobby{size: size}
}

// Size returns the batch size.
func (l *Lobby) Size() int {
	return l.size
}

// Enqueue appends a player. When the queue reaches the batch size the first
// size entries are removed and returned; otherwise it returns the current
// waiting roster.
func (l *Lobby) Enqueue(e Entry) (batch []Entry, waiting []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queue = append(l.queue, e)
	if len(l.queue) >= l.size {
		batch = l.queue[:l.size]
		l.queue = append([]Entry(nil), l.queue[l.size:]...)
		return batch, nil
	}
	return nil, append([]Entry(nil), l.queue...)
}

// Remove drops a waiting player by connection id and returns the remaining
// roster plus whether anything changed. Players already dispatched into a
// session are not affected.
func (l *Lobby) Remove(connID string) (waiting []Entry, removed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.queue {
		if e.Conn.ID() == connID {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return append([]Entry(nil), l.queue...), true
		}
	}
	return nil, false
}
