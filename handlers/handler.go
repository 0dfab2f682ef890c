package handlers

import (
	"sync"

	"github.com/uptrace/bun"

	"github.com/orientraid/raidapi/eligibility"
	"github.com/orientraid/raidapi/scoring"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db         *bun.DB
	JWTKey     []byte
	thresholds eligibility.Thresholds
	points     scoring.PointsPolicy

	raceLocks keyedMutex
}

// New creates a Handler. thresholds are the system-wide default age
// thresholds (raids may override) and points the team points policy.
func New(db *bun.DB, jwtKey []byte, thresholds eligibility.Thresholds, points scoring.PointsPolicy) *Handler {
	return &Handler{
		db:         db,
		JWTKey:     jwtKey,
		thresholds: thresholds,
		points:     points,
	}
}

// keyedMutex serializes leaderboard recomputation per race. Two results
// entered in quick succession for the same race must not interleave the
// replace-on-recompute step.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) lock(key int) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[int]*sync.Mutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
