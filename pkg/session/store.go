// Package session holds who is signed in. It is the only writer of the
// session state; screens read snapshots and call the four transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/estoque-app/estoque/pkg/authevents"
	"github.com/estoque-app/estoque/pkg/domain"
)

var (
	// ErrHydrating is returned by SignIn and SignOut before the boot
	// hydration has resolved.
	ErrHydrating = errors.New("session: still checking session")
	// ErrNoIdentity means login succeeded but /auth/me did not confirm it.
	ErrNoIdentity = errors.New("session: login not confirmed by server")
)

// logoutTimeout bounds the background logout sent after a forced sign-out.
const logoutTimeout = 10 * time.Second

// Status is the state of the session machine.
type Status int

const (
	StatusHydrating Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusHydrating:
		return "hydrating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	Status Status
	User   *domain.Identity
}

// Loading reports whether hydration is still in progress. While true, User
// must not be used for access decisions.
func (s Snapshot) Loading() bool {
	return s.Status == StatusHydrating
}

// Authenticator is the slice of the API client the store needs.
type Authenticator interface {
	Me(ctx context.Context) (*domain.Identity, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
}

// TransitionRecorder receives each applied transition.
type TransitionRecorder interface {
	RecordTransition(status string)
}

// Store is the session state machine.
type Store struct {
	auth    Authenticator
	bus     *authevents.Bus
	log     zerolog.Logger
	metrics TransitionRecorder
	sub     authevents.Subscription

	mu   sync.RWMutex
	snap Snapshot
	// epoch advances on every authoritative transition (sign-in, sign-out,
	// forced sign-out). A reload applies only if its epoch is still current.
	epoch uint64
	// seq advances on every write to snap, reloads included.
	seq uint64

	// listenMu serializes delivery; delivered is the seq listeners last saw.
	listenMu  sync.Mutex
	nextID    int
	listeners map[int]func(Snapshot)
	delivered uint64

	bg sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMetrics sets the transition recorder.
func WithMetrics(m TransitionRecorder) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a store in the Hydrating state and subscribes it to bus.
// Call Reload once to resolve hydration.
func New(auth Authenticator, bus *authevents.Bus, opts ...Option) *Store {
	s := &Store{
		auth:      auth,
		bus:       bus,
		log:       zerolog.Nop(),
		snap:      Snapshot{Status: StatusHydrating},
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sub = bus.Subscribe(s.handleUnauthorized)
	return s
}

// Close detaches the store from the bus and waits for background logouts.
func (s *Store) Close() {
	s.sub.Unsubscribe()
	s.bg.Wait()
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn to be called after every applied transition.
// Calls are serialized and never go back in time: a notification overtaken
// by a newer write is dropped. fn must not call Subscribe or the returned
// func, which removes it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenMu.Lock()
		defer s.listenMu.Unlock()
		delete(s.listeners, id)
	}
}

// Reload asks the server who is signed in. Any failure, 401 included,
// resolves to Anonymous. The result is dropped if a sign-in or sign-out
// completed while it was in flight.
func (s *Store) Reload(ctx context.Context) Snapshot {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	next := s.fetch(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		current := s.snap
		s.mu.Unlock()
		s.log.Debug().Str("dropped", next.Status.String()).Msg("stale session reload ignored")
		return current
	}
	s.snap = next
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.applied(next, seq)
	return next
}

// SignIn logs in and then re-hydrates; only the identity returned by
// /auth/me is trusted. On success the unauthorized episode is closed.
func (s *Store) SignIn(ctx context.Context, username, password string) error {
	if s.Snapshot().Loading() {
		return ErrHydrating
	}

	if err := s.auth.Login(ctx, username, password); err != nil {
		s.log.Info().Str("username", username).Err(err).Msg("sign-in rejected")
		return fmt.Errorf("session.SignIn: %w", err)
	}

	id, err := s.auth.Me(ctx)
	if err == nil && id == nil {
		err = ErrNoIdentity
	} else if err != nil {
		err = fmt.Errorf("%w: %w", ErrNoIdentity, err)
	}

	if err != nil {
		s.transition(Snapshot{Status: StatusAnonymous})
		s.log.Warn().Str("username", username).Err(err).Msg("sign-in not confirmed")
		return fmt.Errorf("session.SignIn: %w", err)
	}

	id.RoleSet()
	s.transition(Snapshot{Status: StatusAuthenticated, User: id})
	s.bus.Reset()
	s.log.Info().Str("username", id.Username).Str("roles", id.RoleSet().String()).Msg("signed in")
	return nil
}

// SignOut ends the session. The logout call is best-effort: local state is
// cleared whatever it returns.
func (s *Store) SignOut(ctx context.Context) error {
	if s.Snapshot().Loading() {
		return ErrHydrating
	}
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("logout call failed, clearing session anyway")
	}
	s.transition(Snapshot{Status: StatusAnonymous})
	s.log.Info().Msg("signed out")
	return nil
}

// handleUnauthorized runs on the goroutine that saw the 401, before that
// caller gets its error. State is cleared at once; the logout call goes
// out in the background so the caller is not held up.
func (s *Store) handleUnauthorized() {
	s.mu.Lock()
	if s.snap.Status != StatusAuthenticated {
		s.mu.Unlock()
		return
	}
	user := s.snap.User
	s.epoch++
	s.seq++
	s.snap = Snapshot{Status: StatusAnonymous}
	next, seq := s.snap, s.seq
	s.mu.Unlock()

	s.log.Warn().Str("event", authevents.EventUnauthorized).Str("username", user.Username).Msg("session expired, signing out")
	s.applied(next, seq)

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		if err := s.auth.Logout(ctx); err != nil {
			s.log.Debug().Err(err).Msg("background logout failed")
		}
	}()
}

func (s *Store) fetch(ctx context.Context) Snapshot {
	id, err := s.auth.Me(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("hydration failed")
		return Snapshot{Status: StatusAnonymous}
	}
	if id == nil {
		return Snapshot{Status: StatusAnonymous}
	}
	id.RoleSet()
	return Snapshot{Status: StatusAuthenticated, User: id}
}

// transition replaces the snapshot and opens a new epoch.
func (s *Store) transition(next Snapshot) {
	s.mu.Lock()
	s.epoch++
	s.seq++
	seq := s.seq
	s.snap = next
	s.mu.Unlock()
	s.applied(next, seq)
}

// applied records the write committed as seq and notifies listeners,
// unless a later write has already been delivered.
func (s *Store) applied(next Snapshot, seq uint64) {
	if s.metrics != nil {
		s.metrics.RecordTransition(next.Status.String())
	}

	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	if seq <= s.delivered {
		s.log.Debug().Str("dropped", next.Status.String()).Msg("superseded session notification")
		return
	}
	s.delivered = seq
	for _, fn := range s.listeners {
		fn(next)
	}
}
