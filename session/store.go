// Package session owns the console's authenticated session: the access token
// and the operator profile, their durable record, and the rules that keep the
// two consistent.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/token"
	"github.com/hazfactura/console/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Snapshot is a point-in-time copy of the session. Generation changes with
// the credential or the authentication status; Revision changes with every
// write, profile updates included.
type Snapshot struct {
	AccessToken string
	User        *users.User
	Generation  uint64
	Revision    uint64
}

// Authenticated reports whether both credential and profile are present
func (s Snapshot) Authenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

// Store is the single authority for who the operator is. Every mutation
// persists the full record through one Storage.Save and bumps the revision.
// Changes of identity also bump the generation.
type Store struct {
	mu           sync.RWMutex
	storage      Storage
	accessToken  string
	tokenSet     bool
	user         *users.User
	generation   uint64
	revision     uint64
	hydrated     bool
	clearInvalid bool
	now          func() time.Time

	subsMu sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

var _ oauth2.TokenSource = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClearInvalid makes Hydrate remove durable entries that fail validation
func WithClearInvalid(clear bool) Option {
	return func(s *Store) { s.clearInvalid = clear }
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store over storage. Call Hydrate once at startup.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
		subs:    make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate restores the session from storage. Absent entries, unparsable
// profile JSON, an undecodable token, or an expired token or profile all
// yield the empty session. It never fails; later calls return the current
// snapshot without reading storage again.
func (s *Store) Hydrate(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return s.snapshotLocked()
	}
	s.hydrated = true

	record, err := s.storage.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session: cannot read stored session, starting signed out")
		return s.snapshotLocked()
	}

	user, reason := s.validRecord(record)
	if user == nil {
		if !record.Empty() {
			log.Info().Str("reason", reason).Msg("session: stored session discarded")
			if s.clearInvalid {
				if err := s.storage.Clear(ctx); err != nil {
					log.Warn().Err(err).Msg("session: cannot clear discarded session")
				}
			}
		}
		return s.snapshotLocked()
	}

	s.accessToken = record.Token
	s.tokenSet = true
	s.user = user
	s.bumpLocked(true)
	log.Info().Str("user_id", user.ID).Time("expires_at", user.ExpiresAt()).Msg("session: restored")
	return s.snapshotLocked()
}

func (s *Store) validRecord(record Record) (*users.User, string) {
	if !record.HasToken || record.Token == "" {
		return nil, "missing token"
	}
	if record.User == nil {
		return nil, "missing user"
	}

	var user users.User
	if err := json.Unmarshal(record.User, &user); err != nil {
		return nil, "unparsable user"
	}

	claims, err := token.Decode(record.Token)
	if err != nil {
		return nil, "undecodable token"
	}
	now := s.now()
	if claims.Expired(now) {
		return nil, "token expired"
	}
	if user.Expired(now) {
		return nil, "profile expired"
	}
	return &user, ""
}

// Snapshot returns a copy of the current session
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		AccessToken: s.accessToken,
		User:        s.user.Clone(),
		Generation:  s.generation,
		Revision:    s.revision,
	}
}

func (s *Store) bumpLocked(identity bool) {
	s.revision++
	if identity {
		s.generation++
	}
}

// Generation returns the current identity version
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetUser replaces the profile. nil removes the profile entry.
func (s *Store) SetUser(ctx context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user = user.Clone()
	if err := s.persistLocked(ctx, s.accessToken, s.tokenSet, user); err != nil {
		return errors.Wrapf(err, "[Store SetUser]")
	}
	wasAuthenticated := s.authenticatedLocked()
	sameUser := s.user != nil && user != nil && s.user.ID == user.ID
	s.user = user
	s.bumpLocked(!sameUser || wasAuthenticated != s.authenticatedLocked())
	s.signalIfSignedOut(wasAuthenticated)
	return nil
}

// SetAccessToken replaces the token and persists it, "" included
func (s *Store) SetAccessToken(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(ctx, accessToken, true, s.user); err != nil {
		return errors.Wrapf(err, "[Store SetAccessToken]")
	}
	wasAuthenticated := s.authenticatedLocked()
	s.accessToken = accessToken
	s.tokenSet = true
	s.bumpLocked(true)
	s.signalIfSignedOut(wasAuthenticated)
	return nil
}

// SignIn sets token and profile together in one write
func (s *Store) SignIn(ctx context.Context, accessToken string, user *users.User) error {
	if accessToken == "" || user == nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "[Store SignIn] token and user are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user = user.Clone()
	if err := s.persistLocked(ctx, accessToken, true, user); err != nil {
		return errors.Wrapf(err, "[Store SignIn]")
	}
	s.accessToken = accessToken
	s.tokenSet = true
	s.user = user
	s.bumpLocked(true)
	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Time("expires_at", user.ExpiresAt()).Msg("session: signed in")
	return nil
}

// Reset clears the session in memory and in storage. Memory is cleared even
// when storage fails; the storage error is returned. The stored record is
// removed even if ctx is already cancelled.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx)
}

func (s *Store) resetLocked(ctx context.Context) error {
	wasAuthenticated := s.authenticatedLocked()
	s.accessToken = ""
	s.tokenSet = false
	s.user = nil
	s.bumpLocked(true)

	// Subscribers are told only after the clear; one may cancel ctx
	err := s.storage.Clear(context.WithoutCancel(ctx))
	s.signalIfSignedOut(wasAuthenticated)
	if err != nil {
		log.Error().Err(err).Msg("session: cannot clear stored session")
		return errors.Wrapf(err, "[Store Reset]")
	}
	return nil
}

// ResetAccessToken drops the credential but keeps the profile
func (s *Store) ResetAccessToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAuthenticated := s.authenticatedLocked()
	s.accessToken = ""
	s.tokenSet = false
	s.bumpLocked(true)

	err := s.persistLocked(context.WithoutCancel(ctx), "", false, s.user)
	s.signalIfSignedOut(wasAuthenticated)
	if err != nil {
		log.Error().Err(err).Msg("session: cannot remove stored token")
		return errors.Wrapf(err, "[Store ResetAccessToken]")
	}
	return nil
}

// ApplyRefresh stores a profile fetched in the background, starting from
// base. It is rejected with ErrStaleRefresh if the session was written since
// base was taken or is no longer authenticated. The current Exp is kept when
// user has none.
func (s *Store) ApplyRefresh(ctx context.Context, base Snapshot, user *users.User) error {
	if user == nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "[Store ApplyRefresh] user is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != base.Generation || s.revision != base.Revision || !s.authenticatedLocked() {
		return errors.Wrapf(errors.ErrStaleRefresh, "[Store ApplyRefresh] revision %d/%d, current %d/%d",
			base.Generation, base.Revision, s.generation, s.revision)
	}

	user = user.Clone()
	if user.Exp == 0 {
		user.Exp = s.user.Exp
	}
	return s.writeUserLocked(ctx, user, "[Store ApplyRefresh]")
}

// UpdateUser applies update to the current profile, provided the identity is
// still the one at generation. Profile writes made since then are kept.
func (s *Store) UpdateUser(ctx context.Context, generation uint64, update func(users.User) *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || !s.authenticatedLocked() {
		return errors.Wrapf(errors.ErrStaleRefresh, "[Store UpdateUser] generation %d, current %d", generation, s.generation)
	}

	user := update(*s.user.Clone())
	if user == nil || user.ID != s.user.ID {
		return errors.Wrapf(errors.ErrInvalidRequest, "[Store UpdateUser] update must keep the user")
	}
	return s.writeUserLocked(ctx, user.Clone(), "[Store UpdateUser]")
}

func (s *Store) writeUserLocked(ctx context.Context, user *users.User, op string) error {
	if err := s.persistLocked(ctx, s.accessToken, s.tokenSet, user); err != nil {
		return errors.Wrapf(err, "%s", op)
	}
	s.user = user
	s.bumpLocked(false)
	return nil
}

// ExpireIfNeeded resets the session when its token or profile expiry has
// passed and reports whether it did
func (s *Store) ExpireIfNeeded(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticatedLocked() {
		return false
	}

	now := s.now()
	expired := s.user.Expired(now)
	if claims, err := token.Decode(s.accessToken); err == nil && claims.Expired(now) {
		expired = true
	}
	if !expired {
		return false
	}

	log.Info().Str("user_id", s.user.ID).Msg("session: expired")
	_ = s.resetLocked(ctx)
	return true
}

// Token implements oauth2.TokenSource so API transports can attach the
// current bearer credential
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return nil, errors.ErrNoSession
	}
	return &oauth2.Token{AccessToken: s.accessToken, TokenType: "Bearer"}, nil
}

// Subscribe returns a channel signalled whenever an authenticated session
// ends, and a function that releases it
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) authenticatedLocked() bool {
	return s.accessToken != "" && s.user != nil
}

func (s *Store) signalIfSignedOut(wasAuthenticated bool) {
	if !wasAuthenticated || s.authenticatedLocked() {
		return
	}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) persistLocked(ctx context.Context, accessToken string, tokenSet bool, user *users.User) error {
	record := Record{Token: accessToken, HasToken: tokenSet}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrStorage, err)
		}
		record.User = data
	}
	if err := s.storage.Save(ctx, record); err != nil {
		return err
	}
	return nil
}
