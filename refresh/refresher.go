// Package refresh keeps the signed-in profile current by polling the API in
// the background while a credential is held.
package refresh

import (
	"context"
	"time"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/session"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval   = 10 * time.Minute
	DefaultProfileTTL = 24 * time.Hour
)

// ProfileFetcher fetches the signed-in user's document
type ProfileFetcher interface {
	DataUser(ctx context.Context) (*api.Usuario, error)
}

// Refresher polls the profile on a fixed interval
type Refresher struct {
	store      *session.Store
	fetcher    ProfileFetcher
	interval   time.Duration
	profileTTL time.Duration
	now        func() time.Time
}

// Option configures a Refresher
type Option func(*Refresher)

// WithInterval sets the polling interval
func WithInterval(interval time.Duration) Option {
	return func(r *Refresher) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithProfileTTL sets the expiry stamped on a refreshed profile that has none
func WithProfileTTL(ttl time.Duration) Option {
	return func(r *Refresher) {
		if ttl > 0 {
			r.profileTTL = ttl
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// New creates a Refresher for store
func New(store *session.Store, fetcher ProfileFetcher, opts ...Option) *Refresher {
	r := &Refresher{
		store:      store,
		fetcher:    fetcher,
		interval:   DefaultInterval,
		profileTTL: DefaultProfileTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run refreshes once immediately and then on every tick until ctx is done
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", r.interval).Msg("refresh: started")
	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("refresh: stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	err := r.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrStaleRefresh):
		log.Debug().Msg("refresh: session changed during refresh, result dropped")
	case errors.Is(err, errors.ErrUnauthorized):
		log.Info().Msg("refresh: credential rejected, session reset")
	case ctx.Err() != nil:
	default:
		log.Warn().Err(err).Msg("refresh: profile refresh failed")
	}
}

// Refresh fetches the profile once and applies it if the session has not
// changed in the meantime. It is a no-op without a credential. A session
// that ends while the call is in flight cancels the call.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.store.ExpireIfNeeded(ctx) {
		return nil
	}
	snap := r.store.Snapshot()
	if snap.AccessToken == "" {
		return nil
	}

	signedOut, release := r.store.Subscribe()
	defer release()

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-signedOut:
			cancel()
		case <-callCtx.Done():
		}
	}()

	doc, err := r.fetcher.DataUser(callCtx)
	if err != nil {
		if !errors.Is(err, errors.ErrUnauthorized) && callCtx.Err() != nil && ctx.Err() == nil {
			return errors.Wrapf(errors.ErrStaleRefresh, "[Refresher Refresh] signed out during call")
		}
		return errors.Wrapf(err, "[Refresher Refresh]")
	}

	user := doc.ToUser()
	switch {
	case snap.User != nil && snap.User.Exp != 0:
		user.Exp = snap.User.Exp
	default:
		user.Exp = r.now().Add(r.profileTTL).UnixMilli()
	}
	if err := r.store.ApplyRefresh(ctx, snap, user); err != nil {
		return errors.Wrapf(err, "[Refresher Refresh]")
	}
	log.Debug().Str("user_id", user.ID).Msg("refresh: profile updated")
	return nil
}
