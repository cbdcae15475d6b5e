// Package auth runs the console's account flows: sign-in, free-trial sign-up,
// activation, and completion of the business profile.
package auth

import (
	"context"
	"time"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/guard"
	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/session"
	"github.com/hazfactura/console/users"
	"github.com/rs/zerolog/log"
)

const defaultProfileTTL = 24 * time.Hour

// API is the subset of the billing API the flows call
type API interface {
	Login(ctx context.Context, correo, password string) (*api.LoginResponse, error)
	SignUp(ctx context.Context, req api.SignUpRequest) (*api.MessageResponse, error)
	RegisterPassword(ctx context.Context, activationToken, userID, password string) (*api.MessageResponse, error)
	RegisterBusiness(ctx context.Context, req api.BusinessRequest) (*api.BusinessResponse, error)
	TaxRegimes(ctx context.Context, personType api.PersonType) ([]api.TaxRegime, error)
}

// Service runs account flows against the API and the session store
type Service struct {
	api        API
	store      *session.Store
	profileTTL time.Duration
	nowTime    func() time.Time
}

// ServiceOption defines a function type to modify the Service instance
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithProfileTTL sets how long a signed-in profile stays valid
func WithProfileTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.profileTTL = ttl
		}
	}
}

// NewService creates the account flow service
func NewService(client API, store *session.Store, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[NewService] api client is required")
	}
	if store == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[NewService] session store is required")
	}

	s := &Service{
		api:        client,
		store:      store,
		profileTTL: defaultProfileTTL,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// SignIn authenticates the operator and returns where to go next: the
// sanitized redirect target, or home.
func (s *Service) SignIn(ctx context.Context, form SignInForm, redirect string) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}

	resp, err := s.api.Login(ctx, form.Correo, form.Password)
	if err != nil {
		return "", errors.Wrapf(err, "[Service SignIn]")
	}

	user := resp.Usuario.ToUser()
	user.Exp = s.nowTime().Add(s.profileTTL).UnixMilli()
	if err := s.store.SignIn(ctx, resp.Token, user); err != nil {
		return "", errors.Wrapf(err, "[Service SignIn]")
	}
	return guard.SafeRedirect(redirect), nil
}

// SignUp requests a free-trial account and returns the API's message
func (s *Service) SignUp(ctx context.Context, form SignUpForm) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}

	resp, err := s.api.SignUp(ctx, api.SignUpRequest{
		Nombre:    form.Nombre,
		Apellidos: form.Apellidos,
		Correo:    form.Correo,
		Terms:     form.Terms,
	})
	if err != nil {
		return "", errors.Wrapf(err, "[Service SignUp]")
	}
	log.Info().Msg("auth: free trial requested")
	return resp.Message, nil
}

// Activate sets the first password of the account named by the welcome token
func (s *Service) Activate(ctx context.Context, form ActivationForm) (string, error) {
	claims, err := form.Validate()
	if err != nil {
		return "", err
	}

	resp, err := s.api.RegisterPassword(ctx, form.Token, claims.ID, form.Password)
	if err != nil {
		return "", errors.Wrapf(err, "[Service Activate]")
	}
	log.Info().Str("user_id", claims.ID).Msg("auth: account activated")
	return resp.Message, nil
}

// CompleteAccount registers the business of the signed-in admin and links it
// to the session's profile. A profile refresh during the call is kept; a
// session that was ended or replaced is left untouched.
func (s *Service) CompleteAccount(ctx context.Context, form AccountForm) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}

	snap := s.store.Snapshot()
	if !snap.Authenticated() {
		return "", errors.Wrapf(errors.ErrNotAuthenticated, "[Service CompleteAccount]")
	}

	resp, err := s.api.RegisterBusiness(ctx, api.BusinessRequest{
		TipoPersona:   api.PersonType(form.TipoPersona).Label(),
		RFC:           form.RFC,
		Nombre:        form.Nombre,
		Phone:         form.Phone,
		RegimenFiscal: form.RegimenFiscal,
	})
	if err != nil {
		return "", errors.Wrapf(err, "[Service CompleteAccount]")
	}
	if resp.Business.ID == "" {
		return "", errors.Wrapf(errors.ErrUpstream, "[Service CompleteAccount] response without business id")
	}

	link := func(u users.User) *users.User { return u.WithBusiness(resp.Business.ID) }
	if err := s.store.UpdateUser(ctx, snap.Generation, link); err != nil {
		return "", errors.Wrapf(err, "[Service CompleteAccount]")
	}
	log.Info().Str("user_id", snap.User.ID).Str("business_id", resp.Business.ID).Msg("auth: account completed")
	return resp.Message, nil
}

// TaxRegimes lists the regimes for a person type
func (s *Service) TaxRegimes(ctx context.Context, tipo string) ([]api.TaxRegime, error) {
	personType := api.PersonType(tipo)
	if !personType.Valid() {
		return nil, ValidationErrors{"tipo_persona": "Selecciona el tipo de persona"}
	}
	regimes, err := s.api.TaxRegimes(ctx, personType)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service TaxRegimes]")
	}
	return regimes, nil
}

// Logout ends the session
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return errors.Wrapf(err, "[Service Logout]")
	}
	log.Info().Msg("auth: signed out")
	return nil
}
