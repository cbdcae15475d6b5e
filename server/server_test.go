package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/guard"
	"github.com/hazfactura/console/internal/config"
	"github.com/hazfactura/console/refresh"
	"github.com/hazfactura/console/server"
	"github.com/hazfactura/console/session"
	"github.com/hazfactura/console/token/tokenfake"
	"github.com/hazfactura/console/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBillingAPI stands in for the remote billing API
type fakeBillingAPI struct {
	t            *testing.T
	loginUser    map[string]any
	unauthorized atomic.Bool
}

func (f *fakeBillingAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.unauthorized.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			var body api.LoginRequest
			assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			if body.Password != "Secreto123" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"message": "Correo o contraseña incorrectos"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"token": tokenfake.Valid(), "usuario": f.loginUser}) //nolint:errcheck
		case "/user/data-user":
			json.NewEncoder(w).Encode(f.loginUser) //nolint:errcheck
		case "/business/registro-business":
			json.NewEncoder(w).Encode(map[string]any{"business": map[string]string{"_id": "b1"}, "message": "Negocio registrado"}) //nolint:errcheck
		case "/tax-regime/persona-moral":
			json.NewEncoder(w).Encode([]api.TaxRegime{{Label: "General de Ley Personas Morales", Value: "601"}}) //nolint:errcheck
		case "/auth":
			json.NewEncoder(w).Encode(api.MessageResponse{Message: "Revisa tu correo"}) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}
}

type harness struct {
	srv     *server.Server
	store   *session.Store
	api     *fakeBillingAPI
	client  *api.Client
	service *auth.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ENV", "TEST")

	fake := &fakeBillingAPI{t: t, loginUser: map[string]any{"_id": "u1", "nombre": "Ana", "apellidos": "López", "role": "Admin", "business": nil}}
	upstream := httptest.NewServer(fake.handler())
	t.Cleanup(upstream.Close)

	store := session.NewStore(session.NewInMemoryStorage())
	client := api.New(upstream.URL, store, api.WithOnUnauthorized(func(ctx context.Context) {
		_ = store.Reset(ctx)
	}))
	service, err := auth.NewService(client, store)
	require.NoError(t, err)

	srv, err := server.New(config.EnvVars{}, store, service)
	require.NoError(t, err)
	return &harness{srv: srv, store: store, api: fake, client: client, service: service}
}

func (h *harness) signIn(t *testing.T, user *users.User) {
	t.Helper()
	require.NoError(t, h.store.SignIn(context.Background(), tokenfake.Valid(), user))
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestProtectedPage_Anonymous(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/invoicing/credit-notes", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/sign-in?redirect=%2Finvoicing%2Fcredit-notes", rec.Header().Get("Location"))
}

func TestProtectedPage_AdminWithoutBusiness(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin, Exp: time.Now().Add(24 * time.Hour).UnixMilli()})

	for _, page := range []string{"/", "/quotes", "/settings"} {
		rec := h.do(httptest.NewRequest(http.MethodGet, page, nil))
		require.Equal(t, http.StatusSeeOther, rec.Code, page)
		require.Equal(t, guard.LocationAccountSetup, rec.Header().Get("Location"), page)
	}

	// Account setup itself stays reachable
	rec := h.do(httptest.NewRequest(http.MethodGet, "/configurar-cuenta", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedPage_MemberWithoutBusiness(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u2", GivenName: "Luis", Role: users.RoleMember})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/reports/sales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Reporte de Ventas")
	require.Contains(t, body, `data-guard="protected"`)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestUnknownPathIsNotFound(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnonymousOnlyPages(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/prueba-gratis", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	h.signIn(t, &users.User{ID: "u1", BusinessID: "b1", Role: users.RoleAdmin})
	for _, page := range []string{"/prueba-gratis", "/bienvenido?token=x"} {
		rec := h.do(httptest.NewRequest(http.MethodGet, page, nil))
		require.Equal(t, http.StatusSeeOther, rec.Code, page)
		require.Equal(t, "/", rec.Header().Get("Location"), page)
	}
}

func TestSignIn_ForwardsToRedirectThenAccountSetup(t *testing.T) {
	h := newHarness(t)

	rec := h.do(postForm("/sign-in", url.Values{
		"correo":   {"ana@example.com"},
		"password": {"Secreto123"},
		"redirect": {"/invoicing"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/invoicing", rec.Header().Get("Location"))

	snap := h.store.Snapshot()
	require.True(t, snap.Authenticated())
	require.Equal(t, "u1", snap.User.ID)
	require.NotZero(t, snap.User.Exp)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/invoicing", nil))
	require.Equal(t, guard.LocationAccountSetup, rec.Header().Get("Location"))
}

func TestSignIn_ValidationErrorsRerender(t *testing.T) {
	h := newHarness(t)

	rec := h.do(postForm("/sign-in", url.Values{"correo": {"ana"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Ingresa un correo electrónico válido")
	require.Contains(t, rec.Body.String(), "Ingresa tu contraseña")
}

func TestSignIn_RejectedShowsAPIMessage(t *testing.T) {
	h := newHarness(t)

	rec := h.do(postForm("/sign-in", url.Values{
		"correo":   {"ana@example.com"},
		"password": {"mal"},
		"redirect": {"/clients"},
	}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))

	body := rec.Body.String()
	require.Contains(t, body, "Correo o contraseña incorrectos")
	require.Contains(t, body, `value="ana@example.com"`)
	require.Contains(t, body, `value="/clients"`)
	require.False(t, h.store.Snapshot().Authenticated())
}

func TestSignIn_HTMXRedirect(t *testing.T) {
	h := newHarness(t)

	req := postForm("/sign-in", url.Values{"correo": {"ana@example.com"}, "password": {"Secreto123"}})
	req.Header.Set("HX-Request", "true")
	rec := h.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/", rec.Header().Get("HX-Redirect"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u1", BusinessID: "b1"})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/logout", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/sign-in", rec.Header().Get("Location"))
	require.False(t, h.store.Snapshot().Authenticated())
}

func sessionStatus(t *testing.T, h *harness, query string) server.SessionStatus {
	t.Helper()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/session"+query, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status server.SessionStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	return status
}

func TestSessionStatus_States(t *testing.T) {
	h := newHarness(t)

	status := sessionStatus(t, h, "?path=%2Fclients")
	require.Equal(t, guard.StateAnonymous, status.State)
	require.False(t, status.Authenticated)
	require.Equal(t, "/sign-in?redirect=%2Fclients", status.Redirect)
	require.Nil(t, status.User)

	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin})
	status = sessionStatus(t, h, "?path=%2Fclients")
	require.Equal(t, guard.StateAuthenticatedIncompleteProfile, status.State)
	require.Equal(t, guard.LocationAccountSetup, status.Redirect)

	status = sessionStatus(t, h, "?guard=authenticated&path=%2Fconfigurar-cuenta")
	require.Empty(t, status.Redirect)

	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin, BusinessID: "b1"})
	status = sessionStatus(t, h, "?path=%2Fclients")
	require.Equal(t, guard.StateAuthenticatedComplete, status.State)
	require.True(t, status.Authenticated)
	require.Empty(t, status.Redirect)
	require.Equal(t, "u1", status.User.ID)
}

func TestBackgroundUnauthorizedForcesSignIn(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin, BusinessID: "b1"})
	require.Empty(t, sessionStatus(t, h, "?path=%2F").Redirect)

	h.api.unauthorized.Store(true)
	err := refresh.New(h.store, h.client).Refresh(context.Background())
	require.Error(t, err)

	status := sessionStatus(t, h, "?path=%2F")
	require.Equal(t, guard.StateAnonymous, status.State)
	require.Equal(t, "/sign-in?redirect=%2F", status.Redirect)
}

func TestAccountSetup_Completes(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin})

	rec := h.do(postForm("/configurar-cuenta", url.Values{
		"tipo_persona":  {"persona_moral"},
		"rfc":           {"abc123456xy9"},
		"nombre":        {"Ana SA"},
		"phone":         {"5512345678"},
		"regimenFiscal": {"601"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?message=Negocio+registrado", rec.Header().Get("Location"))
	require.Equal(t, "b1", h.store.Snapshot().User.BusinessID)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/?message=Negocio+registrado", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Negocio registrado")
}

func TestAccountSetup_ValidationErrors(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin})

	rec := h.do(postForm("/configurar-cuenta", url.Values{"tipo_persona": {"persona_moral"}, "rfc": {"abc"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "El RFC debe tener 12 o 13 caracteres")
	require.Contains(t, rec.Body.String(), `value="ABC"`)
}

func TestAccountSetup_UnauthorizedGoesToSignIn(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin})
	h.api.unauthorized.Store(true)

	rec := h.do(postForm("/configurar-cuenta", url.Values{
		"tipo_persona":  {"persona_fisica"},
		"rfc":           {"LOAA800101AB1"},
		"nombre":        {"Ana López"},
		"phone":         {"5512345678"},
		"regimenFiscal": {"612"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/sign-in?redirect=%2Fconfigurar-cuenta", rec.Header().Get("Location"))
	require.False(t, h.store.Snapshot().Authenticated())
}

func TestTaxRegimes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/configurar-cuenta/regimenes?tipo=persona_moral", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	h.signIn(t, &users.User{ID: "u1", Role: users.RoleAdmin})
	rec = h.do(httptest.NewRequest(http.MethodGet, "/configurar-cuenta/regimenes?tipo=persona_moral", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var regimes []api.TaxRegime
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&regimes))
	require.Equal(t, []api.TaxRegime{{Label: "General de Ley Personas Morales", Value: "601"}}, regimes)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/configurar-cuenta/regimenes?tipo=otro", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignUp(t *testing.T) {
	h := newHarness(t)

	rec := h.do(postForm("/prueba-gratis", url.Values{
		"nombre":    {"Ana"},
		"apellidos": {"López"},
		"correo":    {"ana@example.com"},
		"terms":     {"on"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/sign-in?message=Revisa+tu+correo", rec.Header().Get("Location"))

	rec = h.do(postForm("/prueba-gratis", url.Values{"nombre": {"Ana"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Debes aceptar los términos y condiciones")
}

func TestWelcomePage(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/bienvenido?token=garbage", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "El enlace de activación no es válido")

	welcome := tokenfake.Welcome("u9", "Ana", "López", "ana@example.com")
	rec = h.do(httptest.NewRequest(http.MethodGet, "/bienvenido?token="+welcome, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Bienvenido, Ana")
	require.Contains(t, rec.Body.String(), "ana@example.com")
}

func TestStaticAssets(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/js/session.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	require.Contains(t, rec.Body.String(), "/session?guard=")

	rec = h.do(httptest.NewRequest(http.MethodGet, "/css/missing.css", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/sign-in", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = h.do(req)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestWatchSessionStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.srv.WatchSession(ctx)
		close(done)
	}()

	h.signIn(t, &users.User{ID: "u1", BusinessID: "b1"})
	require.NoError(t, h.store.Reset(context.Background()))
	cancel()

	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
