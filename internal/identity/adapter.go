package identity

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	kratos "github.com/ory/kratos-client-go"
	"github.com/rs/zerolog"

	"journalite/internal/models"
)

// Adapter wraps the hosted identity provider (Ory Kratos) behind the small
// surface the rest of the client needs: the current session as a reactive
// value plus the imperative auth verbs. The provider is a black box; this
// adapter only speaks its self-service flow API and maps its failures to a
// fixed set of user-facing categories.
type Adapter struct {
	client    *kratos.APIClient
	publicURL string
	logger    zerolog.Logger

	mu           sync.Mutex
	session      *models.Session
	sessionToken string
	subs         map[int]func(*models.Session)
	nextSubID    int
}

func NewAdapter(publicURL string, timeout time.Duration, logger zerolog.Logger) *Adapter {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{
			URL: publicURL,
		},
	}
	configuration.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &Adapter{
		client:    kratos.NewAPIClient(configuration),
		publicURL: publicURL,
		logger:    logger.With().Str("component", "identity").Logger(),
		subs:      make(map[int]func(*models.Session)),
	}
}

// Current returns the session as last observed, or nil when unauthenticated.
func (a *Adapter) Current() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// SessionToken returns the provider session token backing the current
// session, empty when unauthenticated.
func (a *Adapter) SessionToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionToken
}

// Subscribe registers fn for session changes and immediately invokes it with
// the current value. The returned function unregisters deterministically; it
// is safe to call more than once.
func (a *Adapter) Subscribe(fn func(*models.Session)) func() {
	a.mu.Lock()
	id := a.nextSubID
	a.nextSubID++
	a.subs[id] = fn
	current := a.session
	a.mu.Unlock()

	fn(current)

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

func (a *Adapter) setSession(session *models.Session, token string) {
	a.mu.Lock()
	a.session = session
	a.sessionToken = token
	listeners := make([]func(*models.Session), 0, len(a.subs))
	for _, fn := range a.subs {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(session)
	}
}

// SignIn authenticates with email and password via a native login flow.
func (a *Adapter) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	flow, resp, err := a.client.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, "sign in")
	}

	body := kratos.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(
		&kratos.UpdateLoginFlowWithPasswordMethod{
			Identifier: email,
			Password:   password,
			Method:     "password",
		})
	login, resp, err := a.client.FrontendAPI.UpdateLoginFlow(ctx).
		Flow(flow.GetId()).
		UpdateLoginFlowBody(body).
		Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, "sign in")
	}

	loginSession := login.GetSession()
	session := sessionFromIdentity(loginSession.GetIdentity())
	a.setSession(session, login.GetSessionToken())
	a.logger.Info().Str("userId", session.UserID).Msg("signed in")
	return session, nil
}

// SignUp registers a new account via a native registration flow and then
// asks the provider to send a verification message to the address.
func (a *Adapter) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	flow, resp, err := a.client.FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, "sign up")
	}

	body := kratos.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(
		&kratos.UpdateRegistrationFlowWithPasswordMethod{
			Method:   "password",
			Password: password,
			Traits:   map[string]interface{}{"email": email},
		})
	registration, resp, err := a.client.FrontendAPI.UpdateRegistrationFlow(ctx).
		Flow(flow.GetId()).
		UpdateRegistrationFlowBody(body).
		Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, "sign up")
	}

	// Verification failures are not fatal: the account exists, the provider
	// will re-offer verification on first sign-in.
	if err := a.sendVerification(ctx, email); err != nil {
		a.logger.Warn().Err(err).Msg("verification message not sent")
	}

	session := sessionFromIdentity(registration.GetIdentity())
	a.setSession(session, registration.GetSessionToken())
	a.logger.Info().Str("userId", session.UserID).Msg("account created")
	return session, nil
}

func (a *Adapter) sendVerification(ctx context.Context, email string) error {
	flow, resp, err := a.client.FrontendAPI.CreateNativeVerificationFlow(ctx).Execute()
	if err != nil {
		return mapProviderError(err, resp, "send verification")
	}
	body := kratos.UpdateVerificationFlowWithCodeMethodAsUpdateVerificationFlowBody(
		&kratos.UpdateVerificationFlowWithCodeMethod{
			Email:  &email,
			Method: "code",
		})
	_, resp, err = a.client.FrontendAPI.UpdateVerificationFlow(ctx).
		Flow(flow.GetId()).
		UpdateVerificationFlowBody(body).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, "send verification")
	}
	return nil
}

// SendPasswordReset asks the provider to send a recovery message. The
// provider intentionally does not reveal whether the address exists.
func (a *Adapter) SendPasswordReset(ctx context.Context, email string) error {
	flow, resp, err := a.client.FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return mapProviderError(err, resp, "reset password")
	}
	body := kratos.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(
		&kratos.UpdateRecoveryFlowWithCodeMethod{
			Email:  &email,
			Method: "code",
		})
	_, resp, err = a.client.FrontendAPI.UpdateRecoveryFlow(ctx).
		Flow(flow.GetId()).
		UpdateRecoveryFlowBody(body).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, "reset password")
	}
	return nil
}

// FederatedSignInURL starts a browser login flow and returns the provider
// page where the federated (OIDC) sign-in continues.
func (a *Adapter) FederatedSignInURL(ctx context.Context, returnTo string) (string, error) {
	req := a.client.FrontendAPI.CreateBrowserLoginFlow(ctx)
	if returnTo != "" {
		req = req.ReturnTo(returnTo)
	}
	flow, resp, err := req.Execute()
	if err != nil {
		return "", mapProviderError(err, resp, "federated sign in")
	}
	return fmt.Sprintf("%s/self-service/login?flow=%s", a.publicURL, flow.GetId()), nil
}

// Refresh re-validates the stored provider token and updates the observed
// session; an invalid token clears it.
func (a *Adapter) Refresh(ctx context.Context) error {
	token := a.SessionToken()
	if token == "" {
		return nil
	}
	session, resp, err := a.client.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			a.setSession(nil, "")
			return nil
		}
		return mapProviderError(err, resp, "refresh session")
	}
	a.setSession(sessionFromIdentity(session.GetIdentity()), token)
	return nil
}

// SignOut revokes the provider session and clears the observed one. The
// local session is cleared even when revocation fails; the token will age
// out provider-side.
func (a *Adapter) SignOut(ctx context.Context) error {
	token := a.SessionToken()
	defer a.setSession(nil, "")
	if token == "" {
		return nil
	}
	resp, err := a.client.FrontendAPI.PerformNativeLogout(ctx).
		PerformNativeLogoutBody(kratos.PerformNativeLogoutBody{SessionToken: token}).
		Execute()
	if err != nil {
		a.logger.Warn().Err(err).Msg("provider logout failed")
		return mapProviderError(err, resp, "sign out")
	}
	return nil
}

// sessionFromIdentity derives the local session value from a provider
// identity: user id plus a display name with the email-local-part fallback.
func sessionFromIdentity(identity kratos.Identity) *models.Session {
	email := ""
	name := ""
	if traits, ok := identity.GetTraits().(map[string]interface{}); ok {
		if v, ok := traits["email"].(string); ok {
			email = v
		}
		switch n := traits["name"].(type) {
		case string:
			name = n
		case map[string]interface{}:
			if first, ok := n["first"].(string); ok {
				name = first
			}
		}
	}
	return &models.Session{
		UserID:      identity.GetId(),
		DisplayName: models.DisplayNameFor(name, email),
		Email:       email,
	}
}
