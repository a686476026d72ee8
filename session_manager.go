package onboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/safirihq/onboard/backend"
	"github.com/safirihq/onboard/session"
)

// Login exchanges credentials for a session. The backend's profile endpoint
// decides the user type and profile completeness, which in turn decide the
// post-auth route.
func (e *Engine) Login(ctx context.Context, email, password string) (*Session, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	tok, err := e.backend.Login(ctx, email, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: "session.login_failed",
			Error:     auditError(err),
		})

		var apiErr *backend.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	userType := UserIndividual
	profileComplete := false
	if me, err := e.backend.Me(ctx, tok.AccessToken); err == nil {
		if me.Role == string(UserAdvisor) {
			userType = UserAdvisor
		}
		profileComplete = me.Profile != nil
	}

	sess, err := e.establishSession(ctx, tok.AccessToken, userType, profileComplete)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: "session.login",
		UserType:  string(userType),
		Success:   true,
	})

	return sess, nil
}

// establishSession persists the session, capping its lifetime to the access
// token's expiry when the token carries one.
func (e *Engine) establishSession(ctx context.Context, token string, userType UserType, profileComplete bool) (*Session, error) {
	rec := &session.Session{
		Token:           token,
		UserType:        string(userType),
		ProfileComplete: profileComplete,
		ExpiresAt:       tokenExpiry(token),
	}
	if err := e.sessions.Save(ctx, rec); err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionEstablished)

	return &Session{
		Token:           token,
		UserType:        userType,
		ProfileComplete: profileComplete,
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client never validates tokens; it only avoids storing one past its
// lifetime. A token without a readable expiry reports 0.
func tokenExpiry(token string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}

// CurrentSession returns the established session, or ErrSessionNotFound.
func (e *Engine) CurrentSession(ctx context.Context) (*Session, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &Session{
		Token:           rec.Token,
		UserType:        UserType(rec.UserType),
		ProfileComplete: rec.ProfileComplete,
	}, nil
}

// Me fetches the authenticated profile using the current session's token.
func (e *Engine) Me(ctx context.Context) (*backend.MeResponse, error) {
	sess, err := e.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	return e.backend.Me(ctx, sess.Token)
}

// RouteAfterAuth decides the post-auth landing route: no session routes to
// login, an incomplete profile routes into the matching onboarding flow, and
// a complete profile routes to the dashboard.
func (e *Engine) RouteAfterAuth(ctx context.Context) (Route, error) {
	sess, err := e.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return RouteLogin, nil
		}
		return RouteLogin, err
	}

	if sess.ProfileComplete {
		return RouteDashboard, nil
	}
	if sess.UserType == UserAdvisor {
		return RouteOnboardingProfessional, nil
	}
	return RouteOnboardingPersonal, nil
}

// Teardown clears the session and any active draft. Tearing down with
// nothing established is not an error.
func (e *Engine) Teardown(ctx context.Context) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.Clear(ctx); err != nil {
		return err
	}

	if id, err := e.drafts.ActiveID(ctx); err == nil {
		if err := e.drafts.Clear(ctx, id); err != nil {
			return err
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	e.metricInc(MetricTeardown)
	e.emitAudit(ctx, AuditEvent{
		EventType: "session.teardown",
		Success:   true,
	})

	return nil
}
