package v1

import (
	"context"
	"errors"
	"testing"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

type mockAuthProvider struct {
	signUpFn         func(ctx context.Context, email, password string) (*domain.User, error)
	signInFn         func(ctx context.Context, email, password string) (*domain.Session, error)
	getUserFn        func(ctx context.Context, accessToken string) (*domain.User, error)
	refreshSessionFn func(ctx context.Context, refreshToken string) (*domain.Session, error)

	getUserCalls int
	refreshCalls int
}

func (m *mockAuthProvider) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password)
	}
	return &domain.User{ID: "u1", Email: email}, nil
}

func (m *mockAuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return &domain.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		User:         domain.User{ID: "u1", Email: email},
	}, nil
}

func (m *mockAuthProvider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	m.getUserCalls++
	if m.getUserFn != nil {
		return m.getUserFn(ctx, accessToken)
	}
	return &domain.User{ID: "u1", Email: "a@b.com"}, nil
}

func (m *mockAuthProvider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	m.refreshCalls++
	if m.refreshSessionFn != nil {
		return m.refreshSessionFn(ctx, refreshToken)
	}
	return &domain.Session{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresIn:    3600,
		User:         domain.User{ID: "u1", Email: "a@b.com"},
	}, nil
}

func TestSignUpValidatesBeforeProviderCall(t *testing.T) {
	providerCalled := false
	provider := &mockAuthProvider{
		signUpFn: func(ctx context.Context, email, password string) (*domain.User, error) {
			providerCalled = true
			return &domain.User{ID: "u1", Email: email}, nil
		},
	}
	svc := NewAuthService(provider)

	_, err := svc.SignUp(context.Background(), "not-an-email", "abcdef")
	if !errors.Is(err, ErrInvalidEmailFormat) {
		t.Errorf("got %v, want ErrInvalidEmailFormat", err)
	}
	if providerCalled {
		t.Error("provider must not be called when validation fails")
	}
}

func TestLoginNoSessionFromProvider(t *testing.T) {
	provider := &mockAuthProvider{
		signInFn: func(ctx context.Context, email, password string) (*domain.Session, error) {
			return nil, nil
		},
	}
	svc := NewAuthService(provider)

	_, err := svc.Login(context.Background(), "a@b.com", "abcdef")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("got %v, want ErrNoSession", err)
	}
}

func TestLoginSurfacesProviderError(t *testing.T) {
	provider := &mockAuthProvider{
		signInFn: func(ctx context.Context, email, password string) (*domain.Session, error) {
			return nil, &domain.ProviderError{Status: 400, Message: "Invalid login credentials"}
		},
	}
	svc := NewAuthService(provider)

	_, err := svc.Login(context.Background(), "a@b.com", "abcdef")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want a ProviderError", err)
	}
	if pe.Status != 400 {
		t.Errorf("got status %d, want 400", pe.Status)
	}
}

func TestResolveIdentityAccessValid(t *testing.T) {
	provider := &mockAuthProvider{}
	svc := NewAuthService(provider)

	user, rotated, err := svc.ResolveIdentity(context.Background(), "access-1", "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Errorf("got user %+v, want u1", user)
	}
	if rotated != nil {
		t.Error("no rotation expected when the access token is valid")
	}
	if provider.refreshCalls != 0 {
		t.Errorf("refresh called %d times, want 0: refresh must never be proactive", provider.refreshCalls)
	}
}

func TestResolveIdentityTransparentRefresh(t *testing.T) {
	provider := &mockAuthProvider{
		getUserFn: func(ctx context.Context, accessToken string) (*domain.User, error) {
			return nil, &domain.ProviderError{Status: 401, Message: "token expired"}
		},
	}
	svc := NewAuthService(provider)

	user, rotated, err := svc.ResolveIdentity(context.Background(), "stale-access", "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Errorf("got user %+v, want u1", user)
	}
	if rotated == nil {
		t.Fatal("expected a rotated session")
	}
	if rotated.AccessToken == "stale-access" {
		t.Error("rotated access token must differ from the stale one")
	}
	if provider.refreshCalls != 1 {
		t.Errorf("refresh called %d times, want 1", provider.refreshCalls)
	}
}

func TestResolveIdentityRefreshRejected(t *testing.T) {
	provider := &mockAuthProvider{
		getUserFn: func(ctx context.Context, accessToken string) (*domain.User, error) {
			return nil, &domain.ProviderError{Status: 401, Message: "token expired"}
		},
		refreshSessionFn: func(ctx context.Context, refreshToken string) (*domain.Session, error) {
			return nil, &domain.ProviderError{Status: 401, Message: "Invalid Refresh Token"}
		},
	}
	svc := NewAuthService(provider)

	_, _, err := svc.ResolveIdentity(context.Background(), "stale", "dead")
	if !errors.Is(err, ErrRefreshFailed) {
		t.Errorf("got %v, want ErrRefreshFailed", err)
	}
}

func TestResolveIdentityNoTokens(t *testing.T) {
	provider := &mockAuthProvider{}
	svc := NewAuthService(provider)

	_, _, err := svc.ResolveIdentity(context.Background(), "", "")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("got %v, want ErrNotAuthenticated", err)
	}
	if provider.getUserCalls != 0 || provider.refreshCalls != 0 {
		t.Error("no provider calls expected without tokens")
	}
}

func TestResolveIdentityRefreshOnlyNoAccessToken(t *testing.T) {
	provider := &mockAuthProvider{}
	svc := NewAuthService(provider)

	user, rotated, err := svc.ResolveIdentity(context.Background(), "", "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || rotated == nil {
		t.Fatal("expected user and rotated session from the refresh path")
	}
	if provider.getUserCalls != 0 {
		t.Errorf("getUser called %d times, want 0 without an access token", provider.getUserCalls)
	}
}

func TestGetUserRetriesTransientFailures(t *testing.T) {
	calls := 0
	provider := &mockAuthProvider{
		getUserFn: func(ctx context.Context, accessToken string) (*domain.User, error) {
			calls++
			if calls < 2 {
				return nil, errors.New("connection reset")
			}
			return &domain.User{ID: "u1"}, nil
		},
	}
	svc := NewAuthService(provider)

	user, err := svc.GetUser(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("got %q, want u1", user.ID)
	}
	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
}
