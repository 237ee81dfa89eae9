package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TestNoAuth tests the NoAuth authenticator.
func TestNoAuth(t *testing.T) {
	auth := NoAuth()
	for _, token := range []string{"any-token", ""} {
		identity, err := auth.Authenticate(context.Background(), token)
		if err != nil {
			t.Errorf("NoAuth should never return error, got: %v", err)
		}
		if identity != "anonymous" {
			t.Errorf("Expected identity 'anonymous', got '%s'", identity)
		}
	}
}

// TestBearerAuth tests validation function dispatch and error propagation.
func TestBearerAuth(t *testing.T) {
	customError := errors.New("custom validation error")
	auth := BearerAuth(func(token string) (string, error) {
		if token == "valid-token" {
			return "user123", nil
		}
		return "", customError
	})

	identity, err := auth.Authenticate(context.Background(), "valid-token")
	if err != nil || identity != "user123" {
		t.Errorf("got (%q, %v), want (user123, nil)", identity, err)
	}

	identity, err = auth.Authenticate(context.Background(), "invalid-token")
	if err != customError {
		t.Errorf("Expected custom error, got: %v", err)
	}
	if identity != "" {
		t.Errorf("Expected empty identity for invalid token, got '%s'", identity)
	}
}

// TestBearerAuthCancelledContext tests that a cancelled context short-circuits validation.
func TestBearerAuthCancelledContext(t *testing.T) {
	called := false
	auth := BearerAuth(func(token string) (string, error) {
		called = true
		return "user", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := auth.Authenticate(ctx, "token"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("validation function should not run for a cancelled context")
	}
}

// TestStaticTokens tests the fixed token table and its concurrency safety.
func TestStaticTokens(t *testing.T) {
	tokens := map[string]string{"t1": "alice", "t2": "bob"}
	auth := StaticTokens(tokens)
	tokens["t3"] = "mallory"

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, want := "t1", "alice"
			if i%2 == 0 {
				token, want = "t2", "bob"
			}
			identity, err := auth.Authenticate(ctx, token)
			if err != nil || identity != want {
				errs <- errors.New("unexpected identity: " + identity)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	for _, token := range []string{"t3", "", "t"} {
		if _, err := auth.Authenticate(ctx, token); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("token %q: expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestTokenFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "", wantErr: ErrTokenIsEmpty},
		{header: "Bearer ", wantErr: ErrTokenIsEmpty},
		{header: "Basic abc", wantErr: ErrInvalidAuthHeader},
	}
	for _, tt := range tests {
		got, err := TokenFromAuthorizationHeader(tt.header)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%q: error = %v, want %v", tt.header, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("%q: token = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestValidateToken(t *testing.T) {
	auth := StaticTokens(map[string]string{"secret": "svc"})

	ctx, err := ValidateToken(context.Background(), "secret", auth)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if got := IdentityFromContext(ctx); got != "svc" {
		t.Errorf("identity = %q, want svc", got)
	}

	if _, err := ValidateToken(context.Background(), "wrong", auth); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := ValidateToken(context.Background(), "", auth); !errors.Is(err, ErrTokenIsEmpty) {
		t.Errorf("expected ErrTokenIsEmpty, got %v", err)
	}
	if got := IdentityFromContext(context.Background()); got != "" {
		t.Errorf("expected empty identity, got %q", got)
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	interceptor := UnaryServerInterceptor(StaticTokens(map[string]string{"secret": "svc"}))
	handler := func(ctx context.Context, req any) (any, error) {
		return IdentityFromContext(ctx), nil
	}

	tests := []struct {
		name     string
		md       metadata.MD
		want     string
		wantCode codes.Code
	}{
		{name: "valid", md: metadata.Pairs("authorization", "Bearer secret"), want: "svc", wantCode: codes.OK},
		{name: "wrong token", md: metadata.Pairs("authorization", "Bearer nope"), wantCode: codes.Unauthenticated},
		{name: "bad scheme", md: metadata.Pairs("authorization", "secret"), wantCode: codes.Unauthenticated},
		{name: "no header", md: metadata.MD{}, wantCode: codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), tt.md)
			got, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, handler)
			if status.Code(err) != tt.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", status.Code(err), tt.wantCode, err)
			}
			if err == nil && got != tt.want {
				t.Errorf("identity = %v, want %s", got, tt.want)
			}
		})
	}

	passthrough := UnaryServerInterceptor(nil)
	if _, err := passthrough(context.Background(), nil, &grpc.UnaryServerInfo{}, handler); err != nil {
		t.Errorf("nil authenticator should pass through, got %v", err)
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func TestStreamServerInterceptor(t *testing.T) {
	interceptor := StreamServerInterceptor(StaticTokens(map[string]string{"secret": "svc"}))

	var identity string
	handler := func(srv any, ss grpc.ServerStream) error {
		identity = IdentityFromContext(ss.Context())
		return nil
	}

	ok := &fakeStream{ctx: metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer secret"))}
	if err := interceptor(nil, ok, &grpc.StreamServerInfo{}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity != "svc" {
		t.Errorf("identity = %q, want svc", identity)
	}

	bad := &fakeStream{ctx: context.Background()}
	if err := interceptor(nil, bad, &grpc.StreamServerInfo{}, handler); status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
}
