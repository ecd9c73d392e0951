package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/walletledger/internal/auth"
	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/middleware"
)

const AuthServiceName = "AuthService"

// Procedures reachable without a token.
var (
	AuthServiceRegisterProcedure = ServicePrefix + AuthServiceName + "/Register"
	AuthServiceLoginProcedure    = ServicePrefix + AuthServiceName + "/Login"
)

// PublicProcedures lists the procedures RequireAuth lets through.
func PublicProcedures() []string {
	return []string{AuthServiceRegisterProcedure, AuthServiceLoginProcedure}
}

type RegisterRequest struct {
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	Password        string `json:"password"`
	DefaultCurrency string `json:"default_currency"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type UserResponse struct {
	User *User `json:"user"`
}

// AuthService issues session tokens. Identity stays behind the
// Authenticator; the ledger only sees the owner ID.
type AuthService struct {
	authenticator auth.Authenticator
	users         auth.UserStorage
	jwtManager    *auth.JWTManager
	ledger        *ledger.Ledger
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, users auth.UserStorage, jwtManager *auth.JWTManager, l *ledger.Ledger, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
		ledger:        l,
		logger:        logger,
	}
}

// Register creates a new user account and seeds its default wallet and categories.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	displayName := strings.TrimSpace(req.Msg.DisplayName)
	if displayName == "" {
		return nil, invalidArgument("display name is required")
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, displayName, req.Msg.Password, req.Msg.DefaultCurrency)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, authError(err)
	}

	// the account exists either way; seeding can be retried via InitializeDefaults
	if _, err := s.ledger.InitializeDefaults(ctx, user.ID, user.DefaultCurrency); err != nil {
		s.logger.Error("Failed to seed defaults", "user_id", user.ID, "error", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&AuthResponse{User: userFromModel(user), Token: token}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, authError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&AuthResponse{User: userFromModel(user), Token: token}), nil
}

// Logout revokes the token the request was made with.
func (s *AuthService) Logout(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[Empty], error) {
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	s.jwtManager.Revoke(claims)
	s.logger.Info("User logged out", "user_id", claims.UserID)
	return connect.NewResponse(&Empty{}), nil
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[UserResponse], error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		// a valid token for a vanished account is no longer a session
		s.logger.Warn("Token owner not found", "user_id", id, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	return connect.NewResponse(&UserResponse{User: userFromModel(user)}), nil
}

// NewAuthServiceHandler builds the HTTP handler serving s.
func NewAuthServiceHandler(s *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(AuthServiceName, opts)
	handle(p, "Register", s.Register)
	handle(p, "Login", s.Login)
	handle(p, "Logout", s.Logout)
	handle(p, "Me", s.Me)
	return p.path(), p.mux
}

// AuthServiceClient calls an AuthService over HTTP.
type AuthServiceClient struct{ c *rpcClient }

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	return &AuthServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	return callUnary[RegisterRequest, AuthResponse](ctx, c.c, AuthServiceName, "Register", req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	return callUnary[LoginRequest, AuthResponse](ctx, c.c, AuthServiceName, "Login", req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[Empty], error) {
	return callUnary[Empty, Empty](ctx, c.c, AuthServiceName, "Logout", req)
}

func (c *AuthServiceClient) Me(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[UserResponse], error) {
	return callUnary[Empty, UserResponse](ctx, c.c, AuthServiceName, "Me", req)
}
