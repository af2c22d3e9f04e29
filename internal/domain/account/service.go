package account

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/auth"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/db"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/outbox"
)

const (
	MsgPasswordMismatch   = "Passwords do not match."
	MsgUsernameTaken      = "A user with that username already exists."
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidRole        = "Invalid role"
	MsgInvalidGender      = "Invalid gender"
)

// TokenIssuer is satisfied by *auth.TokenIssuer.
type TokenIssuer interface {
	Issue(userID int64, username, role string) (string, error)
}

type Service struct {
	users   UserRepository
	tokens  TokenIssuer
	revoker auth.Revoker
	tx      db.Transactor
	events  outbox.Recorder
}

func NewService(users UserRepository, tokens TokenIssuer, revoker auth.Revoker, tx db.Transactor, events outbox.Recorder) *Service {
	return &Service{users: users, tokens: tokens, revoker: revoker, tx: tx, events: events}
}

// Register creates a PATIENT or DOCTOR account and signs a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation(MsgPasswordMismatch)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, apperr.Validation("username is required")
	}
	if req.Password == "" {
		return nil, apperr.Validation("password is required")
	}
	if req.Role == "" {
		req.Role = access.RolePatient
	}
	if req.Role != access.RolePatient && req.Role != access.RoleDoctor {
		return nil, apperr.Validation(MsgInvalidRole)
	}
	if !req.Gender.Valid() {
		return nil, apperr.Validation(MsgInvalidGender)
	}

	u := &User{
		Username:    req.Username,
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Role:        req.Role,
	}
	if err := s.create(ctx, u, req.Password); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID, u.Username, string(u.Role))
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &AuthResponse{User: u, Token: token, Message: "User registered successfully"}, nil
}

// CreateAdmin bootstraps an ADMIN account. Registration never offers the role.
func (s *Service) CreateAdmin(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	u := &User{Username: username, Email: strings.TrimSpace(email), Role: access.RoleAdmin}
	if err := s.create(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) create(ctx context.Context, u *User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u.PasswordHash = hash

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				return apperr.Validation(MsgUsernameTaken)
			}
			return apperr.Internal("create user", err)
		}
		evt, err := outbox.NewEvent("user", strconv.FormatInt(u.ID, 10), outbox.UserRegistered, map[string]any{
			"user_id":  u.ID,
			"username": u.Username,
			"role":     u.Role,
		})
		if err != nil {
			return apperr.Internal("build event", err)
		}
		if err := s.events.Record(ctx, evt); err != nil {
			return apperr.Internal("record event", err)
		}
		return nil
	})
}

// Login checks the credentials and signs a new token. Unknown users and
// wrong passwords get the same answer.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, apperr.Internal("load user", err)
	}
	ok, err := auth.VerifyPassword(u.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(u.ID, u.Username, string(u.Role))
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &AuthResponse{User: u, Token: token, Message: "Login successful"}, nil
}

// Logout revokes the token identified by jti until it would have expired.
func (s *Service) Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	if jti == "" {
		return apperr.Unauthorized("invalid token")
	}
	if err := s.revoker.Revoke(ctx, jti, userID, expiresAt); err != nil {
		return apperr.Internal("revoke token", err)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("load user", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of upd to the caller's own record.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*User, error) {
	if upd.Gender != nil && !upd.Gender.Valid() {
		return nil, apperr.Validation(MsgInvalidGender)
	}
	if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
		return nil, apperr.Validation("username is required")
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	upd.apply(u)
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, apperr.Validation(MsgUsernameTaken)
		}
		return nil, apperr.Internal("update user", err)
	}
	return u, nil
}
