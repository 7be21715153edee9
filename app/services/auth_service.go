package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/auth"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/orm"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

type SignUpInput struct {
	Email    string `json:"email"     validate:"required,email,max=255"`
	Password string `json:"password"  validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"notblank,max=255"`
	Role     string `json:"role"      validate:"omitempty,oneof=buyer vendor"`
}

type SignInInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignInResult is handed back to the client after a successful sign-in.
type SignInResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   models.Profile `json:"profile"`
}

// Me is the signed-in account with its store, if it has one.
type Me struct {
	Profile models.Profile        `json:"profile"`
	Vendor  *models.VendorProfile `json:"vendor,omitempty"`
}

type AuthService struct {
	profiles *repositories.ProfileRepository
	vendors  *repositories.VendorRepository
	sessions session.Store
}

func NewAuthService(db *gorm.DB, sessions session.Store) *AuthService {
	return &AuthService{
		profiles: repositories.NewProfileRepository(db),
		vendors:  repositories.NewVendorRepository(db),
		sessions: sessions,
	}
}

// SignUp registers a buyer or vendor account. Admins are never self-made.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.Profile, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := check(in); err != nil {
		return models.Profile{}, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleBuyer
	}

	_, err := s.profiles.FindByEmail(ctx, in.Email)
	if err == nil {
		return models.Profile{}, ErrEmailTaken
	}
	if !errors.Is(err, orm.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("auth: look up email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Profile{}, fmt.Errorf("auth: hash password: %w", err)
	}
	p := models.Profile{
		Email:        in.Email,
		FullName:     in.FullName,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.profiles.Create(ctx, &p); err != nil {
		// Lost a race with another sign-up for the same address.
		if _, again := s.profiles.FindByEmail(ctx, in.Email); again == nil {
			return models.Profile{}, ErrEmailTaken
		}
		return models.Profile{}, fmt.Errorf("auth: create profile: %w", err)
	}
	logger.WithCtx(ctx).Info("auth: signed up", "user_id", p.ID, "role", p.Role)
	return p, nil
}

// SignIn checks the password, opens a session and returns a token bound to it.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (SignInResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := check(in); err != nil {
		return SignInResult{}, err
	}
	p, err := s.profiles.FindByEmail(ctx, in.Email)
	if errors.Is(err, orm.ErrNotFound) {
		return SignInResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: look up email: %w", err)
	}
	if !auth.CheckPassword(p.PasswordHash, in.Password) {
		return SignInResult{}, ErrInvalidCredentials
	}

	ttl := config.SessionTTL()
	if jt := config.JWTTTL(); jt < ttl {
		ttl = jt
	}
	sess := session.New(p.ID, p.Role, ttl)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return SignInResult{}, fmt.Errorf("auth: save session: %w", err)
	}
	token, err := auth.GenerateToken(p.ID, p.Role, sess.ID, ttl)
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: sign token: %w", err)
	}
	logger.WithCtx(ctx).Info("auth: signed in", "user_id", p.ID, "session_id", sess.ID)
	return SignInResult{Token: token, ExpiresAt: sess.ExpiresAt, Profile: p}, nil
}

// SignOut ends the session. Tokens issued for it stop working at once.
func (s *AuthService) SignOut(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (Me, error) {
	p, err := s.profiles.FindByID(ctx, userID)
	if errors.Is(err, orm.ErrNotFound) {
		return Me{}, ErrNotFound
	}
	if err != nil {
		return Me{}, err
	}
	out := Me{Profile: p}
	v, err := s.vendors.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		out.Vendor = &v
	case !errors.Is(err, orm.ErrNotFound):
		return Me{}, err
	}
	return out, nil
}
