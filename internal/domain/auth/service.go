package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	SessionTTL = 8 * time.Hour
	ResetTTL   = 2 * time.Hour
	mfaIssuer  = "Vacations"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrMFAUnavailable     = errors.New("mfa requires encryption key")
	ErrMFANotSetUp        = errors.New("mfa setup required")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// StoreAPI is the persistence the service needs; *Store implements it.
type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error
	UpdateLastLogin(ctx context.Context, userID string) error
	RevokeSession(ctx context.Context, userID, sessionHash string) error
	SessionValid(ctx context.Context, userID, sessionHash string) (bool, error)
	RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error
	UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error
	GetMFASecret(ctx context.Context, userID string) ([]byte, error)
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
	UserIDByEmail(ctx context.Context, email string) (string, error)
	CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error
	CompletePasswordReset(ctx context.Context, tokenHash, passwordHash string) (string, error)
}

// SecretBox seals MFA secrets at rest.
type SecretBox interface {
	Configured() bool
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}

type Service struct {
	Store  StoreAPI
	Secret string
	Crypto SecretBox
	now    func() time.Time
}

func NewService(store StoreAPI, secret string, crypto SecretBox) *Service {
	return &Service{Store: store, Secret: secret, Crypto: crypto, now: time.Now}
}

type LoginResult struct {
	Token string
	User  UserContext
}

func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (LoginResult, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.openSecret(user.MFASecretEn)
		if err != nil || secret == "" || !totp.Validate(mfaCode, secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	sessionID, err := NewOpaqueToken()
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.CreateSession(ctx, user.ID, HashToken(sessionID), s.now().Add(SessionTTL)); err != nil {
		return LoginResult{}, err
	}

	uc := UserContext{UserID: user.ID, RoleID: user.RoleID, RoleName: user.RoleName, SessionID: sessionID}
	token, err := GenerateToken(s.Secret, Claims{UserID: uc.UserID, RoleID: uc.RoleID, RoleName: uc.RoleName, SessionID: sessionID}, SessionTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return LoginResult{Token: token, User: uc}, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, user.UserID, HashToken(user.SessionID))
}

// Refresh rotates the session behind a still-valid token and issues a new one.
func (s *Service) Refresh(ctx context.Context, tokenString string) (string, error) {
	claims, err := ParseToken(s.Secret, tokenString)
	if err != nil {
		return "", ErrSessionExpired
	}
	ok, err := s.Store.SessionValid(ctx, claims.UserID, HashToken(claims.SessionID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSessionExpired
	}

	newSessionID, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.Store.RotateSession(ctx, claims.UserID, HashToken(claims.SessionID), HashToken(newSessionID), s.now().Add(SessionTTL)); err != nil {
		return "", err
	}
	return GenerateToken(s.Secret, Claims{
		UserID:    claims.UserID,
		RoleID:    claims.RoleID,
		RoleName:  claims.RoleName,
		SessionID: newSessionID,
	}, SessionTTL)
}

// SessionActive is used by the auth middleware to honour logout.
func (s *Service) SessionActive(ctx context.Context, userID, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.Store.SessionValid(ctx, userID, HashToken(sessionID))
}

// RequestReset creates a reset token for an active account. The token is
// returned so the caller can deliver it; unknown emails yield "" and no error.
func (s *Service) RequestReset(ctx context.Context, email string) (string, string, error) {
	userID, err := s.Store.UserIDByEmail(ctx, email)
	if err != nil {
		return "", "", nil
	}
	token, err := NewOpaqueToken()
	if err != nil {
		return "", "", err
	}
	if err := s.Store.CreatePasswordReset(ctx, userID, HashToken(token), s.now().Add(ResetTTL)); err != nil {
		return "", "", err
	}
	return userID, token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if len(newPassword) < 8 {
		return "", ErrWeakPassword
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	// the token is consumed, the password replaced and open sessions revoked together
	userID, err := s.Store.CompletePasswordReset(ctx, HashToken(token), hash)
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

func (s *Service) SetupMFA(ctx context.Context, user UserContext, accountName string) (MFASetup, error) {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	if accountName == "" {
		accountName = user.UserID
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	sealed, err := s.Crypto.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.Store.UpdateMFASecret(ctx, user.UserID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// SetMFA enables or disables MFA after verifying a current code.
func (s *Service) SetMFA(ctx context.Context, user UserContext, code string, enabled bool) error {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return ErrMFAUnavailable
	}
	sealed, err := s.Store.GetMFASecret(ctx, user.UserID)
	if err != nil || len(sealed) == 0 {
		return ErrMFANotSetUp
	}
	secret, err := s.Crypto.DecryptString(sealed)
	if err != nil {
		return ErrMFAInvalid
	}
	if !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return s.Store.SetMFAEnabled(ctx, user.UserID, enabled)
}

func (s *Service) openSecret(sealed []byte) (string, error) {
	if s.Crypto != nil && s.Crypto.Configured() {
		return s.Crypto.DecryptString(sealed)
	}
	return string(sealed), nil
}
