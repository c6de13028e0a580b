// Package vault owns the OAuth credential lifecycle: tokens are encrypted at
// rest, decrypted only for the duration of an external call, and renewed
// against the provider before they expire. Plaintext tokens are never logged.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/creatorpulse/configs"
	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrRefreshFailed means the provider rejected the refresh token, usually
// because the owner revoked access or the token aged out.
var ErrRefreshFailed = errors.New("token refresh failed")

// TokenSet is a freshly issued credential. RefreshToken may be empty when
// the provider keeps the old one valid.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Vault struct {
	cfg config.Config
	now func() time.Time
}

func New(cfg config.Config) *Vault {
	return &Vault{cfg: cfg, now: time.Now}
}

func NewWithClock(cfg config.Config, now func() time.Time) *Vault {
	return &Vault{cfg: cfg, now: now}
}

func (v *Vault) Encrypt(token string) (string, error) {
	return utils.Encrypt([]byte(token), []byte(v.cfg.SecretKey))
}

// Decrypt returns the plaintext token. A failure here is loud: it means the
// process secret changed or the row is corrupt, never "no token stored".
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	plaintext, err := utils.Decrypt(ciphertext, []byte(v.cfg.SecretKey))
	if err != nil {
		slog.Error("credential decryption failed", "err", err)
		return "", fmt.Errorf("credential vault: %w", err)
	}
	return plaintext, nil
}

// IsExpiringSoon reports whether the account's credential expires within the
// given horizon. Accounts without a credential never qualify.
func (v *Vault) IsExpiringSoon(sa *models.SocialAccount, horizonDays int) bool {
	if sa.TokenExpiresAt == nil {
		return false
	}
	horizon := time.Duration(horizonDays) * 24 * time.Hour
	return sa.TokenExpiresAt.Sub(v.now()) <= horizon
}

// Refresh exchanges the account's refresh token for a new credential. The
// decrypted token lives only in this call frame.
func (v *Vault) Refresh(ctx context.Context, sa *models.SocialAccount) (*TokenSet, error) {
	if sa.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored", ErrRefreshFailed)
	}

	refreshToken, err := v.Decrypt(sa.RefreshToken)
	if err != nil {
		return nil, err
	}

	switch sa.Platform {
	case models.PlatformYoutube:
		return v.refreshGoogle(ctx, refreshToken)
	default:
		return nil, fmt.Errorf("%w: platform %s has no OAuth credential", ErrRefreshFailed, sa.Platform)
	}
}

func (v *Vault) refreshGoogle(ctx context.Context, refreshToken string) (*TokenSet, error) {
	conf := &oauth2.Config{
		ClientID:     v.cfg.GoogleClientID,
		ClientSecret: v.cfg.GoogleClientSecret,
		RedirectURL:  v.cfg.GoogleRedirectURI,
		Endpoint:     google.Endpoint,
	}

	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		slog.Info("google token refresh rejected")
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	set := &TokenSet{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}
	// Google only rotates the refresh token sometimes.
	if token.RefreshToken != refreshToken {
		set.RefreshToken = token.RefreshToken
	}
	return set, nil
}
