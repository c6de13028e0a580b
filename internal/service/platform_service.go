package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	config "github.com/maheshrc27/creatorpulse/configs"
	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/repository"
)

const googleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

// PlatformService routes ingestion operations to the right adapter. Connect
// and Sync are the canonical entry points; AddPublicAccount and
// SyncPublicAccount survive only as aliases for older callers.
type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, tokenString string) string
	Connect(ctx context.Context, userID int64, platform, identifier string) (*models.SocialAccount, error)
	Sync(ctx context.Context, userID, accountID int64) (*models.SocialAccount, bool, error)
	SyncAccount(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, bool, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)

	// Deprecated: use Connect.
	AddPublicAccount(ctx context.Context, userID int64, platform, identifier string) (*models.SocialAccount, error)
	// Deprecated: use Sync.
	SyncPublicAccount(ctx context.Context, userID, accountID int64) (*models.SocialAccount, bool, error)
}

type platformService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
	ig  InstagramService
	tt  TiktokService
	tw  TwitterService
	yt  YoutubeService
}

func NewPlatformService(
	cfg config.Config,
	sa repository.SocialAccountRepository,
	ig InstagramService,
	tt TiktokService,
	tw TwitterService,
	yt YoutubeService) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
		ig:  ig,
		tt:  tt,
		tw:  tw,
		yt:  yt,
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, tokenString string) string {
	switch platform {
	case models.PlatformYoutube:
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/youtube.readonly")
		params.Add("state", tokenString)
		params.Add("access_type", "offline")
		params.Add("prompt", "consent")

		return fmt.Sprintf("%s?%s", googleAuthURL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) Connect(ctx context.Context, userID int64, platform, identifier string) (*models.SocialAccount, error) {
	switch platform {
	case models.PlatformInstagram:
		return s.ig.Connect(ctx, userID, identifier)
	case models.PlatformTiktok:
		return s.tt.Connect(ctx, userID, identifier)
	case models.PlatformTwitter:
		return s.tw.Connect(ctx, userID, identifier)
	case models.PlatformYoutube:
		return s.yt.Connect(ctx, userID, identifier)
	default:
		return nil, fmt.Errorf("%w: unsupported platform %q", ErrValidation, platform)
	}
}

func (s *platformService) Sync(ctx context.Context, userID, accountID int64) (*models.SocialAccount, bool, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if account == nil {
		return nil, false, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	if userID != 0 && account.UserID != userID {
		return nil, false, ErrForbidden
	}

	return s.SyncAccount(ctx, account)
}

// SyncAccount dispatches an already-loaded account to its adapter. The batch
// scheduler uses this to avoid a second lookup per account.
func (s *platformService) SyncAccount(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, bool, error) {
	switch account.Platform {
	case models.PlatformInstagram:
		return s.ig.Sync(ctx, account.ID)
	case models.PlatformTiktok:
		return s.tt.Sync(ctx, account.ID)
	case models.PlatformTwitter:
		return s.tw.Sync(ctx, account.ID)
	case models.PlatformYoutube:
		return s.yt.Sync(ctx, account.ID)
	default:
		return nil, false, fmt.Errorf("%w: unsupported platform %q", ErrValidation, account.Platform)
	}
}

func (s *platformService) Disconnect(ctx context.Context, userID, accountID int64) error {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}

	switch account.Platform {
	case models.PlatformInstagram:
		return s.ig.Disconnect(ctx, userID, accountID)
	case models.PlatformTiktok:
		return s.tt.Disconnect(ctx, userID, accountID)
	case models.PlatformTwitter:
		return s.tw.Disconnect(ctx, userID, accountID)
	case models.PlatformYoutube:
		return s.yt.Disconnect(ctx, userID, accountID)
	default:
		return fmt.Errorf("%w: unsupported platform %q", ErrValidation, account.Platform)
	}
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	if userID == 0 {
		err := fmt.Errorf("%w: user id is not valid", ErrValidation)
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}
	return accounts, nil
}

func (s *platformService) AddPublicAccount(ctx context.Context, userID int64, platform, identifier string) (*models.SocialAccount, error) {
	return s.Connect(ctx, userID, platform, identifier)
}

func (s *platformService) SyncPublicAccount(ctx context.Context, userID, accountID int64) (*models.SocialAccount, bool, error) {
	return s.Sync(ctx, userID, accountID)
}
