package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/maheshrc27/autopost-api/configs"
	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
	"github.com/maheshrc27/autopost-api/internal/transfer"
	"github.com/maheshrc27/autopost-api/pkg/utils"
)

var ErrPlatformNotFound = errors.New("platform not found")

type PlatformService interface {
	List(ctx context.Context, userID int64) ([]*models.Platform, error)
	Add(ctx context.Context, userID int64, req transfer.PlatformRequest) (*models.Platform, error)
	Credential(ctx context.Context, userID, platformID int64) (models.PlatformCredential, error)
	DefaultCredential() models.PlatformCredential
	CheckConnection(ctx context.Context, userID, platformID int64) (*transfer.ConnectionInfo, error)
}

type platformService struct {
	cfg config.Config
	pr  repository.PlatformRepository
	ps  PublishService
}

func NewPlatformService(cfg config.Config, pr repository.PlatformRepository, ps PublishService) PlatformService {
	return &platformService{
		cfg: cfg,
		pr:  pr,
		ps:  ps,
	}
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.Platform, error) {
	platforms, err := s.pr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing platforms failed: %w", err)
	}
	return platforms, nil
}

// Add stores a site for userID with the secret encrypted at rest.
func (s *platformService) Add(ctx context.Context, userID int64, req transfer.PlatformRequest) (*models.Platform, error) {
	baseURL := NormalizeSiteURL(req.BaseURL)
	if baseURL == "" || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, newError(KindInvalidInput, "platform", "base_url, username and password are required", nil)
	}
	if req.Protocol != "" && models.ParseProtocol(req.Protocol) == models.ProtocolAuto && req.Protocol != "auto" {
		return nil, newError(KindInvalidInput, "platform", fmt.Sprintf("unknown protocol %q", req.Protocol), nil)
	}

	encrypted, err := utils.Encrypt([]byte(req.Password), []byte(s.cfg.EncryptionKey))
	if err != nil {
		return nil, newError(KindMisconfigured, "platform", "secret cannot be encrypted", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = baseURL
	}

	p := &models.Platform{
		UserID:          userID,
		Name:            name,
		BaseURL:         baseURL,
		Username:        strings.TrimSpace(req.Username),
		EncryptedSecret: encrypted,
		Protocol:        string(models.ParseProtocol(req.Protocol)),
	}
	p.ID, err = s.pr.Create(ctx, nil, p)
	if err != nil {
		return nil, fmt.Errorf("saving platform failed: %w", err)
	}

	slog.Info("platform added", "platform_id", p.ID, "user_id", userID, "site", baseURL)
	return p, nil
}

// Credential loads a stored platform owned by userID and decrypts its secret.
func (s *platformService) Credential(ctx context.Context, userID, platformID int64) (models.PlatformCredential, error) {
	p, err := s.pr.GetByID(ctx, platformID)
	if err != nil {
		return models.PlatformCredential{}, fmt.Errorf("fetching platform failed: %w", err)
	}
	if p == nil || p.UserID != userID {
		slog.Info(ErrPlatformNotFound.Error(), "platform_id", platformID, "user_id", userID)
		return models.PlatformCredential{}, ErrPlatformNotFound
	}

	secret, err := utils.Decrypt(p.EncryptedSecret, []byte(s.cfg.EncryptionKey))
	if err != nil {
		return models.PlatformCredential{}, newError(KindCredentialMissing, "platform", "stored secret cannot be decrypted", err)
	}

	return models.PlatformCredential{
		BaseURL:  NormalizeSiteURL(p.BaseURL),
		Username: p.Username,
		Secret:   secret,
		Protocol: models.ParseProtocol(p.Protocol),
	}, nil
}

// DefaultCredential is the site configured for unattended timer runs.
func (s *platformService) DefaultCredential() models.PlatformCredential {
	return models.PlatformCredential{
		BaseURL:  NormalizeSiteURL(s.cfg.Site.URL),
		Username: s.cfg.Site.Username,
		Secret:   s.cfg.Site.Password,
		Protocol: models.ParseProtocol(s.cfg.Site.Protocol),
	}
}

func (s *platformService) CheckConnection(ctx context.Context, userID, platformID int64) (*transfer.ConnectionInfo, error) {
	cred, err := s.Credential(ctx, userID, platformID)
	if err != nil {
		return nil, err
	}
	return s.ps.CheckConnection(ctx, cred)
}
