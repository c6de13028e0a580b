package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	cfg "github.com/maheshrc27/creatorpulse/configs"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaService mirrors avatar and thumbnail images into R2. Platform CDN
// URLs expire, so the product serves copies we own instead. Mirroring is
// best-effort: any failure keeps the original URL and never fails a sync.
type MediaService struct {
	config cfg.Config
	http   *http.Client
}

func NewMediaService(cfg cfg.Config) *MediaService {
	return &MediaService{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *MediaService) r2Client() (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(m.config.R2.AccessKey, m.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", m.config.R2.AccountID))
	}), nil
}

// Enabled reports whether R2 credentials are configured at all; deployments
// without them keep serving upstream URLs.
func (m *MediaService) Enabled() bool {
	return m.config.R2.AccountID != "" && m.config.R2.BucketName != ""
}

// MirrorImage downloads the image at srcURL, uploads it under the given key
// prefix and returns the stored URL. On any failure it returns srcURL.
func (m *MediaService) MirrorImage(ctx context.Context, keyPrefix, srcURL string) string {
	if !m.Enabled() || srcURL == "" {
		return srcURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return srcURL
	}
	resp, err := m.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return srcURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("media fetch returned non-200 status", "status", resp.StatusCode)
		return srcURL
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		slog.Info(err.Error())
		return srcURL
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(body); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	suffix, err := gonanoid.New(12)
	if err != nil {
		slog.Info(err.Error())
		return srcURL
	}
	key := fmt.Sprintf("%s/%s", keyPrefix, suffix)

	client, err := m.r2Client()
	if err != nil {
		slog.Info(err.Error())
		return srcURL
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return srcURL
	}

	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s/%s", m.config.R2.AccountID, m.config.R2.BucketName, key)
}
