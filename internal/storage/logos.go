// Package storage signs direct-to-S3 uploads for charity logos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/reusefull/reusefull/backend/matching-service/internal/config"
)

// UploadURLExpiry is how long a signed logo upload stays valid.
const UploadURLExpiry = 60 * time.Second

// ErrNotConfigured is returned when no logo bucket is set.
var ErrNotConfigured = errors.New("s3 logo bucket not configured")

var unsafeKeyChars = regexp.MustCompile(`[^\w.\-]`)

// LogoUpload is a signed PUT target together with the object's eventual public URL.
type LogoUpload struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
}

// LogoSigner presigns S3 PUT requests under charities/{sub}/.
type LogoSigner struct {
	presign *s3.PresignClient
	bucket  string
	region  string
	urlFmt  string
	now     func() time.Time
}

// NewLogoSigner loads the default AWS credential chain for cfg.Region.
// An empty bucket yields a signer whose Enabled reports false.
func NewLogoSigner(ctx context.Context, cfg config.AWSConfig) (*LogoSigner, error) {
	if cfg.LogoBucket == "" {
		return &LogoSigner{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewLogoSignerFromClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewLogoSignerFromClient wraps an existing S3 client.
func NewLogoSignerFromClient(client *s3.Client, cfg config.AWSConfig) *LogoSigner {
	urlFmt := cfg.PublicURLFmt
	if urlFmt == "" {
		urlFmt = "https://%s.s3.%s.amazonaws.com/%s"
	}
	return &LogoSigner{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.LogoBucket,
		region:  cfg.Region,
		urlFmt:  urlFmt,
		now:     time.Now,
	}
}

// Enabled reports whether the signer has a bucket and presign client. A nil
// signer is disabled.
func (s *LogoSigner) Enabled() bool { return s != nil && s.presign != nil && s.bucket != "" }

// SafeFileName replaces every character outside [A-Za-z0-9_.-] with '_'.
func SafeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// LogoKey builds the object key for a logo uploaded by sub at t.
func LogoKey(sub, fileName string, t time.Time) string {
	return fmt.Sprintf("charities/%s/%d-%s", url.PathEscape(sub), t.UnixMilli(), SafeFileName(fileName))
}

// SignLogoUpload returns a presigned PUT URL for the caller's logo.
func (s *LogoSigner) SignLogoUpload(ctx context.Context, sub, fileName, contentType string) (*LogoUpload, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	key := LogoKey(sub, fileName, s.now())
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign logo upload: %w", err)
	}
	return &LogoUpload{
		UploadURL: req.URL,
		PublicURL: fmt.Sprintf(s.urlFmt, s.bucket, s.region, key),
		Key:       key,
	}, nil
}
