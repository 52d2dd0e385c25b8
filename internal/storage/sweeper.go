package storage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// LogoPrefix is the key prefix every charity logo is uploaded under.
const LogoPrefix = "charities/"

// ObjectStore is the subset of the S3 API the sweeper calls.
type ObjectStore interface {
	s3.ListObjectsV2APIClient
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Checked      int            `json:"checked"`
	Deleted      int            `json:"deleted"`
	Retained     int            `json:"retained"`
	Errors       int            `json:"errors"`
	ErrorReasons map[string]int `json:"error_reasons,omitempty"`
	// Orphans lists unreferenced keys past the grace period (dry runs only).
	Orphans []string `json:"orphans,omitempty"`
	// Missing lists referenced keys that are not in the bucket.
	Missing []string `json:"missing,omitempty"`
}

// Sweeper deletes uploaded logos that no charity references. Uploads younger
// than the grace period are kept so in-progress signups are not disturbed.
type Sweeper struct {
	// DryRun reports orphans instead of deleting them.
	DryRun bool

	client ObjectStore
	bucket string
	grace  time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSweeper creates a sweeper for bucket that keeps objects younger than grace.
// A nil logger discards log output.
func NewSweeper(client ObjectStore, bucket string, grace time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{client: client, bucket: bucket, grace: grace, now: time.Now, logger: logger}
}

// KeyFromURL returns the object key a stored logo URL points at, or "" when
// the URL is not a logo upload.
func KeyFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	key := strings.TrimPrefix(u.EscapedPath(), "/")
	if !strings.HasPrefix(key, LogoPrefix) {
		return ""
	}
	return key
}

// ReferencedKeys maps stored logo URLs to the set of keys still in use.
func ReferencedKeys(urls []string) map[string]bool {
	keys := make(map[string]bool, len(urls))
	for _, u := range urls {
		if k := KeyFromURL(u); k != "" {
			keys[k] = true
		}
	}
	return keys
}

// Sweep lists every object under LogoPrefix and deletes the ones that are past
// the grace period and absent from referenced. Delete failures are counted and
// the sweep continues; a listing failure aborts it.
func (s *Sweeper) Sweep(ctx context.Context, referenced map[string]bool) (SweepResult, error) {
	res := SweepResult{ErrorReasons: map[string]int{}}
	cutoff := s.now().Add(-s.grace)
	seen := make(map[string]bool)

	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(LogoPrefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return res, fmt.Errorf("list logos: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			res.Checked++
			seen[key] = true
			if referenced[key] || (obj.LastModified != nil && obj.LastModified.After(cutoff)) {
				res.Retained++
				continue
			}
			if s.DryRun {
				res.Orphans = append(res.Orphans, key)
				continue
			}
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
				res.Errors++
				res.ErrorReasons[deleteErrorReason(err)]++
				s.logger.Warn("delete orphaned logo failed", zap.String("key", key), zap.Error(err))
				continue
			}
			res.Deleted++
		}
	}

	for key := range referenced {
		if !seen[key] {
			res.Missing = append(res.Missing, key)
		}
	}
	sort.Strings(res.Missing)
	return res, nil
}

func deleteErrorReason(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "accessdenied"):
		return "s3_access_denied"
	case strings.Contains(msg, "timeout"):
		return "s3_timeout"
	case strings.Contains(msg, "notfound"):
		return "s3_not_found"
	default:
		return "s3_delete_error"
	}
}
