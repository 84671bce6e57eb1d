// Package archive keeps a copy of every uploaded import file.
//
// Stored names follow "<unix millis>_<sanitized original name>" so uploads of
// the same file never overwrite each other and sort by arrival.
package archive

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by New.
const (
	BackendNone  = "none"
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Archiver stores upload bytes and returns where they went.
type Archiver interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// StoredName builds the archive name for fileName uploaded at now.
//
//	"Q1 Listings (final).xlsx" -> "1718000000000_Q1_Listings__final_.xlsx"
func StoredName(now time.Time, fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || strings.Trim(base, ".") == "" {
		base = "upload"
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + base
}

// Nop discards uploads.
type Nop struct{}

func (Nop) Save(context.Context, string, []byte) (string, error) { return "", nil }

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// New builds the archiver named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Archiver, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendNone:
		return Nop{}, nil
	case BackendLocal:
		return NewLocal(cfg.Dir)
	case BackendS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
