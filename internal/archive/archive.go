// Package archive keeps a copy of every uploaded production sheet.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver names a Store implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverNone       Driver = "none"
)

// Store persists raw upload payloads under a key.
// Delete of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	Driver() Driver
}

// Config selects and configures a Store.
type Config struct {
	Driver          string
	Root            string // fs
	Bucket          string // s3
	Region          string
	Endpoint        string // optional, e.g. MinIO
	PathStyle       bool
	AccessKeyID     string // optional, default credential chain otherwise
	SecretAccessKey string
}

// Open builds the Store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.Root)
	case DriverS3:
		return NewS3(ctx, cfg)
	case DriverNone:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", cfg.Driver)
	}
}

// Key builds uploads/<YYYY>/<MM>/<batchID>/<name> from the batch receive time.
func Key(receivedAt time.Time, batchID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	t := receivedAt.UTC()
	return fmt.Sprintf("uploads/%04d/%02d/%s/%s", t.Year(), int(t.Month()), batchID, name)
}

// Discard drops every payload.
type Discard struct{}

func (Discard) Put(context.Context, string, io.Reader, string) error { return nil }
func (Discard) Delete(context.Context, string) error                 { return nil }
func (Discard) Driver() Driver                                       { return DriverNone }
