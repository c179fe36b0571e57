// Package blob stores uploaded image bytes on the local filesystem and hands
// back the URL they are served under.
package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"homegoods/internal/domain"
	"homegoods/internal/logging"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the blob collaborator of the image service.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// allowed maps accepted content types to the file extension used on disk.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Detect sniffs the content type of data and returns the extension for it.
// Anything that is not one of the accepted image types is InvalidArgument.
func Detect(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok := allowed[m.String()]; ok {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidArgument, mt.String())
}

type Local struct {
	dir    string
	prefix string
	logger *zap.Logger
}

// NewLocal creates dir if needed. prefix is the public URL path files are
// served under.
func NewLocal(dir, prefix string, logger *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{
		dir:    dir,
		prefix: "/" + strings.Trim(prefix, "/"),
		logger: logging.OrNop(logger),
	}, nil
}

func (l *Local) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, err := Detect(data)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + ext

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", domain.AsStorage("store blob", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", domain.AsStorage("store blob", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", domain.AsStorage("store blob", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", domain.AsStorage("store blob", err)
	}

	url := path.Join(l.prefix, name)
	l.logger.Debug("blob stored", zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}

// Delete removes the file behind url. A file that is already gone is not an
// error.
func (l *Local) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, ok := l.nameOf(url)
	if !ok {
		return fmt.Errorf("%w: %s is not a stored blob", domain.ErrInvalidArgument, url)
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !os.IsNotExist(err) {
		return domain.AsStorage("delete blob", err)
	}
	l.logger.Debug("blob deleted", zap.String("url", url))
	return nil
}

func (l *Local) nameOf(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, l.prefix+"/")
	if !ok || rest == "" || strings.ContainsAny(rest, `/\`) || strings.HasPrefix(rest, ".") {
		return "", false
	}
	return rest, true
}
