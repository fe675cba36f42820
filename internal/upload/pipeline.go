// Package upload stores product images under collision-resistant keys and
// returns their public URLs in input order.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUploadFailed aborts the whole batch: one failed file means no product
// document is created. Blobs stored before the failure are not rolled back;
// nothing transactional spans the blob store and the database.
var ErrUploadFailed = errors.New("failed to upload images")

// BlobStore is the external object store: put bytes under a key, resolve a
// public URL for the resulting reference.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (ref string, err error)
	PublicURL(ref string) string
}

type File struct {
	Name    string
	Content io.Reader
}

type Pipeline struct {
	blobs  BlobStore
	prefix string
}

func NewPipeline(blobs BlobStore, prefix string) *Pipeline {
	return &Pipeline{blobs: blobs, prefix: prefix}
}

// Upload stores each file sequentially, in input order, and returns the
// public URLs in the same order. The first failure aborts the batch.
func (p *Pipeline) Upload(ctx context.Context, files []File, productName string) ([]string, error) {
	urls := make([]string, 0, len(files))

	for _, file := range files {
		key := p.uniqueKey(productName, file.Name)
		ref, err := p.blobs.Put(ctx, key, file.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUploadFailed, file.Name, err)
		}
		urls = append(urls, p.blobs.PublicURL(ref))
	}

	return urls, nil
}

// uniqueKey builds {productName}-{epochMillis}-{randomToken}{.ext}. The
// timestamp plus random token keeps two same-named uploads from colliding.
func (p *Pipeline) uniqueKey(productName, originalName string) string {
	ext := path.Ext(originalName)
	token := strings.SplitN(uuid.New().String(), "-", 2)[0]
	key := fmt.Sprintf("%s-%d-%s%s", sanitize(productName), time.Now().UnixMilli(), token, ext)
	if p.prefix != "" {
		return p.prefix + "/" + key
	}
	return key
}

// sanitize keeps keys path-safe; product names come from a free-text form.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
}
