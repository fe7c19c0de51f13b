// Package storage keeps uploaded file contents outside the database.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrBlobTooLarge = errors.New("blob exceeds size limit")
)

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	Checksum string
}

// BlobStore stores opaque file contents addressed by generated keys.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalBlobStore writes blobs under a directory on the local filesystem.
type LocalBlobStore struct {
	root    string
	maxSize int64
}

func NewLocalBlobStore(root string, maxSize int64) (*LocalBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalBlobStore{root: root, maxSize: maxSize}, nil
}

// Put copies r into a new blob. Contents over the size limit are discarded
// and ErrBlobTooLarge is returned.
func (s *LocalBlobStore) Put(ctx context.Context, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	key := uuid.NewString()
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create blob dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), key+".*.tmp")
	if err != nil {
		return Object{}, fmt.Errorf("failed to create blob: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	hash, err := blake2b.New256(nil)
	if err != nil {
		f.Close()
		return Object{}, err
	}

	n, err := io.Copy(io.MultiWriter(f, hash), io.LimitReader(r, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if n > s.maxSize {
		return Object{}, ErrBlobTooLarge
	}

	if err := os.Rename(tmp, path); err != nil {
		return Object{}, fmt.Errorf("failed to commit blob: %w", err)
	}

	return Object{Key: key, Size: n, Checksum: hex.EncodeToString(hash.Sum(nil))}, nil
}

func (s *LocalBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if _, err := uuid.Parse(key); err != nil {
		return nil, ErrBlobNotFound
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *LocalBlobStore) Delete(_ context.Context, key string) error {
	if _, err := uuid.Parse(key); err != nil {
		return nil
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// path shards blobs by the first two key characters.
func (s *LocalBlobStore) path(key string) string {
	return filepath.Join(s.root, key[:2], key)
}
