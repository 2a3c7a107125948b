package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

// ChunkSize is the read size used by streaming hashes.
const ChunkSize = 8 << 10

const (
	filesDir      = "files"
	thumbnailsDir = "thumbnails"
)

// Blob locates committed content.
type Blob struct {
	Digest       string
	RelativePath string // relative to the store root, e.g. files/ab/ab12...ef.pdf
	Size         int64
	Existed      bool // true when the digest was already stored
}

// Mirror receives a copy of each newly committed blob.
type Mirror interface {
	Put(ctx context.Context, key, localPath string, size int64) error
}

// Store is a content-addressed blob store rooted at a data directory.
type Store struct {
	root   string
	mirror Mirror
	logger *slog.Logger
}

type Option func(*Store)

// WithMirror uploads newly committed blobs to m.
func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// New creates the files and thumbnails subtrees under root.
func New(root string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, common.StorageError("resolve root", err)
	}
	s := &Store{root: abs, logger: logger}
	for _, o := range opts {
		o(s)
	}
	for _, d := range []string{filesDir, thumbnailsDir} {
		if err := os.MkdirAll(filepath.Join(abs, d), 0o755); err != nil {
			return nil, common.StorageError("create "+d, err)
		}
	}
	return s, nil
}

// Root returns the absolute store root.
func (s *Store) Root() string { return s.root }

// Abs resolves a store-relative path to an absolute one.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Hash returns the hex SHA-256 digest of b.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashReader digests r in ChunkSize reads and returns the byte count seen.
func HashReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := copyChunks(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	return io.CopyBuffer(dst, src, buf)
}

func validDigest(d string) bool {
	if len(d) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(d)
	return err == nil
}

func blobRel(digest, ext string) string {
	return filesDir + "/" + digest[:2] + "/" + digest + ext
}

// lookup finds a committed blob for digest regardless of its extension.
func (s *Store) lookup(digest string) (string, int64, bool) {
	shard := filepath.Join(s.root, filesDir, digest[:2])
	entries, err := os.ReadDir(shard)
	if err != nil {
		return "", 0, false
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (name != digest && !strings.HasPrefix(name, digest+".")) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		return filesDir + "/" + digest[:2] + "/" + name, info.Size(), true
	}
	return "", 0, false
}

// Exists reports whether any blob is stored for digest.
func (s *Store) Exists(digest string) bool {
	if !validDigest(digest) {
		return false
	}
	_, _, ok := s.lookup(digest)
	return ok
}

// Store writes content under its digest. An empty digest is computed from
// content. When the digest is already stored, nothing is written and the
// existing location is returned.
func (s *Store) Store(ctx context.Context, content []byte, digest, originalName string) (Blob, error) {
	if digest == "" {
		digest = Hash(content)
	}
	digest = strings.ToLower(digest)
	if !validDigest(digest) {
		return Blob{}, common.NewAppError("INVALID_DIGEST", fmt.Sprintf("malformed digest %q", digest), common.ErrInvalidInput)
	}
	if rel, size, ok := s.lookup(digest); ok {
		s.logger.Debug("store.blob.exists", "digest", digest, "path", rel)
		return Blob{Digest: digest, RelativePath: rel, Size: size, Existed: true}, nil
	}

	tmp, err := s.tempIn(digest)
	if err != nil {
		return Blob{}, err
	}
	if _, err := tmp.Write(content); err != nil {
		discard(tmp)
		return Blob{}, common.StorageError("write blob", err)
	}
	return s.commit(ctx, tmp, digest, constants.ExtOf(originalName), int64(len(content)))
}

// StoreFromPath copies the file at path into the store, hashing it in the
// same streaming pass. Size is counted from the bytes read, not from stat.
func (s *Store) StoreFromPath(ctx context.Context, path string) (Blob, error) {
	src, err := os.Open(path)
	if err != nil {
		return Blob{}, common.StorageError("open source", err)
	}
	defer func() { _ = src.Close() }()

	// The shard is unknown until hashing finishes, so stage in the files root.
	tmp, err := os.CreateTemp(filepath.Join(s.root, filesDir), ".incoming-*")
	if err != nil {
		return Blob{}, common.StorageError("create temp", err)
	}

	h := sha256.New()
	n, err := copyChunks(io.MultiWriter(tmp, h), &ctxReader{ctx: ctx, r: src})
	if err != nil {
		discard(tmp)
		return Blob{}, common.StorageError("copy source", err)
	}
	digest := hex.EncodeToString(h.Sum(nil))

	if rel, size, ok := s.lookup(digest); ok {
		discard(tmp)
		s.logger.Debug("store.blob.exists", "digest", digest, "path", rel)
		return Blob{Digest: digest, RelativePath: rel, Size: size, Existed: true}, nil
	}
	if err := os.MkdirAll(filepath.Join(s.root, filesDir, digest[:2]), 0o755); err != nil {
		discard(tmp)
		return Blob{}, common.StorageError("create shard", err)
	}
	return s.commit(ctx, tmp, digest, constants.ExtOf(path), n)
}

func (s *Store) tempIn(digest string) (*os.File, error) {
	shard := filepath.Join(s.root, filesDir, digest[:2])
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return nil, common.StorageError("create shard", err)
	}
	tmp, err := os.CreateTemp(shard, ".incoming-*")
	if err != nil {
		return nil, common.StorageError("create temp", err)
	}
	return tmp, nil
}

// commit syncs and renames tmp into its final location. Nothing appears at the
// final path unless every byte has been written.
func (s *Store) commit(ctx context.Context, tmp *os.File, digest, ext string, size int64) (Blob, error) {
	if err := tmp.Sync(); err != nil {
		discard(tmp)
		return Blob{}, common.StorageError("sync blob", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Blob{}, common.StorageError("close blob", err)
	}

	// A concurrent writer may have committed the same digest meanwhile.
	if rel, existing, ok := s.lookup(digest); ok {
		_ = os.Remove(tmp.Name())
		return Blob{Digest: digest, RelativePath: rel, Size: existing, Existed: true}, nil
	}

	rel := blobRel(digest, ext)
	if err := os.Rename(tmp.Name(), s.Abs(rel)); err != nil {
		_ = os.Remove(tmp.Name())
		return Blob{}, common.StorageError("commit blob", err)
	}
	s.logger.Info("store.blob.write", "digest", digest, "path", rel, "size", size)

	if s.mirror != nil {
		if err := s.mirror.Put(ctx, rel, s.Abs(rel), size); err != nil {
			s.logger.Warn("store.mirror.failed", "path", rel, "error", err)
		}
	}
	return Blob{Digest: digest, RelativePath: rel, Size: size}, nil
}

func discard(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}

// Delete removes a blob. It reports false when nothing was there.
func (s *Store) Delete(rel string) (bool, error) {
	abs, err := s.within(rel)
	if err != nil {
		return false, err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, common.StorageError("delete blob", err)
	}
	s.logger.Info("store.blob.delete", "path", rel)
	return true, nil
}

func (s *Store) within(rel string) (string, error) {
	abs := s.Abs(rel)
	r, err := filepath.Rel(s.root, abs)
	if err != nil || r == "." || strings.HasPrefix(r, "..") {
		return "", common.NewAppError("INVALID_PATH", fmt.Sprintf("path %q escapes the store", rel), common.ErrInvalidInput)
	}
	return abs, nil
}

func thumbnailRel(itemID string) string {
	return thumbnailsDir + "/" + itemID + ".jpg"
}

// SaveThumbnail writes a JPEG thumbnail keyed by the owning item's ID and
// returns its relative path.
func (s *Store) SaveThumbnail(itemID string, data []byte) (string, error) {
	if itemID == "" || strings.ContainsAny(itemID, `/\`) {
		return "", common.NewAppError("INVALID_PATH", "invalid item id for thumbnail", common.ErrInvalidInput)
	}
	rel := thumbnailRel(itemID)
	tmp, err := os.CreateTemp(filepath.Join(s.root, thumbnailsDir), ".incoming-*")
	if err != nil {
		return "", common.StorageError("create thumbnail", err)
	}
	if _, err := tmp.Write(data); err != nil {
		discard(tmp)
		return "", common.StorageError("write thumbnail", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", common.StorageError("close thumbnail", err)
	}
	if err := os.Rename(tmp.Name(), s.Abs(rel)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", common.StorageError("commit thumbnail", err)
	}
	return rel, nil
}

// DeleteThumbnail removes an item's thumbnail, reporting false when absent.
func (s *Store) DeleteThumbnail(itemID string) (bool, error) {
	return s.Delete(thumbnailRel(itemID))
}

// ctxReader stops a long copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
