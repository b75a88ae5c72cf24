package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
	"github.com/veldt-labs/datacore/internal/core/ports/driving"
	"github.com/veldt-labs/datacore/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// DefaultBlocklist skips files that commonly hold secrets.
var DefaultBlocklist = []string{".env", "*.key", "*.pem", "secrets/**"}

// IngestService runs the write-side pipeline: scan, diff, normalise,
// chunk, embed, persist. A run-level lock file guarantees a single
// writer; searches may run concurrently and see each per-source
// replace atomically.
type IngestService struct {
	registry    driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	vectorStore driven.VectorStore
	manifest    driven.ManifestStore
	lockPath    string
	blocklist   []string
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithBlocklist replaces the default blocklist globs.
func WithBlocklist(globs []string) IngestOption {
	return func(s *IngestService) {
		s.blocklist = globs
	}
}

// NewIngestService creates a new ingest service. lockPath is the run
// lock file, conventionally next to the database.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	vectorStore driven.VectorStore,
	manifest driven.ManifestStore,
	lockPath string,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		registry:    registry,
		pipeline:    pipeline,
		embedder:    embedder,
		vectorStore: vectorStore,
		manifest:    manifest,
		lockPath:    lockPath,
		blocklist:   DefaultBlocklist,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one ingest pass over the source root.
func (s *IngestService) Run(ctx context.Context, root string) (*domain.IngestReport, error) {
	logger.Section("Ingest Run")

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory: %w", root, domain.ErrInvalidInput)
	}

	unlock, err := s.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &domain.IngestReport{
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	if err := s.validateStoreMeta(ctx); err != nil {
		return nil, err
	}

	files, walkErrs, err := s.scan(root)
	if err != nil {
		return nil, err
	}
	report.Errors = append(report.Errors, walkErrs...)
	logger.Info("Scanned %d candidate files under %s", len(files), root)

	seen := make(map[string]bool, len(files))
	for _, file := range files {
		// A file that fails to read below still exists on disk, so it
		// must not be garbage-collected as missing.
		seen[file.sourceID] = true

		if err := ctx.Err(); err != nil {
			return report, err
		}

		content, err := os.ReadFile(file.path)
		if err != nil {
			readErr := fmt.Errorf("%w: reading source: %v", domain.ErrParse, err)
			logger.Warn("Skipping %s: %v", file.sourceID, readErr)
			report.Errors = append(report.Errors, domain.FileError{
				SourceID: file.sourceID,
				Path:     file.path,
				Err:      readErr.Error(),
			})
			continue
		}
		sum := sha256.Sum256(content)
		checksum := hex.EncodeToString(sum[:])

		entry, err := s.manifest.Get(ctx, file.sourceID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return report, fmt.Errorf("reading manifest for %s: %w", file.sourceID, err)
		}

		isNew := entry == nil
		if !isNew && entry.Checksum == checksum {
			logger.Debug("Unchanged: %s", file.sourceID)
			report.Skipped++
			continue
		}

		written, err := s.ingestFile(ctx, file, content, checksum)
		if err != nil {
			if errors.Is(err, domain.ErrEmbeddingProvider) {
				// Provider outage: durable progress stays, the rest of
				// the batch is abandoned.
				logger.Warn("Embedding provider failed, aborting run: %v", err)
				report.Aborted = true
				return report, fmt.Errorf("ingesting %s: %w", file.sourceID, err)
			}
			logger.Warn("Skipping %s: %v", file.sourceID, err)
			report.Errors = append(report.Errors, domain.FileError{
				SourceID: file.sourceID,
				Path:     file.path,
				Err:      err.Error(),
			})
			continue
		}

		report.ChunksWritten += written
		if isNew {
			report.New++
		} else {
			report.Changed++
		}
	}

	removed, err := s.collectMissing(ctx, seen)
	if err != nil {
		return report, err
	}
	report.Removed = removed

	logger.Info("Ingest complete: %d new, %d changed, %d skipped, %d removed, %d errors",
		report.New, report.Changed, report.Skipped, report.Removed, report.Errored())
	return report, nil
}

// acquireLock takes the run lock, failing fast when another ingest
// holds it. A lock left behind by a killed process is detected via the
// recorded pid and reclaimed.
func (s *IngestService) acquireLock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil && os.IsExist(err) && s.lockIsStale() {
		logger.Warn("Reclaiming stale lock file %s", s.lockPath)
		if err := os.Remove(s.lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale lock: %w", err)
		}
		f, err = os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	}
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("lock file %s held by a live ingest (delete it if that process is gone): %w",
				s.lockPath, domain.ErrIngestInProgress)
		}
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() {
		if err := os.Remove(s.lockPath); err != nil {
			logger.Warn("Failed to remove lock file %s: %v", s.lockPath, err)
		}
	}, nil
}

// lockIsStale reports whether the lock file's recorded pid no longer
// names a running process. Unparseable contents count as stale; a pid
// we cannot signal but that exists (EPERM) counts as live.
func (s *IngestService) lockIsStale() bool {
	data, err := os.ReadFile(s.lockPath)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return true
	}
	if pid == os.Getpid() {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return false
	}
	return !errors.Is(err, syscall.EPERM)
}

// validateStoreMeta checks the configured provider against the store
// before any write. A fresh store adopts the configuration; an
// existing store built with a different provider or dimension rejects
// the run.
func (s *IngestService) validateStoreMeta(ctx context.Context) error {
	meta, err := s.vectorStore.Meta(ctx)
	if err != nil {
		return fmt.Errorf("reading store meta: %w", err)
	}

	want := domain.StoreMeta{
		ProviderID: s.embedder.ProviderID(),
		Dimension:  s.embedder.Dimensions(),
	}

	if meta == nil {
		logger.Debug("Fresh store, recording provider %s (dim %d)", want.ProviderID, want.Dimension)
		return s.vectorStore.SetMeta(ctx, want)
	}

	if meta.ProviderID != want.ProviderID || meta.Dimension != want.Dimension {
		return &domain.DimensionMismatchError{
			StoreProvider:  meta.ProviderID,
			StoreDimension: meta.Dimension,
			WantProvider:   want.ProviderID,
			WantDimension:  want.Dimension,
		}
	}
	return nil
}

// scannedFile is one candidate discovered under the source root.
// Content is read lazily during ingest so the scan never holds the
// whole corpus in memory.
type scannedFile struct {
	sourceID string
	path     string
	tags     []string
}

// scan walks the source root collecting supported, non-blocked files.
// Unreadable entries below the root are recoverable: they come back as
// per-file errors and the walk continues. Only a failure on the root
// itself is fatal.
func (s *IngestService) scan(root string) ([]scannedFile, []domain.FileError, error) {
	supported := make(map[string]bool)
	for _, ext := range s.registry.SupportedExtensions() {
		supported[ext] = true
	}

	var files []scannedFile
	var fileErrs []domain.FileError
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			walkErr := fmt.Errorf("%w: %v", domain.ErrParse, err)
			logger.Warn("Skipping %s: %v", p, walkErr)
			fileErrs = append(fileErrs, domain.FileError{
				SourceID: relOrPath(root, p),
				Path:     p,
				Err:      walkErr.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && p != root

		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if s.blocked(rel, name) {
			logger.Debug("Blocklisted: %s", rel)
			return nil
		}
		if !supported[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		files = append(files, scannedFile{
			sourceID: rel,
			path:     p,
			tags:     categoryTags(rel),
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, fileErrs, nil
}

// relOrPath is the source id for error reporting; it falls back to the
// absolute path when the relative one cannot be derived.
func relOrPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// blocked reports whether a relative path matches a blocklist glob.
// Globs match against the slash-separated relative path and against
// the bare file name; a trailing "/**" blocks the whole subtree.
func (s *IngestService) blocked(rel, name string) bool {
	for _, glob := range s.blocklist {
		if prefix, ok := strings.CutSuffix(glob, "/**"); ok {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") || strings.Contains(rel, "/"+prefix+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(glob, rel); ok {
			return true
		}
		if ok, _ := path.Match(glob, name); ok {
			return true
		}
	}
	return false
}

// categoryTags derives tags from the directory segments of a relative
// path: "guides/auth/login.md" yields ["guides", "auth"].
func categoryTags(rel string) []string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(dir, "/")
}

// ingestFile normalises, chunks, embeds and persists one file,
// returning the number of chunks written.
func (s *IngestService) ingestFile(ctx context.Context, file scannedFile, content []byte, checksum string) (int, error) {
	raw := &domain.RawSource{
		SourceID: file.sourceID,
		Path:     file.path,
		Content:  content,
		Tags:     file.tags,
	}

	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return 0, fmt.Errorf("normalising: %w", err)
	}

	doc := result.Document
	doc.Checksum = checksum

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return 0, fmt.Errorf("post-processing: %w", err)
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
		}
		if len(embeddings) != len(chunks) {
			return 0, fmt.Errorf("embedding count %d does not match chunk count %d: %w",
				len(embeddings), len(chunks), domain.ErrEmbeddingProvider)
		}
		for i := range chunks {
			chunks[i].Embedding = embeddings[i]
		}
	}

	if err := s.vectorStore.ReplaceSource(ctx, file.sourceID, chunks); err != nil {
		return 0, fmt.Errorf("replacing chunks: %w", err)
	}

	chunkIDs := make([]string, len(chunks))
	for i := range chunks {
		chunkIDs[i] = chunks[i].ID
	}
	entry := domain.ManifestEntry{
		SourceID:   file.sourceID,
		Path:       file.path,
		Checksum:   checksum,
		ChunkIDs:   chunkIDs,
		IngestedAt: time.Now().UTC(),
	}
	if err := s.manifest.Save(ctx, entry); err != nil {
		return 0, fmt.Errorf("saving manifest: %w", err)
	}

	logger.Debug("Ingested %s: %d chunks", file.sourceID, len(chunks))
	return len(chunks), nil
}

// collectMissing garbage-collects sources recorded in the manifest but
// absent from the scan.
func (s *IngestService) collectMissing(ctx context.Context, seen map[string]bool) (int, error) {
	entries, err := s.manifest.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing manifest: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if seen[entry.SourceID] {
			continue
		}
		logger.Debug("Source removed from disk, deleting: %s", entry.SourceID)
		if err := s.vectorStore.DeleteSource(ctx, entry.SourceID); err != nil {
			return removed, fmt.Errorf("deleting chunks for %s: %w", entry.SourceID, err)
		}
		if err := s.manifest.Delete(ctx, entry.SourceID); err != nil {
			return removed, fmt.Errorf("deleting manifest for %s: %w", entry.SourceID, err)
		}
		removed++
	}
	return removed, nil
}
