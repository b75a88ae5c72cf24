package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veldt-labs/datacore/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
)

// Store is a SQLite-backed index that provides the vector store and the
// ingestion manifest through a single database connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.datacore/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".datacore", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var check string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&check); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking database %s: %v: %w", dbPath, err, domain.ErrStoreCorrupted)
	}
	if check != "ok" {
		db.Close()
		return nil, fmt.Errorf("database %s failed integrity check: %s: %w", dbPath, check, domain.ErrStoreCorrupted)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "not a database") {
			return nil, fmt.Errorf("running migrations: %v: %w", err, domain.ErrStoreCorrupted)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// ManifestStore returns a ManifestStore interface backed by this store.
func (s *Store) ManifestStore() driven.ManifestStore {
	return &manifestStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Meta returns the recorded embedding configuration, or nil for a
// fresh store.
func (s *vectorStore) Meta(ctx context.Context) (*domain.StoreMeta, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT provider_id, dimension FROM store_meta WHERE id = 1
	`)

	var meta domain.StoreMeta
	if err := row.Scan(&meta.ProviderID, &meta.Dimension); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning store meta: %w", err)
	}
	return &meta, nil
}

// SetMeta records the embedding configuration.
func (s *vectorStore) SetMeta(ctx context.Context, meta domain.StoreMeta) error {
	if meta.ProviderID == "" || meta.Dimension <= 0 {
		return fmt.Errorf("store meta requires provider id and positive dimension: %w", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO store_meta (id, provider_id, dimension)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider_id = excluded.provider_id,
			dimension = excluded.dimension
	`, meta.ProviderID, meta.Dimension)

	if err != nil {
		return fmt.Errorf("saving store meta: %w", err)
	}
	return nil
}

// ReplaceSource atomically swaps every chunk of a source for the new
// set. Stale chunk ids from a previous ingest of the same source are
// removed in the same transaction.
func (s *vectorStore) ReplaceSource(ctx context.Context, sourceID string, chunks []domain.Chunk) error {
	if sourceID == "" {
		return fmt.Errorf("source id is required: %w", domain.ErrInvalidInput)
	}

	meta, err := s.Meta(ctx)
	if err != nil {
		return err
	}
	if meta != nil {
		for _, chunk := range chunks {
			if len(chunk.Embedding) != meta.Dimension {
				return fmt.Errorf("chunk %s: embedding dimension %d, store dimension %d: %w",
					chunk.ID, len(chunk.Embedding), meta.Dimension, domain.ErrDimensionMismatch)
			}
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("deleting stale chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source_id, content, position, start_offset, end_offset, tags, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			position = excluded.position,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			tags = excluded.tags,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		tagsJSON, err := json.Marshal(chunk.Tags)
		if err != nil {
			return fmt.Errorf("marshalling chunk tags: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, sourceID, chunk.Content,
			chunk.Position, chunk.StartOffset, chunk.EndOffset,
			string(tagsJSON), embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteSource removes all chunks of a source.
func (s *vectorStore) DeleteSource(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting source chunks: %w", err)
	}
	return nil
}

// Query scans every stored embedding and returns the topK nearest by
// cosine similarity. The scan is brute force; for the corpus sizes
// this store targets it stays well under query latency budgets.
func (s *vectorStore) Query(ctx context.Context, vector []float32, topK int, filter *driven.QueryFilter) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive: %w", domain.ErrInvalidInput)
	}

	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	if meta != nil && len(vector) != meta.Dimension {
		return nil, fmt.Errorf("query dimension %d, store dimension %d: %w",
			len(vector), meta.Dimension, domain.ErrDimensionMismatch)
	}

	rows, err := s.store.db.QueryContext(ctx, "SELECT id, tags, embedding FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		var tagsJSON sql.NullString
		var embeddingBlob []byte
		if err := rows.Scan(&id, &tagsJSON, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if filter != nil && filter.CategoryTag != "" {
			tags, err := unmarshalTags(tagsJSON)
			if err != nil {
				return nil, err
			}
			if !containsTag(tags, filter.CategoryTag) {
				continue
			}
		}

		embedding := bytesToFloat32Slice(embeddingBlob)
		hits = append(hits, driven.VectorHit{
			ChunkID:    id,
			Similarity: similarity(vector, embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// GetChunk retrieves a chunk by ID.
func (s *vectorStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, content, position, start_offset, end_offset, tags, embedding
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var tagsJSON sql.NullString
	var embeddingBlob []byte
	if err := row.Scan(&chunk.ID, &chunk.SourceID, &chunk.Content, &chunk.Position,
		&chunk.StartOffset, &chunk.EndOffset, &tagsJSON, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	chunk.Tags = tags
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &chunk, nil
}

// Stats reports source and chunk counts.
func (s *vectorStore) Stats(ctx context.Context) (*driven.StoreStats, error) {
	var stats driven.StoreStats
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT source_id), COUNT(*) FROM chunks").Scan(&stats.Sources, &stats.Chunks)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	return &stats, nil
}

// Reset drops all persisted state, including store metadata.
func (s *vectorStore) Reset(ctx context.Context) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM chunks",
		"DELETE FROM manifest",
		"DELETE FROM store_meta",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *vectorStore) Close() error {
	return s.store.Close()
}

// ==================== Manifest Store ====================

// manifestStore implements driven.ManifestStore.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Get retrieves the manifest entry for a source.
func (s *manifestStore) Get(ctx context.Context, sourceID string) (*domain.ManifestEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, path, checksum, chunk_ids, ingested_at
		FROM manifest WHERE source_id = ?
	`, sourceID)

	return scanManifestEntry(row.Scan)
}

// Save stores or updates a manifest entry.
func (s *manifestStore) Save(ctx context.Context, entry domain.ManifestEntry) error {
	if entry.SourceID == "" {
		return fmt.Errorf("source id is required: %w", domain.ErrInvalidInput)
	}

	chunkIDsJSON, err := json.Marshal(entry.ChunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk ids: %w", err)
	}

	if entry.IngestedAt.IsZero() {
		entry.IngestedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO manifest (source_id, path, checksum, chunk_ids, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			path = excluded.path,
			checksum = excluded.checksum,
			chunk_ids = excluded.chunk_ids,
			ingested_at = excluded.ingested_at
	`, entry.SourceID, entry.Path, entry.Checksum, string(chunkIDsJSON), entry.IngestedAt)

	if err != nil {
		return fmt.Errorf("saving manifest entry: %w", err)
	}
	return nil
}

// Delete removes a manifest entry.
func (s *manifestStore) Delete(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM manifest WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting manifest entry: %w", err)
	}
	return nil
}

// List returns all manifest entries.
func (s *manifestStore) List(ctx context.Context) ([]domain.ManifestEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_id, path, checksum, chunk_ids, ingested_at
		FROM manifest
	`)
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	var entries []domain.ManifestEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanManifestEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest: %w", err)
	}

	return entries, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// similarity maps cosine distance between two vectors into (0, 1].
// Identical directions score 1.0; orthogonal or opposed vectors decay
// towards zero.
func similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	distance := 1 - cos
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

func unmarshalTags(tagsJSON sql.NullString) ([]string, error) {
	if !tagsJSON.Valid || tagsJSON.String == "" || tagsJSON.String == "null" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err != nil {
		return nil, fmt.Errorf("unmarshalling chunk tags: %w", err)
	}
	return tags, nil
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

// scanManifestEntry scans one manifest row via the given scan func.
func scanManifestEntry(scan func(dest ...any) error) (*domain.ManifestEntry, error) {
	var entry domain.ManifestEntry
	var chunkIDsJSON sql.NullString
	var ingestedAt sql.NullTime

	if err := scan(&entry.SourceID, &entry.Path, &entry.Checksum, &chunkIDsJSON, &ingestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning manifest entry: %w", err)
	}

	if chunkIDsJSON.Valid && chunkIDsJSON.String != "" && chunkIDsJSON.String != "null" {
		if err := json.Unmarshal([]byte(chunkIDsJSON.String), &entry.ChunkIDs); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk ids: %w", err)
		}
	}
	if ingestedAt.Valid {
		entry.IngestedAt = ingestedAt.Time
	}

	return &entry, nil
}
