package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Generation represents one persisted mockup image: which product and
// style it was generated for, the exact sampling parameters, and the
// gallery filename it was saved under. One row per image, so a run with
// four variations produces four rows sharing a RunID.
type Generation struct {
	ID                string    // Unique identifier (UUID) for this image
	RunID             string    // Groups the variations of a single request
	Product           string    // Product type ("tshirt", "mug", ...)
	Style             string    // Photography style ("studio", "lifestyle", ...)
	Prompt            string    // Final prompt sent to the synthesis pipeline
	Seed              int64     // Seed this image was sampled with
	Steps             int       // Number of denoising steps
	GuidanceScale     float64   // Classifier-free guidance scale
	ConditioningScale float64   // Edge conditioning scale
	Width             int       // Output width in pixels
	Height            int       // Output height in pixels
	Filename          string    // Gallery file name, relative to the output directory
	CreatedAt         time.Time // Timestamp when the image was persisted
}

// GenerationRepository provides data access for the generations table.
// Writes can optionally go through an AsyncWriter so that history
// persistence never blocks a generation response.
type GenerationRepository struct {
	db          *sql.DB
	asyncWriter *AsyncWriter
}

// NewGenerationRepository creates a repository backed by the given connection.
func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// NewGenerationRepositoryWithAsyncWriter creates a repository whose
// InsertAsync method queues writes on the given writer. The caller is
// responsible for starting and stopping the writer.
func NewGenerationRepositoryWithAsyncWriter(db *sql.DB, writer *AsyncWriter) *GenerationRepository {
	return &GenerationRepository{db: db, asyncWriter: writer}
}

// Insert persists a generation record synchronously.
func (r *GenerationRepository) Insert(gen *Generation) error {
	if gen == nil {
		return fmt.Errorf("generation is required")
	}
	if gen.ID == "" {
		return fmt.Errorf("generation ID is required")
	}

	createdAt := gen.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO generations (
			id, run_id, product, style, prompt, seed, steps,
			guidance_scale, conditioning_scale, width, height,
			filename, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		gen.ID,
		gen.RunID,
		gen.Product,
		gen.Style,
		gen.Prompt,
		gen.Seed,
		gen.Steps,
		gen.GuidanceScale,
		gen.ConditioningScale,
		gen.Width,
		gen.Height,
		gen.Filename,
		createdAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation %s: %w", gen.ID, err)
	}

	return nil
}

// InsertAsync queues a generation record for background persistence.
// Returns false if no async writer is configured or its buffer is full.
// History writes are best effort; a dropped record never fails a request.
func (r *GenerationRepository) InsertAsync(gen *Generation) bool {
	if r.asyncWriter == nil || gen == nil {
		return false
	}
	return r.asyncWriter.Write(gen)
}

// CreateAsyncWriteHandler returns a WriteHandler that inserts queued
// Generation records. Wire it into an AsyncWriter:
//
//	repo := NewGenerationRepository(conn)
//	writer := NewAsyncWriter(repo.CreateAsyncWriteHandler())
//	writer.Start()
func (r *GenerationRepository) CreateAsyncWriteHandler() WriteHandler {
	return func(op WriteOperation) error {
		gen, ok := op.Data.(*Generation)
		if !ok {
			return fmt.Errorf("unexpected async write payload type %T", op.Data)
		}
		return r.Insert(gen)
	}
}

// GetByID retrieves a generation record by its ID.
// The returned error wraps sql.ErrNoRows if no record exists.
func (r *GenerationRepository) GetByID(id string) (*Generation, error) {
	query := `
		SELECT id, run_id, product, style, prompt, seed, steps,
		       guidance_scale, conditioning_scale, width, height,
		       filename, created_at
		FROM generations
		WHERE id = ?
	`

	gen, err := scanGeneration(r.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get generation %s: %w", id, err)
	}
	return gen, nil
}

// GetByFilename retrieves the generation record for a gallery file.
// The returned error wraps sql.ErrNoRows if no record exists.
func (r *GenerationRepository) GetByFilename(filename string) (*Generation, error) {
	query := `
		SELECT id, run_id, product, style, prompt, seed, steps,
		       guidance_scale, conditioning_scale, width, height,
		       filename, created_at
		FROM generations
		WHERE filename = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	gen, err := scanGeneration(r.db.QueryRow(query, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to get generation for %s: %w", filename, err)
	}
	return gen, nil
}

// Recent returns the most recent generation records, newest first.
// An optional product filter narrows the result to one product type.
func (r *GenerationRepository) Recent(limit int, product string) ([]*Generation, error) {
	if limit <= 0 {
		limit = 50
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, run_id, product, style, prompt, seed, steps,
		       guidance_scale, conditioning_scale, width, height,
		       filename, created_at
		FROM generations
	`)

	args := []interface{}{}
	if product != "" {
		sb.WriteString(" WHERE product = ?")
		args = append(args, product)
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent generations: %w", err)
	}
	defer rows.Close()

	var result []*Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		result = append(result, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generation rows: %w", err)
	}

	return result, nil
}

// ByRun returns all records for one generation run, oldest first.
func (r *GenerationRepository) ByRun(runID string) ([]*Generation, error) {
	query := `
		SELECT id, run_id, product, style, prompt, seed, steps,
		       guidance_scale, conditioning_scale, width, height,
		       filename, created_at
		FROM generations
		WHERE run_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var result []*Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		result = append(result, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generation rows: %w", err)
	}

	return result, nil
}

// Count returns the total number of persisted generations.
func (r *GenerationRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM generations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

// CountByProduct returns the number of persisted generations per product type.
func (r *GenerationRepository) CountByProduct() (map[string]int64, error) {
	rows, err := r.db.Query("SELECT product, COUNT(*) FROM generations GROUP BY product")
	if err != nil {
		return nil, fmt.Errorf("failed to count generations by product: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var product string
		var count int64
		if err := rows.Scan(&product, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[product] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate count rows: %w", err)
	}

	return counts, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanGeneration reads one generations row into a Generation struct.
// The driver hands DATETIME columns back as time.Time, so created_at
// scans directly into the struct field.
func scanGeneration(row rowScanner) (*Generation, error) {
	var gen Generation

	err := row.Scan(
		&gen.ID,
		&gen.RunID,
		&gen.Product,
		&gen.Style,
		&gen.Prompt,
		&gen.Seed,
		&gen.Steps,
		&gen.GuidanceScale,
		&gen.ConditioningScale,
		&gen.Width,
		&gen.Height,
		&gen.Filename,
		&gen.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &gen, nil
}
