// Package exporter implements the administrative export job: resolve the
// requested fields into one joined query, stream the result rows into a CSV
// (or Parquet) sink, and upload the artifact to the object store.
//
// The job is a single linear pass with no retries and no concurrency; the
// database driver and the storage client keep their own default timeout
// behaviour.
package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver for the replica cursor

	"github.com/openlearn/regexport/internal/config"
	"github.com/openlearn/regexport/internal/objectstore"
	"github.com/openlearn/regexport/internal/schema"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Options carries the per-run operator choices.
type Options struct {
	// Fields to export; defines the output column order.
	Fields []string

	// SkipNullRows drops any row containing a NULL value.
	SkipNullRows bool

	// UseTempFile spills the artifact to a temp file instead of memory.
	UseTempFile bool

	// Format selects the artifact encoding; defaults to CSV.
	Format string

	// Bucket and ObjectKey name the upload destination.
	Bucket    string
	ObjectKey string

	// AccessKeySetting and SecretKeySetting name the settings holding
	// credential values; empty means the client falls back to the
	// environment or the shared credentials file.
	AccessKeySetting string
	SecretKeySetting string

	// Profile selects a named profile from the shared credentials file.
	Profile string
}

// Result summarizes one export run.
type Result struct {
	RunID       string
	RowsWritten int64
	RowsSkipped int64
	Bytes       int64

	// UploadErr is set when the upload failed on credentials; the run still
	// completed and cleaned up.
	UploadErr error
}

// Runner owns the export batch job.
type Runner struct {
	Settings *config.Settings
	Registry *schema.Registry

	// Store overrides the object-store client; when nil one is built from
	// settings and resolved credentials.
	Store objectstore.ObjectStore

	// OpenRows overrides cursor creation; when nil the replica (or default)
	// connection is used.
	OpenRows func(ctx context.Context, query string) (RowSource, error)

	Logger *log.Logger
}

// NewRunner creates a runner over the given settings and schema registry.
func NewRunner(settings *config.Settings, registry *schema.Registry) *Runner {
	return &Runner{
		Settings: settings,
		Registry: registry,
		Logger:   log.Default(),
	}
}

// Run executes the export. Everything except a credential failure on upload
// is fatal and returns an error; a credential failure is logged, recorded in
// the result, and the run completes.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Bucket == "" || opts.ObjectKey == "" {
		return nil, fmt.Errorf("bucket and object key are required")
	}
	format := opts.Format
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatParquet {
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	query, err := r.Registry.BuildQuery(opts.Fields)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	r.Logger.Printf("export run %s: %d fields, format=%s", result.RunID, len(opts.Fields), format)

	rows, err := r.openRows(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sink, err := r.openSink(opts.UseTempFile)
	if err != nil {
		return nil, err
	}
	defer sink.Close()

	switch format {
	case FormatParquet:
		result.RowsWritten, result.RowsSkipped, err = writeParquet(sink, opts.Fields, rows, opts.SkipNullRows)
	default:
		result.RowsWritten, result.RowsSkipped, err = writeCSV(sink, opts.Fields, rows, opts.SkipNullRows)
	}
	if err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close cursor: %w", err)
	}

	if _, err := sink.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind sink: %w", err)
	}
	if result.Bytes, err = sink.Size(); err != nil {
		return nil, fmt.Errorf("size sink: %w", err)
	}

	store, err := r.openStore(opts)
	if err != nil {
		return nil, err
	}

	if err := store.PutObject(ctx, opts.Bucket, opts.ObjectKey, sink, result.Bytes); err != nil {
		if objectstore.IsAuthError(err) {
			r.Logger.Printf("export run %s: upload failed on credentials: %v", result.RunID, err)
			result.UploadErr = err
			return result, nil
		}
		return nil, fmt.Errorf("upload to %s/%s: %w", opts.Bucket, opts.ObjectKey, err)
	}

	r.Logger.Printf("export run %s: wrote %d rows (%d skipped), uploaded %d bytes to %s/%s",
		result.RunID, result.RowsWritten, result.RowsSkipped, result.Bytes, opts.Bucket, opts.ObjectKey)
	return result, nil
}

func (r *Runner) openSink(useTempFile bool) (Sink, error) {
	if useTempFile {
		return NewFileSink()
	}
	return NewMemorySink(), nil
}

func (r *Runner) openRows(ctx context.Context, query string) (RowSource, error) {
	if r.OpenRows != nil {
		return r.OpenRows(ctx, query)
	}

	dsn := r.Settings.ReplicaOrDefaultDSN()
	if dsn == "" {
		return nil, fmt.Errorf("no database connection configured")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("execute export query: %w", err)
	}
	return &dbRows{Rows: rows, db: db}, nil
}

// dbRows ties the connection lifetime to the cursor.
type dbRows struct {
	*sql.Rows
	db *sql.DB
}

func (r *dbRows) Close() error {
	err := r.Rows.Close()
	if dbErr := r.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

func (r *Runner) openStore(opts Options) (objectstore.ObjectStore, error) {
	if r.Store != nil {
		return r.Store, nil
	}

	cfg := &objectstore.Config{
		EndpointURL: r.Settings.ObjectStore.EndpointURL,
		Region:      r.Settings.ObjectStore.Region,
		UseSSL:      r.Settings.ObjectStore.UseSSL,
		Profile:     opts.Profile,
	}
	if opts.AccessKeySetting != "" {
		v, err := r.Settings.Lookup(opts.AccessKeySetting)
		if err != nil {
			return nil, fmt.Errorf("resolve access key: %w", err)
		}
		cfg.AccessKeyID = v
	}
	if opts.SecretKeySetting != "" {
		v, err := r.Settings.Lookup(opts.SecretKeySetting)
		if err != nil {
			return nil, fmt.Errorf("resolve secret key: %w", err)
		}
		cfg.SecretAccessKey = v
	}
	return objectstore.NewS3Client(cfg)
}
