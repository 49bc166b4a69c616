// Package sqlite implements a DocumentsProvider whose documents live in a
// single SQLite table, content included.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/naming"
	"dfc-go/internal/provider/sqlite/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// RootID is the document id of the root directory created by the schema.
const RootID = "root"

const (
	fileFlags = dfc.FlagSupportsWrite | dfc.FlagSupportsDelete | dfc.FlagSupportsRename
	dirFlags  = dfc.FlagDirSupportsCreate | dfc.FlagSupportsDelete | dfc.FlagSupportsRename
)

// columnExprs maps projected columns to the SQL producing them.
var columnExprs = map[string]string{
	dfc.ColumnDocumentID:   "document_id",
	dfc.ColumnDisplayName:  "display_name",
	dfc.ColumnSize:         "CASE WHEN mime_type = '" + dfc.MimeTypeDir + "' THEN NULL ELSE size END",
	dfc.ColumnLastModified: "last_modified",
	dfc.ColumnMimeType:     "mime_type",
	dfc.ColumnFlags:        "flags",
	dfc.ColumnIcon:         "NULL",
}

// SQLiteProvider implements dfc.DocumentsProvider on SQLite.
type SQLiteProvider struct {
	authority string
	db        *sql.DB
	path      string
}

// NewSQLiteProvider opens the database at path, migrating it if needed.
// path can be a file path or ":memory:".
func NewSQLiteProvider(authority, path string) (*SQLiteProvider, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteProvider{authority: authority, db: db, path: path}, nil
}

// NewSQLiteProviderFromDB wraps an existing, already migrated connection.
func NewSQLiteProviderFromDB(authority string, db *sql.DB) *SQLiteProvider {
	return &SQLiteProvider{authority: authority, db: db}
}

// OpenConnection opens a SQLite database with foreign keys enabled.
// The pool is limited to one connection so the PRAGMA holds for every
// statement and ":memory:" databases are not split across connections.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

func (p *SQLiteProvider) Authority() string { return p.authority }

func (p *SQLiteProvider) RootDocumentID() string { return RootID }

// Close closes the underlying database.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// selectList returns the known columns of projection and their SQL.
func selectList(projection []string) ([]string, string) {
	if len(projection) == 0 {
		projection = dfc.FullProjection
	}
	var columns, exprs []string
	for _, col := range projection {
		if expr, ok := columnExprs[col]; ok {
			columns = append(columns, col)
			exprs = append(exprs, expr)
		}
	}
	if len(exprs) == 0 {
		return nil, "1"
	}
	return columns, strings.Join(exprs, ", ")
}

func (p *SQLiteProvider) query(ctx context.Context, projection []string, where string, args ...any) (*dfc.MatrixCursor, error) {
	columns, exprs := selectList(projection)
	rows, err := p.db.QueryContext(ctx, "SELECT "+exprs+" FROM documents WHERE "+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	c := dfc.NewMatrixCursor(columns, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if len(columns) == 0 {
			var one int
			dest = []any{&one}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := c.AddRow(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return c, nil
}

func (p *SQLiteProvider) QueryDocument(ctx context.Context, documentID string, projection []string) (dfc.Cursor, error) {
	c, err := p.query(ctx, projection, "document_id = ?", documentID)
	if err != nil {
		return nil, err
	}
	if c.Count() == 0 {
		return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	return c, nil
}

func (p *SQLiteProvider) QueryChildDocuments(ctx context.Context, parentDocumentID string, projection []string) (dfc.Cursor, error) {
	mimeType, err := p.mimeType(ctx, p.db, parentDocumentID)
	if err != nil {
		return nil, err
	}
	if mimeType != dfc.MimeTypeDir {
		return nil, fmt.Errorf("document %s is not a directory", parentDocumentID)
	}
	return p.query(ctx, projection, "parent_id = ?", parentDocumentID)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (p *SQLiteProvider) mimeType(ctx context.Context, q querier, documentID string) (string, error) {
	var mimeType string
	err := q.QueryRowContext(ctx, "SELECT mime_type FROM documents WHERE document_id = ?", documentID).Scan(&mimeType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	if err != nil {
		return "", fmt.Errorf("looking up document: %w", err)
	}
	return mimeType, nil
}

func (p *SQLiteProvider) childNames(ctx context.Context, q querier, parentID string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT display_name FROM documents WHERE parent_id = ?", parentID)
	if err != nil {
		return nil, fmt.Errorf("listing names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names[name] = true
	}
	return names, rows.Err()
}

func (p *SQLiteProvider) CreateDocument(ctx context.Context, parentDocumentID, mimeType, displayName string) (string, error) {
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	parentType, err := p.mimeType(ctx, tx, parentDocumentID)
	if err != nil {
		return "", err
	}
	if parentType != dfc.MimeTypeDir {
		return "", fmt.Errorf("parent %s is not a directory", parentDocumentID)
	}
	taken, err := p.childNames(ctx, tx, parentDocumentID)
	if err != nil {
		return "", err
	}

	flags := fileFlags
	if mimeType == dfc.MimeTypeDir {
		flags = dirFlags
	}
	id := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (document_id, parent_id, display_name, mime_type, flags, size, last_modified, content)
		 VALUES (?, ?, ?, ?, ?, 0, ?, NULL)`,
		id, parentDocumentID, naming.Unique(displayName, taken), mimeType, flags, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing document: %w", err)
	}
	return id, nil
}

// RenameDocument keeps ids stable, so it always returns "". A name already
// used by a sibling is rejected by the unique index.
func (p *SQLiteProvider) RenameDocument(ctx context.Context, documentID, displayName string) (string, error) {
	if documentID == RootID {
		return "", fmt.Errorf("cannot rename root")
	}
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}
	res, err := p.db.ExecContext(ctx,
		"UPDATE documents SET display_name = ?, last_modified = ? WHERE document_id = ?",
		displayName, time.Now().UnixMilli(), documentID)
	if err != nil {
		return "", fmt.Errorf("renaming document: %w", err)
	}
	if err := requireRow(res, documentID); err != nil {
		return "", err
	}
	return "", nil
}

// DeleteDocument removes documentID; descendants go with it through the
// cascading foreign key.
func (p *SQLiteProvider) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == RootID {
		return fmt.Errorf("cannot delete root")
	}
	res, err := p.db.ExecContext(ctx, "DELETE FROM documents WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireRow(res, documentID)
}

func requireRow(res sql.Result, documentID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	return nil
}

func (p *SQLiteProvider) OpenDocumentReader(ctx context.Context, documentID string) (io.ReadCloser, error) {
	var mimeType string
	var content []byte
	err := p.db.QueryRowContext(ctx, "SELECT mime_type, content FROM documents WHERE document_id = ?", documentID).
		Scan(&mimeType, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if mimeType == dfc.MimeTypeDir {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (p *SQLiteProvider) OpenDocumentWriter(ctx context.Context, documentID string) (io.WriteCloser, error) {
	mimeType, err := p.mimeType(ctx, p.db, documentID)
	if err != nil {
		return nil, err
	}
	if mimeType == dfc.MimeTypeDir {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	return &writer{ctx: ctx, provider: p, id: documentID}, nil
}

// writer buffers content and stores it in a single UPDATE on Close.
type writer struct {
	ctx      context.Context
	provider *SQLiteProvider
	id       string
	buf      bytes.Buffer
}

func (w *writer) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *writer) Close() error {
	content := w.buf.Bytes()
	res, err := w.provider.db.ExecContext(w.ctx,
		"UPDATE documents SET content = ?, size = ?, last_modified = ? WHERE document_id = ?",
		content, len(content), time.Now().UnixMilli(), w.id)
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return requireRow(res, w.id)
}

// Compile-time check that SQLiteProvider implements dfc.DocumentsProvider interface
var _ dfc.DocumentsProvider = (*SQLiteProvider)(nil)
