// Package duckdb is a DocumentStore over newline-delimited JSON files,
// loaded into an in-process DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/filter"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	_ "github.com/marcboeker/go-duckdb" // Register duckdb driver
)

const createDocuments = `
	CREATE TABLE IF NOT EXISTS documents (
		collection VARCHAR NOT NULL,
		seq        BIGINT  NOT NULL,
		doc        JSON    NOT NULL
	)
`

// Store implements storage.DocumentStore over DuckDB's JSON functions.
type Store struct {
	db *sql.DB
}

// Open creates an empty in-memory database.
func Open() (*Store, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if _, err := db.Exec(createDocuments); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenFile opens a database and loads path into collection.
// A missing file is reported as storage.ErrUnreachable.
func OpenFile(ctx context.Context, path, collection string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnreachable, err)
	}

	s, err := Open()
	if err != nil {
		return nil, err
	}
	n, err := s.Load(ctx, path, collection)
	if err != nil {
		s.Close()
		return nil, err
	}

	slog.Info("[DuckDB] Loaded documents", "path", path, "collection", collection, "documents", n)
	return s, nil
}

// Load appends the documents of an ndjson file to collection and returns
// how many were read. Lines that are not JSON, or lack an object-valued id
// and val, are skipped. seq follows line order: each document is numbered by
// its line's subscript in the split file.
func (s *Store) Load(ctx context.Context, path, collection string) (int64, error) {
	next, err := s.nextSeq(ctx)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO documents
		SELECT ?, ? + line_no, doc
		FROM (
			SELECT TRY_CAST(line AS JSON) AS doc, line_no
			FROM (
				SELECT unnest(lines) AS line, generate_subscripts(lines, 1) AS line_no
				FROM (SELECT string_split(content, chr(10)) AS lines FROM read_text(%s))
			)
		)
		WHERE json_type(doc, '$.id') = 'OBJECT'
		  AND json_type(doc, '$.val') = 'OBJECT'
		ORDER BY line_no
	`, quoteLiteral(path))

	res, err := s.db.ExecContext(ctx, query, collection, next-1)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return res.RowsAffected()
}

// Insert appends validated documents to collection.
func (s *Store) Insert(ctx context.Context, collection string, docs ...v1.Document) error {
	for i, doc := range docs {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM documents`).Scan(&next); err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	for i, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents VALUES (?, ?, ?::JSON)`,
			collection, next+int64(i), string(data)); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM documents`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}
	return next, nil
}

// Find returns matching documents in insertion order.
func (s *Store) Find(ctx context.Context, collection string, match []storage.Match) ([]v1.Document, error) {
	where, args := matchClause(collection, match)
	query := `SELECT CAST(doc AS VARCHAR) FROM documents WHERE ` + where + ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.WrapQueryError("query documents", err)
	}
	defer rows.Close()

	var docs []v1.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var doc v1.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.WrapQueryError("iterate documents", err)
	}
	return docs, nil
}

// Aggregate groups matching documents by the JSON object of their key values.
func (s *Store) Aggregate(ctx context.Context, req storage.AggregateRequest) ([]v1.Document, error) {
	where, args := matchClause(req.Collection, req.Match)
	query := fmt.Sprintf(`
		SELECT
			CAST(bucket AS VARCHAR),
			CAST(json_group_array(json_extract(doc, '$.val') ORDER BY seq) AS VARCHAR),
			CAST(json_group_array(json_extract(doc, '$.id') ORDER BY seq) AS VARCHAR)
		FROM (
			SELECT seq, doc, %s AS bucket
			FROM documents
			WHERE %s
		) matched
		GROUP BY bucket
		ORDER BY min(seq)
	`, bucketExpr(req.Key), where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.WrapQueryError("aggregate documents", err)
	}
	defer rows.Close()

	var buckets []v1.Document
	for rows.Next() {
		var key, vals, ids string
		if err := rows.Scan(&key, &vals, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan bucket row: %w", err)
		}
		parts, err := storage.DecodeBucket([]byte(key), []byte(vals), []byte(ids), req.Target, req.Collect)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, parts.Document(req.Key))
	}
	if err := rows.Err(); err != nil {
		return nil, storage.WrapQueryError("iterate buckets", err)
	}
	return buckets, nil
}

// Distinct returns the distinct values at path, in first-seen order.
func (s *Store) Distinct(ctx context.Context, collection string, path fieldpath.FieldPath) ([]any, error) {
	p := jsonPath(path.StoredPath())
	query := fmt.Sprintf(`
		SELECT CAST(value AS VARCHAR)
		FROM (
			SELECT json_extract(doc, %[1]s) AS value, min(seq) AS first_seq
			FROM documents
			WHERE collection = ?
			  AND json_extract(doc, %[1]s) IS NOT NULL
			GROUP BY 1
		) distinct_values
		ORDER BY first_seq
	`, p)

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, storage.WrapQueryError("query distinct values", err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal distinct value: %w", err)
		}
		if v != nil {
			values = append(values, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storage.WrapQueryError("iterate distinct values", err)
	}
	return values, nil
}

// Keys returns the key names of one sub-structure across the first sample documents.
func (s *Store) Keys(ctx context.Context, collection, sub string, sample int) ([]string, error) {
	limit := ""
	if sample > 0 {
		limit = fmt.Sprintf("LIMIT %d", sample)
	}
	p := jsonPath([]string{sub})
	query := fmt.Sprintf(`
		SELECT DISTINCT unnest(json_keys(doc, %[1]s)) AS key
		FROM (
			SELECT doc
			FROM documents
			WHERE collection = ?
			ORDER BY seq
			%[2]s
		) sample
		WHERE json_type(doc, %[1]s) = 'OBJECT'
	`, p, limit)

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, storage.WrapQueryError("query keys", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		set[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, storage.WrapQueryError("iterate keys", err)
	}
	return storage.SortedKeys(set), nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnreachable, err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close duckdb: %w", err)
	}
	return nil
}

// matchClause renders the WHERE clause for a collection and its match entries.
// Numeric literals compare as doubles so 3 matches 3.0; everything else
// compares by its JSON text.
func matchClause(collection string, match []storage.Match) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}
	for _, m := range match {
		p := jsonPath(m.Path.StoredPath())
		if f, ok := filter.ToFloat(m.Value); ok {
			clauses = append(clauses, fmt.Sprintf("TRY_CAST(json_extract_string(doc, %s) AS DOUBLE) = ?", p))
			args = append(args, f)
			continue
		}
		literal, err := json.Marshal(m.Value)
		if err != nil {
			literal = []byte(fmt.Sprintf("%q", fmt.Sprint(m.Value)))
		}
		clauses = append(clauses, fmt.Sprintf("CAST(json_extract(doc, %s) AS VARCHAR) = ?", p))
		args = append(args, string(literal))
	}
	return strings.Join(clauses, " AND "), args
}

// bucketExpr builds the JSON object projecting the key paths of a document.
func bucketExpr(key []fieldpath.FieldPath) string {
	if len(key) == 0 {
		return `'{}'::JSON`
	}
	pairs := make([]string, 0, len(key))
	for _, k := range key {
		pairs = append(pairs, fmt.Sprintf("%s, json_extract(doc, %s)", quoteLiteral(k.Name), jsonPath(k.StoredPath())))
	}
	return "json_object(" + strings.Join(pairs, ", ") + ")"
}

// jsonPath renders segments as a quoted DuckDB JSON path literal ('$."id"."site"').
func jsonPath(segments []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range segments {
		b.WriteString(`."`)
		b.WriteString(strings.ReplaceAll(seg, `"`, `\"`))
		b.WriteString(`"`)
	}
	return quoteLiteral(b.String())
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
