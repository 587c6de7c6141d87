package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/repository"
)

// compile-time check that *DB satisfies the store interface
var _ repository.DocumentStore = (*DB)(nil)

// Create marshals doc to JSON and inserts it under a fresh xid.
//
// The ? placeholders are filled by the driver; collection and ID are never
// spliced into the SQL text.
func (db *DB) Create(ctx context.Context, collection string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding %s document: %w", collection, err)
	}

	id := repository.NewID()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, created_at)
		 VALUES (?, ?, ?, ?)`,
		collection,
		id,
		string(body),
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: creating %s document: %w", collection, err)
	}

	return id, nil
}

// Get loads the document stored under (collection, id) into dst.
//
// sql.ErrNoRows is translated into apperror.NotFound so the handler layer
// can answer 404 without knowing about database/sql.
func (db *DB) Get(ctx context.Context, collection, id string, dst any) error {
	var body string

	err := db.conn.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection,
		id,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound(collection, id)
		}
		return fmt.Errorf("sqlite: getting %s document %s: %w", collection, id, err)
	}

	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("sqlite: decoding %s document %s: %w", collection, id, err)
	}

	return nil
}
