package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
	"github.com/WesselKoorn/ask-youtube-anything/internal/utils"
)

// SQLiteIndex is a VectorIndex backed by a local SQLite file. Embeddings are
// stored as JSON and similarity is computed in-process, which is fine at the
// scale of a single channel's recent uploads.
type SQLiteIndex struct {
	db *sql.DB
}

func NewSQLiteIndex(dataSourceName string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	idx := &SQLiteIndex{db: db}
	if err = idx.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS vectors (
        namespace      TEXT NOT NULL,
        id             TEXT NOT NULL,
        channel_id     TEXT NOT NULL DEFAULT '',
        video_id       TEXT NOT NULL DEFAULT '',
        title          TEXT NOT NULL DEFAULT '',
        content        TEXT NOT NULL DEFAULT '',
        published_at   TEXT NOT NULL DEFAULT '',
        embedding_json TEXT NOT NULL, -- JSON-encoded []float32
        PRIMARY KEY (namespace, id)
    );

    CREATE INDEX IF NOT EXISTS idx_vectors_channel
        ON vectors (namespace, channel_id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Upsert inserts the records in one transaction. INSERT OR IGNORE keeps
// already-present IDs untouched.
func (s *SQLiteIndex) Upsert(ctx context.Context, records []models.VectorRecord, namespace string) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR IGNORE INTO vectors
            (namespace, id, channel_id, video_id, title, content, published_at, embedding_json)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vector insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		embeddingJSON, err := json.Marshal(rec.Values)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding for %s: %w", rec.ID, err)
		}
		m := rec.Metadata
		if _, err := stmt.ExecContext(ctx, namespace, rec.ID, m.ChannelID, m.VideoID, m.Title, m.Text, m.PublishedAt, string(embeddingJSON)); err != nil {
			return fmt.Errorf("failed to insert vector %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteIndex) FetchIDs(ctx context.Context, ids []string, namespace string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, namespace)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM vectors WHERE namespace = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vector id: %w", err)
		}
		found[id] = struct{}{}
	}
	return found, rows.Err()
}

func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, namespace, channelID string, topK int) ([]models.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, channel_id, video_id, title, content, published_at, embedding_json
        FROM vectors
        WHERE namespace = ? AND channel_id = ?`, namespace, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var scored []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		var embeddingJSON string
		if err := rows.Scan(&res.ID, &res.Metadata.ChannelID, &res.Metadata.VideoID,
			&res.Metadata.Title, &res.Metadata.Text, &res.Metadata.PublishedAt, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			log.Printf("Warning: failed to unmarshal embedding for %s: %v. Skipping.", res.ID, err)
			continue
		}

		similarity, err := utils.CosineSimilarity(vector, embedding)
		if err != nil {
			log.Printf("Warning: similarity for %s: %v. Skipping.", res.ID, err)
			continue
		}
		res.Score = similarity
		scored = append(scored, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}
