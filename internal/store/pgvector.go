package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
)

// PgvectorIndex is a VectorIndex backed by Postgres with the pgvector
// extension. Similarity ordering is delegated to the database via the
// cosine-distance operator.
type PgvectorIndex struct {
	pool *pgxpool.Pool
}

func NewPgvectorIndex(ctx context.Context, connString string, dimensions int) (*PgvectorIndex, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	idx := &PgvectorIndex{pool: pool}
	if err := idx.initSchema(ctx, dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return idx, nil
}

func (p *PgvectorIndex) Close() error {
	p.pool.Close()
	return nil
}

func (p *PgvectorIndex) initSchema(ctx context.Context, dimensions int) error {
	if _, err := p.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS vectors (
            namespace    text NOT NULL,
            id           text NOT NULL,
            channel_id   text NOT NULL DEFAULT '',
            video_id     text NOT NULL DEFAULT '',
            title        text NOT NULL DEFAULT '',
            content      text NOT NULL DEFAULT '',
            published_at text NOT NULL DEFAULT '',
            embedding    vector(%d) NOT NULL,
            PRIMARY KEY (namespace, id)
        );
        CREATE INDEX IF NOT EXISTS idx_vectors_channel
            ON vectors (namespace, channel_id);`, dimensions))
	return err
}

// Upsert queues all inserts in one pgx batch. ON CONFLICT DO NOTHING keeps
// already-present IDs untouched.
func (p *PgvectorIndex) Upsert(ctx context.Context, records []models.VectorRecord, namespace string) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		m := rec.Metadata
		batch.Queue(`
            INSERT INTO vectors (namespace, id, channel_id, video_id, title, content, published_at, embedding)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (namespace, id) DO NOTHING`,
			namespace, rec.ID, m.ChannelID, m.VideoID, m.Title, m.Text, m.PublishedAt,
			pgvector.NewVector(rec.Values))
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert vector %s: %w", records[i].ID, err)
		}
	}
	return nil
}

func (p *PgvectorIndex) FetchIDs(ctx context.Context, ids []string, namespace string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id FROM vectors WHERE namespace = $1 AND id = ANY($2)`, namespace, ids)
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

func (p *PgvectorIndex) Query(ctx context.Context, vector []float32, namespace, channelID string, topK int) ([]models.SearchResult, error) {
	rows, err := p.pool.Query(ctx, `
        SELECT id, channel_id, video_id, title, content, published_at,
               1 - (embedding <=> $1) AS score
        FROM vectors
        WHERE namespace = $2 AND channel_id = $3
        ORDER BY embedding <=> $1
        LIMIT $4`,
		pgvector.NewVector(vector), namespace, channelID, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		var score float64
		if err := rows.Scan(&res.ID, &res.Metadata.ChannelID, &res.Metadata.VideoID,
			&res.Metadata.Title, &res.Metadata.Text, &res.Metadata.PublishedAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		res.Score = float32(score)
		results = append(results, res)
	}
	return results, rows.Err()
}
