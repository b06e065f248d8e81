package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medscribe-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Postgres error codes raised when two processes create the same relation.
var duplicateObjectCodes = map[string]bool{
	"42P07": true, // duplicate_table
	"42710": true, // duplicate_object
	"23505": true, // unique_violation on pg_type during CREATE TABLE IF NOT EXISTS
}

const embedConcurrency = 4

// PgIndex keeps one table per collection with a pgvector column.
type PgIndex struct {
	db         *gorm.DB
	embedder   embedding.EmbeddingProvider
	collection string
	dimension  int
}

var _ Index = (*PgIndex)(nil)

func NewPgIndex(db *gorm.DB, embedder embedding.EmbeddingProvider, collection string, dimension int) (*PgIndex, error) {
	if !validCollectionName(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return &PgIndex{
		db:         db,
		embedder:   embedder,
		collection: collection,
		dimension:  dimension,
	}, nil
}

type chunkRow struct {
	ID        string          `gorm:"column:id;primaryKey"`
	UserID    string          `gorm:"column:user_id"`
	CaseID    string          `gorm:"column:case_id"`
	Text      string          `gorm:"column:text"`
	Metadata  datatypes.JSON  `gorm:"column:metadata"`
	Embedding pgvector.Vector `gorm:"column:embedding"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

type scoredRow struct {
	ID       string
	UserID   string
	CaseID   string
	Text     string
	Metadata datatypes.JSON
	Score    float64
}

func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return duplicateObjectCodes[pgErr.Code]
	}
	return false
}

func (p *PgIndex) Collection() string {
	return p.collection
}

func (p *PgIndex) EnsureCollection(ctx context.Context, name string) error {
	if !validCollectionName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}

	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id varchar(64) PRIMARY KEY,
			user_id varchar(128) NOT NULL,
			case_id varchar(128) NOT NULL,
			text text NOT NULL,
			metadata jsonb,
			embedding vector(%d) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, name, p.dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", name, FieldUserID, name, FieldUserID),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", name, FieldCaseID, name, FieldCaseID),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s USING hnsw (embedding vector_cosine_ops)", name, name),
	}

	db := p.db.WithContext(ctx)
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil && !isDuplicateObject(err) {
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
	}
	return nil
}

func (p *PgIndex) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i, text := range texts {
		g.Go(func() error {
			res, err := p.embedder.Generate(gctx, text, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = res.Embedding.Values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *PgIndex) Upsert(ctx context.Context, userID, caseID string, chunks []string, metadata map[string]interface{}) ([]string, error) {
	if err := validateUpsert(userID, caseID); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := p.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	var meta datatypes.JSON
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		meta = b
	}

	now := time.Now().UTC()
	rows := make([]chunkRow, len(chunks))
	ids := make([]string, len(chunks))
	for i, text := range chunks {
		ids[i] = uuid.NewString()
		rows[i] = chunkRow{
			ID:        ids[i],
			UserID:    userID,
			CaseID:    caseID,
			Text:      text,
			Metadata:  meta,
			Embedding: pgvector.NewVector(vectors[i]),
			CreatedAt: now,
		}
	}

	if err := p.db.WithContext(ctx).Table(p.collection).CreateInBatches(&rows, 200).Error; err != nil {
		return nil, fmt.Errorf("upsert chunks: %w", err)
	}
	return ids, nil
}

func (p *PgIndex) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if q.UserID == "" {
		return nil, ErrUserRequired
	}

	res, err := p.embedder.Generate(ctx, q.Text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector := pgvector.NewVector(res.Embedding.Values)

	query := p.db.WithContext(ctx).
		Table(p.collection).
		Select("id, user_id, case_id, text, metadata, 1 - (embedding <=> ?) AS score", queryVector).
		Where("user_id = ?", q.UserID)
	if q.CaseID != "" {
		query = query.Where("case_id = ?", q.CaseID)
	}

	var rows []scoredRow
	if err := query.Order("score DESC").Limit(normalizeTopK(q.TopK)).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(rows))
	for _, r := range rows {
		// the SQL filter already scopes to the user; this guards a bad row mapping
		if r.UserID != q.UserID {
			continue
		}
		var meta map[string]interface{}
		if len(r.Metadata) > 0 {
			_ = json.Unmarshal(r.Metadata, &meta)
		}
		out = append(out, SearchResult{
			Chunk: Chunk{ID: r.ID, UserID: r.UserID, CaseID: r.CaseID, Text: r.Text, Metadata: meta},
			Score: r.Score,
		})
	}
	return out, nil
}

func (p *PgIndex) DeleteByCase(ctx context.Context, caseID string) (int64, error) {
	if caseID == "" {
		return 0, ErrCaseRequired
	}
	res := p.db.WithContext(ctx).Table(p.collection).Where("case_id = ?", caseID).Delete(&chunkRow{})
	return res.RowsAffected, res.Error
}

func (p *PgIndex) CountByUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserRequired
	}
	var count int64
	err := p.db.WithContext(ctx).Table(p.collection).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
