package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/cinerag/cinerag/internal/model"
)

type qdrantConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	APIKey     string `json:"api_key"`
	UseTLS     bool   `json:"use_tls"`
	Collection string `json:"collection"`
}

type qdrantStore struct {
	client     *qdrant.Client
	collection string
}

func init() {
	Register("qdrant", createQdrantStore)
}

func createQdrantStore(deps Deps) (ContextStore, error) {
	cfg := &qdrantConfig{}
	if err := decodeConfig(deps.Args, cfg); err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "movies"
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, err
	}
	return &qdrantStore{
		client:     client,
		collection: cfg.Collection,
	}, nil
}

func (s *qdrantStore) Init(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *qdrantStore) Upsert(ctx context.Context, docs []ContextDoc) error {
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(doc.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"doc_id": doc.ID,
				"title":  doc.Title,
				"text":   doc.Content,
			}),
		})
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	return err
}

func (s *qdrantStore) Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]model.SearchHit, error) {
	limit64 := uint64(limit)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit64,
		Query:          qdrant.NewQuery(vector...),
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	var hits []model.SearchHit
	for _, point := range resp {
		// Qdrant's score threshold is inclusive; keep the strict comparison.
		if point.Score <= threshold {
			continue
		}
		hit := model.SearchHit{Score: point.Score}
		if value, ok := point.Payload["doc_id"]; ok {
			hit.ID = value.GetStringValue()
		}
		if hit.ID == "" && point.Id != nil {
			switch x := point.Id.PointIdOptions.(type) {
			case *qdrant.PointId_Uuid:
				hit.ID = x.Uuid
			case *qdrant.PointId_Num:
				hit.ID = fmt.Sprintf("%d", x.Num)
			}
		}
		if value, ok := point.Payload["title"]; ok {
			hit.Title = value.GetStringValue()
		}
		if value, ok := point.Payload["text"]; ok {
			hit.Content = value.GetStringValue()
		}
		if hit.Content == "" {
			hit.Content = hit.Title
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *qdrantStore) Close() error {
	return s.client.Close()
}

// pointID maps an arbitrary catalog id onto a stable UUID so repeated loads
// of the same record overwrite the same point.
func pointID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}
