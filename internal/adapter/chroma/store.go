// Package chroma stores chunk vectors in a Chroma server collection.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
	"studyrag/internal/port"
)

// Integer metadata is stored as Chroma int attributes so it stays sortable.
var intKeys = map[string]bool{
	domain.MetaChunkIndex: true,
	domain.MetaChunkTotal: true,
}

// Store implements port.VectorStore on a Chroma collection. Embeddings are
// always supplied by the caller. The collection is given a local hashing
// embedding function only so the client does not fetch its default model.
type Store struct {
	client     chromago.Client
	collection chromago.Collection
}

// Open connects to the Chroma server at baseURL and gets or creates the
// named collection with cosine distance.
func Open(ctx context.Context, baseURL, collectionName string) (*Store, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, &domain.StoreError{Op: "connect", Err: err}
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithEmbeddingFunctionCreate(embeddings.NewConsistentHashEmbeddingFunction()),
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "studyrag study materials"),
				chromago.NewStringAttribute("hnsw:space", "cosine"),
			),
		),
	)
	if err != nil {
		client.Close()
		return nil, &domain.StoreError{Op: "get collection", Err: err}
	}

	logger.Infow("connected to chroma", "url", baseURL, "collection", collectionName)
	return &Store{client: client, collection: collection}, nil
}

// New wraps an existing collection.
func New(collection chromago.Collection) *Store {
	return &Store{collection: collection}
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) Add(ctx context.Context, records []port.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(records))
	texts := make([]string, len(records))
	vectors := make([]embeddings.Embedding, len(records))
	metadatas := make([]chromago.DocumentMetadata, len(records))

	for i, r := range records {
		ids[i] = chromago.DocumentID(r.ID)
		texts[i] = r.Text
		vectors[i] = embeddings.NewEmbeddingFromFloat32(r.Vector)
		metadatas[i] = toDocumentMetadata(r.Metadata)
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return &domain.StoreError{Op: "add", Err: err}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]port.VectorMatch, error) {
	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	}
	if !filter.Empty() {
		opts = append(opts, chromago.WithWhereQuery(whereClause(filter)))
	}

	results, err := s.collection.Query(ctx, opts...)
	if err != nil {
		return nil, queryError(filter, err)
	}

	idGroups := results.GetIDGroups()
	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	ids := idGroups[0]
	matches := make([]port.VectorMatch, 0, len(ids))
	for i, id := range ids {
		m := port.VectorMatch{ID: string(id)}
		if len(docGroups) > 0 && i < len(docGroups[0]) {
			m.Text = docGroups[0][i].ContentString()
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			meta, err := fromDocumentMetadata(metaGroups[0][i])
			if err != nil {
				return nil, &domain.StoreError{Op: "query", Err: fmt.Errorf("metadata for %s: %w", id, err)}
			}
			m.Metadata = meta
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			m.Distance = float64(distGroups[0][i])
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Delete removes matching records. Chroma does not report how many rows a
// delete touched, so the count is taken as the change in collection size.
func (s *Store) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("delete requires a filter: %w", domain.ErrInvalidInput)
	}

	before, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(whereClause(filter))); err != nil {
		return 0, &domain.StoreError{Op: "delete", Err: err}
	}

	after, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if before < after {
		return 0, nil
	}
	return before - after, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, &domain.StoreError{Op: "count", Err: err}
	}
	return int(count), nil
}

func (s *Store) Documents(ctx context.Context) ([]domain.Document, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Err: err}
	}

	summarizer := domain.NewDocumentSummarizer()
	for _, md := range results.GetMetadatas() {
		meta, err := fromDocumentMetadata(md)
		if err != nil {
			logger.Warnw("skipping unreadable chroma metadata", "error", err)
			continue
		}
		summarizer.Add(meta)
	}
	return summarizer.Documents(), nil
}

// queryError types a failed query. Only a rejection of the where clause
// becomes a FilteredQueryError; transport and server faults stay
// StoreErrors so they are not retried unfiltered.
func queryError(filter domain.Filter, err error) error {
	if !filter.Empty() && rejectsFilter(err) {
		return &domain.FilteredQueryError{Filter: filter, Err: err}
	}
	return &domain.StoreError{Op: "query", Err: err}
}

func rejectsFilter(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"where", "invalid", "validation"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func whereClause(filter domain.Filter) chromago.WhereClause {
	clauses := make([]chromago.WhereClause, 0, len(filter))
	for k, v := range filter {
		clauses = append(clauses, chromago.EqString(k, v))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return chromago.And(clauses...)
}

func toDocumentMetadata(meta map[string]string) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(meta))
	for k, v := range meta {
		if intKeys[k] {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				attrs = append(attrs, chromago.NewIntAttribute(k, n))
				continue
			}
		}
		attrs = append(attrs, chromago.NewStringAttribute(k, v))
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// fromDocumentMetadata flattens Chroma metadata back into strings via its
// JSON form.
func fromDocumentMetadata(md chromago.DocumentMetadata) (map[string]string, error) {
	out := make(map[string]string)
	if md == nil {
		return out, nil
	}

	jsonBytes, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return nil, err
	}

	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}
