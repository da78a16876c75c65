// internal/garden/search/index.go

// Package search indexes plant records in Elasticsearch for free-text
// lookup across name, scientific name and category.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"garden-planner/internal/models"
)

const (
	DefaultIndex = "plants"
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrEmptyQuery = errors.New("EMPTY_SEARCH_QUERY")

const plantMapping = `{
  "mappings": {
    "properties": {
      "name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "key": {"type": "keyword"},
      "scientificName": {"type": "text"},
      "category": {"type": "keyword"},
      "sunRequirement": {"type": "keyword"},
      "waterRequirement": {"type": "keyword"},
      "source": {"type": "keyword"},
      "usageCount": {"type": "long"},
      "createdAt": {"type": "date"}
    }
  }
}`

// Query is a plant search. Text may be empty when Category is set.
type Query struct {
	Text     string
	Category string
	Limit    int
}

type Index struct {
	client *elasticsearch.Client
	name   string
}

func NewIndex(client *elasticsearch.Client, name string) *Index {
	if name == "" {
		name = DefaultIndex
	}
	return &Index{client: client, name: name}
}

func (i *Index) Name() string { return i.name }

// EnsureIndex creates the plant index with its mapping if it is missing.
func (i *Index) EnsureIndex(ctx context.Context) error {
	exists := esapi.IndicesExistsRequest{Index: []string{i.name}}
	res, err := exists.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.name, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	create := esapi.IndicesCreateRequest{
		Index: i.name,
		Body:  strings.NewReader(plantMapping),
	}
	res, err = create.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.name, err)
	}
	defer res.Body.Close()

	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", i.name, res.String())
	}
	return nil
}

// IndexPlant writes rec under its lookup key, replacing any earlier copy.
func (i *Index) IndexPlant(ctx context.Context, rec models.PlantRecord) error {
	key := rec.Key
	if key == "" {
		key = models.NormalizeKey(rec.Name)
	}
	if key == "" {
		return fmt.Errorf("index plant: empty key")
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode plant %s: %w", key, err)
	}

	req := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: key,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index plant %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index plant %s: %s", key, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.PlantRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs q and returns the matching records with the total hit count.
func (i *Index) Search(ctx context.Context, q Query) ([]models.PlantRecord, int, error) {
	text := strings.TrimSpace(q.Text)
	category := models.NormalizeKey(q.Category)
	if text == "" && category == "" {
		return nil, 0, ErrEmptyQuery
	}

	body, err := json.Marshal(buildQuery(text, category, clampLimit(q.Limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("encode search: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{i.name},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, 0, fmt.Errorf("search plants: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search plants: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.PlantRecord, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, r.Hits.Total.Value, nil
}

func buildQuery(text, category string, limit int) map[string]interface{} {
	boolQuery := map[string]interface{}{}
	if text != "" {
		boolQuery["must"] = []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     text,
					"fields":    []string{"name^3", "scientificName", "category"},
					"fuzziness": "AUTO",
				},
			},
		}
	}
	if category != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"category": category}},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  limit,
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"usageCount": map[string]interface{}{"order": "desc"}},
		},
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
