// Package search keeps a full-text index of public tours in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
)

// TourIndex is the search side of the tour catalogue.
type TourIndex interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id int64) error
	// Search returns the ids of matching tours, best match first.
	Search(ctx context.Context, query string, limit int) ([]int64, error)
}

// ElasticIndex implements TourIndex.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

type tourDocument struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Difficulty  string  `json:"difficulty"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"ratingsAverage"`
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "long"},
      "name":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "slug":           {"type": "keyword"},
      "summary":        {"type": "text"},
      "description":    {"type": "text"},
      "difficulty":     {"type": "keyword"},
      "price":          {"type": "double"},
      "ratingsAverage": {"type": "double"}
    }
  }
}`

// NewClient creates an Elasticsearch client with short dial and header timeouts.
func NewClient(cfg config.ElasticsearchSettings) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

// NewElasticIndex wraps client for the given index name.
func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}

	log.Info().Str("index", e.index).Msg("Created search index")
	return nil
}

// Index upserts the document for tour.
func (e *ElasticIndex) Index(ctx context.Context, tour *models.Tour) error {
	doc := tourDocument{
		ID:          tour.ID,
		Name:        tour.Name,
		Slug:        tour.Slug,
		Summary:     tour.Summary,
		Description: tour.Description,
		Difficulty:  tour.Difficulty,
		Price:       tour.Price,
		Rating:      tour.RatingsAverage,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode tour document: %w", err)
	}

	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(strconv.FormatInt(tour.ID, 10)),
	)
	if err != nil {
		return fmt.Errorf("failed to index tour: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index tour", res)
	}
	return nil
}

// Delete removes a tour document. Missing documents are not an error.
func (e *ElasticIndex) Delete(ctx context.Context, id int64) error {
	res, err := e.client.Delete(e.index, strconv.FormatInt(id, 10), e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete tour document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete tour", res)
	}
	return nil
}

// Search implements TourIndex.
func (e *ElasticIndex) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	body, err := json.Marshal(map[string]interface{}{
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "summary^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search tours: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search tours", res)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			log.Warn().Str("doc_id", hit.ID).Msg("Skipping search hit with non-numeric id")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}
