package elastic

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/usuariosapp/accounts-api/internal/domain/entity"
)

// Indexer mirrors committed users into an Elasticsearch index for the search
// endpoint. All operations are best-effort: the durable store is the source
// of truth and indexing failures are logged, never surfaced to callers.
type Indexer struct {
	Client *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, logger *logrus.Logger) *Indexer {
	return &Indexer{Client: client, Index: index, Logger: logger}
}

func (ix *Indexer) enabled() bool {
	return ix != nil && ix.Client != nil && ix.Index != ""
}

// IndexUser upserts the user's search document.
func (ix *Indexer) IndexUser(ctx context.Context, u *entity.User) error {
	if !ix.enabled() {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID.String(),
		"name":       u.Name,
		"email":      u.Email,
		"permission": u.Permission.String(),
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: ix.Index, DocumentID: u.ID.String(), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, ix.Client)
	if err != nil {
		if ix.Logger != nil {
			ix.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && ix.Logger != nil {
		ix.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// DeleteUser removes the user's search document.
func (ix *Indexer) DeleteUser(ctx context.Context, id string) error {
	if !ix.enabled() {
		return nil
	}
	req := esapi.DeleteRequest{Index: ix.Index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, ix.Client)
	if err != nil {
		if ix.Logger != nil {
			ix.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return nil
}

// Search runs a multi_match query over name and email.
func (ix *Indexer) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !ix.enabled() {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := ix.Client.Search(
		ix.Client.Search.WithContext(c),
		ix.Client.Search.WithIndex(ix.Index),
		ix.Client.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
