package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/feyti/medreport/pkg/config"
	"github.com/feyti/medreport/pkg/retry"
)

const (
	ReportsCollection = "reports"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client and waits until the server is healthy
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.OnRetry = func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
	}

	err := retry.Do(ctx, retryConfig, "Typesense", func(ctx context.Context) error {
		healthy, err := client.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !healthy {
			return fmt.Errorf("typesense at %s is not healthy", cfg.URL)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// NewClientFromTypesense wraps an already configured typesense client
func NewClientFromTypesense(client *typesense.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the reports collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == ReportsCollection {
			log.Debug().Str("collection", ReportsCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	_, err = c.client.Collections().Create(ctx, reportsSchema())
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", ReportsCollection).Msg("Created Typesense collection")
	return nil
}

func reportsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ReportsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "report_text", Type: "string"},
			{Name: "drug", Type: "string", Facet: pointer.True()},
			{Name: "adverse_events", Type: "string[]", Facet: pointer.True()},
			{Name: "severity", Type: "string", Facet: pointer.True()},
			{Name: "outcome", Type: "string", Facet: pointer.True()},
			{Name: "text_hash", Type: "string", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}
