package catalog

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-order-intake/internal/aws"
	"github.com/imrishuroy/go-order-intake/internal/config"
	log "github.com/sirupsen/logrus"
)

// Load builds the catalog from the configured source. dynamo is only used
// for the dynamodb source and may be nil otherwise.
func Load(ctx context.Context, cfg config.CatalogConfig, dynamo aws.DynamoDBAPI) (*Store, error) {
	var (
		store *Store
		err   error
	)
	switch cfg.Source {
	case config.SourceCSV, "":
		store, err = LoadCSV(cfg.Path)
	case config.SourceDynamoDB:
		if dynamo == nil {
			return nil, newCatalogError("dynamodb://"+cfg.Table, fmt.Errorf("no DynamoDB client configured"))
		}
		store, err = LoadDynamoDB(ctx, dynamo, cfg.Table)
	case config.SourcePostgres:
		db, openErr := OpenPostgres(ctx, cfg.DatabaseURL)
		if openErr != nil {
			return nil, newCatalogError("postgres://products", openErr)
		}
		defer db.Close()
		store, err = LoadPostgres(ctx, db)
	default:
		return nil, newCatalogError(cfg.Source, fmt.Errorf("unknown catalog source %q", cfg.Source))
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"component": "catalog",
		"source":    cfg.Source,
		"products":  store.Len(),
	}).Info("catalog loaded")
	return store, nil
}
