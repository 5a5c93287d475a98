package repo

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/cockroachdb/errors"

	"github.com/skynet2/spending-dashboard/pkg/common"
)

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}

// Open builds the storage backend selected in the configuration.
func Open(cfg *common.Config) (KV, error) {
	switch cfg.StorageBackend {
	case common.StorageMemory, "":
		return NewMemory(), nil
	case common.StoragePostgres:
		if cfg.PostgresConnectionString == "" {
			return nil, errors.New("POSTGRES_CONNECTION_STRING is required for postgres storage")
		}

		pg, err := OpenPostgres(cfg.PostgresConnectionString)
		if err != nil {
			return nil, err
		}

		return pg, nil
	case common.StorageCosmos:
		client, err := cosmoClient(cfg)
		if err != nil {
			return nil, err
		}

		cosmo, err := NewCosmo(client, cfg.CosmoDbName, common.NewKeys(cfg.AppPrefix).Prefix)
		if err != nil {
			return nil, err
		}

		return cosmo, nil
	default:
		return nil, errors.Newf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func cosmoClient(cfg *common.Config) (*azcosmos.Client, error) {
	if cfg.CosmoConnectionString != "" {
		return azcosmos.NewClientFromConnectionString(cfg.CosmoConnectionString, nil)
	}

	if cfg.CosmoEndpoint == "" {
		return nil, errors.New("COSMO_DB_CONNECTION_STRING or COSMO_DB_ENDPOINT is required for cosmos storage")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build azure credential")
	}

	return azcosmos.NewClient(cfg.CosmoEndpoint, credential, &azcosmos.ClientOptions{
		EnableContentResponseOnWrite: true,
	})
}
