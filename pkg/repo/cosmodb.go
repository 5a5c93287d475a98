package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/cockroachdb/errors"
	"github.com/gammazero/workerpool"
)

const (
	entriesContainer = "entries"
	defaultPoolSize  = 50
)

type cosmoEntry struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updatedAt"`
}

// Cosmo keeps every key of one namespace in a single logical partition.
// Keys are used as item ids, so they must not contain '/', '\', '?' or '#'.
type Cosmo struct {
	cl          *azcosmos.DatabaseClient
	namespace   string
	setupCalled bool
}

func NewCosmo(
	cl *azcosmos.Client,
	dbName string,
	namespace string,
) (*Cosmo, error) {
	_, err := cl.CreateDatabase(context.Background(), azcosmos.DatabaseProperties{
		ID: dbName,
	}, &azcosmos.CreateDatabaseOptions{})

	c := &Cosmo{
		namespace: namespace,
	}

	if realErr := c.ignoreStatus(err, http.StatusConflict); realErr != nil {
		return nil, realErr
	}

	db, err := cl.NewDatabase(dbName)
	if err != nil {
		return nil, err
	}
	c.cl = db

	if err = c.setupContainers(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cosmo) setupContainers() error {
	if c.setupCalled {
		return nil
	}

	_, err := c.cl.CreateContainer(context.Background(), azcosmos.ContainerProperties{
		ID: entriesContainer,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{"/namespace"},
		},
	}, &azcosmos.CreateContainerOptions{})
	if err = c.ignoreStatus(err, http.StatusConflict); err != nil {
		return err
	}

	c.setupCalled = true

	return nil
}

func (c *Cosmo) ignoreStatus(err error, status int) error {
	if err == nil {
		return nil
	}

	var azureErr *azcore.ResponseError
	if errors.As(err, &azureErr) && azureErr.StatusCode == status {
		return nil
	}

	return err
}

func (c *Cosmo) getContainer() (*azcosmos.ContainerClient, error) {
	if err := c.setupContainers(); err != nil {
		return nil, err
	}

	return c.cl.NewContainer(entriesContainer)
}

func (c *Cosmo) partitionKey() azcosmos.PartitionKey {
	return azcosmos.NewPartitionKeyString(c.namespace)
}

func (c *Cosmo) Get(ctx context.Context, key string) (string, bool, error) {
	container, err := c.getContainer()
	if err != nil {
		return "", false, err
	}

	resp, err := container.ReadItem(ctx, c.partitionKey(), key, nil)
	if err != nil {
		if c.ignoreStatus(err, http.StatusNotFound) == nil {
			return "", false, nil
		}

		return "", false, errors.Wrapf(err, "failed to read key %s", key)
	}

	var entry cosmoEntry
	if err = json.Unmarshal(resp.Value, &entry); err != nil {
		return "", false, errors.WithStack(err)
	}

	return entry.Value, true, nil
}

func (c *Cosmo) Set(ctx context.Context, key string, value string) error {
	container, err := c.getContainer()
	if err != nil {
		return err
	}

	b, err := json.Marshal(cosmoEntry{
		ID:        key,
		Namespace: c.namespace,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	_, err = container.UpsertItem(ctx, c.partitionKey(), b, nil)

	return err
}

func (c *Cosmo) Remove(ctx context.Context, key string) error {
	container, err := c.getContainer()
	if err != nil {
		return err
	}

	_, err = container.DeleteItem(ctx, c.partitionKey(), key, nil)

	return c.ignoreStatus(err, http.StatusNotFound)
}

func (c *Cosmo) Keys(ctx context.Context, prefix string) ([]string, error) {
	container, err := c.getContainer()
	if err != nil {
		return nil, err
	}

	query := "SELECT c.id FROM c WHERE STARTSWITH(c.id, @prefix) ORDER BY c.id"
	pager := container.NewQueryItemsPager(query, c.partitionKey(), &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{
			{
				Name:  "@prefix",
				Value: prefix,
			},
		},
	})

	var keys []string

	for pager.More() {
		response, pageErr := pager.NextPage(ctx)
		if pageErr != nil {
			return nil, pageErr
		}

		for _, bytes := range response.Items {
			var item cosmoEntry
			if err = json.Unmarshal(bytes, &item); err != nil {
				return nil, err
			}

			keys = append(keys, item.ID)
		}
	}

	return keys, nil
}

func (c *Cosmo) Clear(ctx context.Context) error {
	keys, err := c.Keys(ctx, "")
	if err != nil {
		return err
	}

	pool := workerpool.New(defaultPoolSize)

	var mut sync.Mutex
	var finalErr error

	for _, key := range keys {
		keyCopy := key

		pool.Submit(func() {
			if deleteErr := c.Remove(ctx, keyCopy); deleteErr != nil {
				mut.Lock()
				finalErr = errors.Join(finalErr, deleteErr)
				mut.Unlock()
			}
		})
	}

	pool.StopWait()

	return finalErr
}
