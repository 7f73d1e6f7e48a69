package config

import (
	"context"

	"github.com/charmbracelet/log"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/store"
	"github.com/matzehuels/keygraph/pkg/store/mongo"
	"github.com/matzehuels/keygraph/pkg/store/redis"
	"github.com/matzehuels/keygraph/pkg/store/s3"
	"github.com/matzehuels/keygraph/pkg/store/sqlite"
)

// OpenStore connects the configured document store. The returned store
// reports to the observability store hooks under its driver name.
func (c StoreConfig) OpenStore(ctx context.Context, logger *log.Logger) (store.Store, error) {
	s, err := c.open(ctx)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInternal, err, "open %s store", c.Driver)
	}
	logger.Debug("store opened", "driver", c.Driver)
	return store.Instrument(s, c.Driver), nil
}

func (c StoreConfig) open(ctx context.Context) (store.Store, error) {
	switch c.Driver {
	case DriverFile, "":
		return store.NewFileStore(c.File.Dir)
	case DriverMemory:
		return store.NewMemoryStore(), nil
	case DriverRedis:
		return redis.New(ctx, redis.Config{
			URL:          c.Redis.URL,
			Prefix:       c.Redis.Prefix,
			DialTimeout:  c.Redis.DialTimeout,
			ReadTimeout:  c.Redis.ReadTimeout,
			WriteTimeout: c.Redis.WriteTimeout,
		})
	case DriverMongo:
		return mongo.New(ctx, mongo.Config{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
			Timeout:    c.Mongo.Timeout,
		})
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Prefix:          c.S3.Prefix,
			Endpoint:        c.S3.Endpoint,
			PathStyle:       c.S3.PathStyle,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			SessionToken:    c.S3.SessionToken,
		})
	case DriverSQLite:
		return sqlite.New(ctx, c.SQLite.Path)
	}
	return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown store driver %q", c.Driver)
}
