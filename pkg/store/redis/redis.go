// Package redis stores documents in Redis hashes.
//
// Each document is a hash {data, updated} under "<prefix>doc:<name>"; the
// set "<prefix>docs" indexes the names for listing.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/keygraph/pkg/store"
)

// Config configures the Redis connection.
type Config struct {
	// URL is the connection string, e.g. "redis://localhost:6379/0".
	URL string

	// Prefix is prepended to every key. Default "keygraph:".
	Prefix string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Store implements store.Store on Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		cfg.URL = "redis://localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "keygraph:"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = cfg.DialTimeout
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client, prefix: cfg.Prefix}, nil
}

func (s *Store) key(name string) string { return s.prefix + "doc:" + name }
func (s *Store) index() string          { return s.prefix + "docs" }

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := store.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = s.client.HGet(ctx, s.key(name), "data").Bytes()
		return store.Transient(err)
	})
	if errors.Is(err, goredis.Nil) {
		return nil, store.NotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	updated := time.Now().UTC().Format(time.RFC3339Nano)
	err := store.RetryWithBackoff(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.HSet(ctx, s.key(name), "data", data, "updated", updated)
			p.SAdd(ctx, s.index(), name)
			return nil
		})
		return store.Transient(err)
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.key(name))
		p.SRem(ctx, s.index(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]store.Info, error) {
	names, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	slices.Sort(names)

	sizes := make([]*goredis.IntCmd, len(names))
	stamps := make([]*goredis.StringCmd, len(names))
	if _, err := s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, name := range names {
			sizes[i] = p.HStrLen(ctx, s.key(name), "data")
			stamps[i] = p.HGet(ctx, s.key(name), "updated")
		}
		return nil
	}); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("redis list: %w", err)
	}

	out := make([]store.Info, 0, len(names))
	for i, name := range names {
		stamp, err := stamps[i].Result()
		if err != nil {
			// Deleted between SMEMBERS and the pipeline.
			continue
		}
		updated, _ := time.Parse(time.RFC3339Nano, stamp)
		out = append(out, store.Info{Name: name, Size: sizes[i].Val(), Updated: updated})
	}
	slices.SortFunc(out, func(a, b store.Info) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }

var _ store.Store = (*Store)(nil)
