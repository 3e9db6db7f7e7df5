package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/storage/sqlite"
)

type StorageConfig struct {
	Durable DurableConfig `json:"durable"`
	Cache   CacheConfig   `json:"cache"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Durable.validate())
	el.Add(c.Cache.validate())
	return el.Err()
}

type DurableConfig struct {
	Path string `json:"path"`
}

func (c *DurableConfig) validate() error {
	if c.Path == "" {
		return fmt.Errorf("storage.durable.path is required")
	}
	return nil
}

func (c *DurableConfig) open(ctx context.Context) (*sqlite.Store, error) {
	return sqlite.Open(ctx, c.Path)
}

type CacheDriver string

const (
	CacheDriverRedis  CacheDriver = "redis"
	CacheDriverMemory CacheDriver = "memory"
)

type CacheConfig struct {
	Driver   CacheDriver `json:"driver"`
	Addr     string      `json:"addr,omitempty"`
	Password string      `json:"password,omitempty"`
	DB       int         `json:"db,omitempty"`
}

func (c *CacheConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Driver {
	case CacheDriverRedis:
		if c.Addr == "" {
			el.Add(fmt.Errorf("storage.cache.addr is required for the redis driver"))
		}
	case CacheDriverMemory:
	default:
		el.Add(fmt.Errorf("unknown storage.cache.driver %q", c.Driver))
	}

	return el.Err()
}

// open returns the cache and a function that releases it.
func (c *CacheConfig) open(ctx context.Context) (cache.FieldStore, func() error, error) {
	switch c.Driver {
	case CacheDriverRedis:
		r, err := cache.DialRedis(ctx, c.Addr, c.Password, c.DB)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return cache.NewMemory(), func() error { return nil }, nil
	}
}
