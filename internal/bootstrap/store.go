package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mindmesh/mindmesh-client/config"
	"github.com/mindmesh/mindmesh-client/internal/session"
	"github.com/redis/go-redis/v9"
)

type StoreOptions struct {
	Redis   config.RedisConfig
	Session config.SessionConfig
	PingTO  time.Duration
}

// Store is the opened session store plus whatever must be stopped with it.
type Store struct {
	session.Store
	sweeper *session.Sweeper
}

// Close stops the sweeper, if any, then the underlying store.
func (s *Store) Close() error {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	return s.Store.Close()
}

// OpenStore connects to redis when an address is configured and falls back
// to the in-memory LRU otherwise.
func OpenStore(ctx context.Context, opt StoreOptions) (*Store, error) {
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	if opt.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     opt.Redis.Addr,
			Password: opt.Redis.Password,
			DB:       opt.Redis.DB,
		})

		pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
		defer cancel()

		if err := client.Ping(pctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}

		log.Printf("Session store: redis at %s (db %d)", opt.Redis.Addr, opt.Redis.DB)
		return &Store{Store: session.NewRedisStore(client, opt.Session.TTL)}, nil
	}

	mem, err := session.NewMemoryStore(opt.Session.MaxEntries, opt.Session.TTL)
	if err != nil {
		return nil, err
	}

	sweeper := session.NewSweeper(mem, opt.Session.SweepSchedule)
	if err := sweeper.Start(); err != nil {
		return nil, fmt.Errorf("session sweeper: %w", err)
	}

	log.Printf("Session store: in-memory (max %d sessions)", opt.Session.MaxEntries)
	return &Store{Store: mem, sweeper: sweeper}, nil
}
