package redis

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to a single node when one address is given and to a
// cluster otherwise. Every key a transaction touches shares a hash tag, so
// both modes support the same operations. db is ignored in cluster mode.
func NewClient(ctx context.Context, addrs []string, password string, db int) (goredis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, crerr.New("no redis addresses provided")
	}

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        addrs,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  6 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, crerr.Wrapf(err, "ping redis at %v", addrs)
	}
	return client, nil
}
