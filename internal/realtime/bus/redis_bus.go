package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/realtime"
)

const DefaultChannelPrefix = "intake_sse"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Channel prefixes every per-user Redis channel.
	Channel string
}

// redisBus publishes each message on "<prefix>:<user channel>" and forwards with one
// pattern subscription, so a payload never has to repeat its routing key.
type redisBus struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
}

func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return newRedisBus(log, rdb, cfg.Channel), nil
}

func newRedisBus(log *logger.Logger, rdb goredis.UniversalClient, prefix string) *redisBus {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &redisBus{log: log.With("service", "RedisSSEBus"), rdb: rdb, prefix: prefix}
}

func (b *redisBus) topic(userChannel string) string { return b.prefix + ":" + userChannel }

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if msg.Channel == "" {
		return errors.New("sse message has no channel")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.topic(msg.Channel), raw).Err()
}

// decode rebuilds a message from a Redis delivery. The user channel comes from the Redis
// channel name and wins over whatever the payload carries.
func (b *redisBus) decode(m *goredis.Message) (realtime.SSEMessage, error) {
	var msg realtime.SSEMessage
	userChannel, ok := strings.CutPrefix(m.Channel, b.prefix+":")
	if !ok || userChannel == "" {
		return msg, fmt.Errorf("foreign channel %q", m.Channel)
	}
	if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
		return msg, err
	}
	msg.Channel = userChannel
	return msg, nil
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}
	sub := b.rdb.PSubscribe(ctx, b.topic("*"))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				msg, err := b.decode(m)
				if err != nil {
					b.log.Warn("Dropped SSE delivery", "redis_channel", m.Channel, "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
