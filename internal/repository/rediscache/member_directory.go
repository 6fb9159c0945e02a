package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"group-chat/internal/domain"
	"group-chat/internal/observability"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "member:"

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// MemberDirectory is a read-through cache in front of another
// domain.MemberDirectory. Redis failures fall back to the wrapped directory.
type MemberDirectory struct {
	next   domain.MemberDirectory
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewMemberDirectory(client *redis.Client, next domain.MemberDirectory, ttl time.Duration) *MemberDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemberDirectory{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: defaultKeyPrefix,
	}
}

// GetByID implements domain.MemberDirectory
func (d *MemberDirectory) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	key := d.prefix + "id:" + strconv.FormatInt(id, 10)
	return d.lookup(ctx, key, func() (*domain.Member, error) {
		return d.next.GetByID(ctx, id)
	})
}

// GetByNickname implements domain.MemberDirectory
func (d *MemberDirectory) GetByNickname(ctx context.Context, nickname string) (*domain.Member, error) {
	key := d.prefix + "nick:" + nickname
	return d.lookup(ctx, key, func() (*domain.Member, error) {
		return d.next.GetByNickname(ctx, nickname)
	})
}

func (d *MemberDirectory) lookup(ctx context.Context, key string, load func() (*domain.Member, error)) (*domain.Member, error) {
	raw, err := d.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var member domain.Member
		if jsonErr := json.Unmarshal(raw, &member); jsonErr == nil {
			observability.MemberCacheLookupsTotal.WithLabelValues("hit").Inc()
			return &member, nil
		}
		slog.Warn("discarding corrupt member cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("member cache unavailable", slog.String("key", key), slog.String("error", err.Error()))
	}

	observability.MemberCacheLookupsTotal.WithLabelValues("miss").Inc()
	member, err := load()
	if err != nil {
		return nil, err
	}
	d.store(ctx, member)
	return member, nil
}

// store caches the member under both lookup keys
func (d *MemberDirectory) store(ctx context.Context, member *domain.Member) {
	body, err := json.Marshal(member)
	if err != nil {
		return
	}
	keys := []string{
		d.prefix + "id:" + strconv.FormatInt(member.ID, 10),
		d.prefix + "nick:" + member.Nickname,
	}
	for _, key := range keys {
		if err := d.client.Set(ctx, key, body, d.ttl).Err(); err != nil {
			slog.Warn("failed to cache member", slog.String("key", key), slog.String("error", err.Error()))
			return
		}
	}
}
