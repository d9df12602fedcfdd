package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis"
	"github.com/xpanvictor/humidhub/internal/domains/user"
)

const (
	redisKeyPrefix = "humidhub:"
	// pause between optimistic transaction attempts on a contended user
	redisRetryInitial = 2 * time.Millisecond
	redisRetryMax     = 50 * time.Millisecond
)

func userKey(id string) string           { return redisKeyPrefix + "user:" + id }
func usernameKey(username string) string { return redisKeyPrefix + "username:" + username }
func userIndexKey() string               { return redisKeyPrefix + "users" }

// redisUser is the JSON document stored per user
type redisUser struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Password  string         `json:"password_hash"`
	Devices   []DeviceEntity `json:"devices"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func toRedisUser(u *user.User) redisUser {
	e := NewUserEntityFromDomain(u)
	return redisUser{
		ID:        e.ID,
		Username:  e.Username,
		Password:  e.Password,
		Devices:   e.Devices,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (r redisUser) toDomain() *user.User {
	e := UserEntity{
		ID:        r.ID,
		Username:  r.Username,
		Password:  r.Password,
		Devices:   r.Devices,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	return e.ToDomain()
}

func decodeRedisUser(raw []byte) (*user.User, error) {
	var doc redisUser
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	return doc.toDomain(), nil
}

// RedisUserRepo keeps each user as one JSON document. A username key maps
// to the id and a list keeps creation order.
type RedisUserRepo struct {
	rc *redis.Client
}

// Create implements user.UserRepository
func (r *RedisUserRepo) Create(ctx context.Context, u *user.User) error {
	ok, err := r.rc.SetNX(usernameKey(u.Username), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve username: %w", err)
	}
	if !ok {
		return user.ErrUsernameTaken
	}

	doc, err := json.Marshal(toRedisUser(u))
	if err != nil {
		r.rc.Del(usernameKey(u.Username))
		return fmt.Errorf("failed to encode user: %w", err)
	}

	_, err = r.rc.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Set(userKey(u.ID), doc, 0)
		pipe.RPush(userIndexKey(), u.ID)
		return nil
	})
	if err != nil {
		r.rc.Del(usernameKey(u.Username))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID implements user.UserRepository
func (r *RedisUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	raw, err := r.rc.Get(userKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return decodeRedisUser(raw)
}

// GetByUsername implements user.UserRepository
func (r *RedisUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	id, err := r.rc.Get(usernameKey(username)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return r.GetByID(ctx, id)
}

// List implements user.UserRepository
func (r *RedisUserRepo) List(ctx context.Context, offset, limit int) ([]user.User, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}

	ids, err := r.rc.LRange(userIndexKey(), int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	if len(ids) == 0 {
		return []user.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}
	docs, err := r.rc.MGet(keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		s, ok := d.(string)
		if !ok {
			// index entry without a document
			continue
		}
		u, err := decodeRedisUser([]byte(s))
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// UsernameExists implements user.UserRepository
func (r *RedisUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := r.rc.Exists(usernameKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return n > 0, nil
}

// Mutate implements user.UserRepository with WATCH/MULTI. A write that
// races another one is re-applied on fresh data until it commits or ctx is
// done.
func (r *RedisUserRepo) Mutate(ctx context.Context, id string, fn user.MutateFunc) (*user.User, error) {
	key := userKey(id)
	var saved *user.User

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return user.ErrUserNotFound
			}
			return fmt.Errorf("failed to load user for update: %w", err)
		}
		u, err := decodeRedisUser(raw)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now().UTC()

		doc, err := json.Marshal(toRedisUser(u))
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(key, doc, 0)
			return nil
		})
		if err != nil {
			return err
		}
		saved = u
		return nil
	}

	attempt := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := r.rc.Watch(txf, key)
		if err == nil || errors.Is(err, redis.TxFailedErr) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(attempt, backoff.WithContext(newMutateBackOff(), ctx)); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("failed to save user %s: %w", id, err)
		}
		return nil, err
	}
	return saved, nil
}

// newMutateBackOff has no elapsed-time limit. The caller ctx bounds it.
func newMutateBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = redisRetryInitial
	b.MaxInterval = redisRetryMax
	b.MaxElapsedTime = 0
	return b
}

// NewRedisUserRepo creates a new Redis-backed user repository
func NewRedisUserRepo(rc *redis.Client) user.UserRepository {
	return &RedisUserRepo{rc: rc}
}
