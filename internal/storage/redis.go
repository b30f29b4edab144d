package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bilgisen/signage/internal/models"
)

// RedisStore keeps screens in a hash and notices in a hash plus an id list
// that preserves insertion order
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient parses the URL and checks the connection
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) screensKey() string     { return r.prefix + "screens" }
func (r *RedisStore) noticesKey() string     { return r.prefix + "notices" }
func (r *RedisStore) noticeOrderKey() string { return r.prefix + "notices:order" }

func (r *RedisStore) GetScreen(ctx context.Context, id string) (*models.Screen, error) {
	raw, err := r.client.HGet(ctx, r.screensKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("screen %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget error: %w", err)
	}

	var screen models.Screen
	if err := json.Unmarshal([]byte(raw), &screen); err != nil {
		return nil, fmt.Errorf("failed to parse screen %s: %w", id, err)
	}
	return &screen, nil
}

// ListScreens returns screens ordered by id
func (r *RedisStore) ListScreens(ctx context.Context) ([]models.Screen, error) {
	all, err := r.client.HGetAll(ctx, r.screensKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall error: %w", err)
	}
	return decodeScreens(all)
}

func decodeScreens(all map[string]string) ([]models.Screen, error) {
	screens := make([]models.Screen, 0, len(all))
	for id, raw := range all {
		var screen models.Screen
		if err := json.Unmarshal([]byte(raw), &screen); err != nil {
			return nil, fmt.Errorf("failed to parse screen %s: %w", id, err)
		}
		screens = append(screens, screen)
	}
	sort.Slice(screens, func(i, j int) bool { return screens[i].ID < screens[j].ID })
	return screens, nil
}

// CreateScreen allocates the id inside a WATCH transaction so concurrent
// creators cannot pick the same id
func (r *RedisStore) CreateScreen(ctx context.Context, screen models.Screen) (*models.Screen, error) {
	key := r.screensKey()
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		all, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		screens, err := decodeScreens(all)
		if err != nil {
			return err
		}
		screen.ID = NextScreenID(screens)

		data, err := json.Marshal(screen)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, screen.ID, data)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return &screen, nil
}

func (r *RedisStore) PutScreen(ctx context.Context, screen models.Screen) error {
	exists, err := r.client.HExists(ctx, r.screensKey(), screen.ID).Result()
	if err != nil {
		return fmt.Errorf("redis hexists error: %w", err)
	}
	if !exists {
		return fmt.Errorf("screen %s: %w", screen.ID, ErrNotFound)
	}

	data, err := json.Marshal(screen)
	if err != nil {
		return fmt.Errorf("failed to marshal screen: %w", err)
	}
	return r.client.HSet(ctx, r.screensKey(), screen.ID, data).Err()
}

func (r *RedisStore) DeleteScreen(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, r.screensKey(), id).Result()
	if err != nil {
		return fmt.Errorf("redis hdel error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("screen %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListNotices returns notices in the order recorded by the id list
func (r *RedisStore) ListNotices(ctx context.Context) ([]models.Notice, error) {
	ids, err := r.client.LRange(ctx, r.noticeOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange error: %w", err)
	}
	notices := make([]models.Notice, 0, len(ids))
	if len(ids) == 0 {
		return notices, nil
	}

	values, err := r.client.HMGet(ctx, r.noticesKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget error: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id listed but record gone, skip the dangling entry
			continue
		}
		var notice models.Notice
		if err := json.Unmarshal([]byte(raw), &notice); err != nil {
			return nil, fmt.Errorf("failed to parse notice %s: %w", ids[i], err)
		}
		notices = append(notices, notice)
	}
	return notices, nil
}

func (r *RedisStore) GetNotice(ctx context.Context, id string) (*models.Notice, error) {
	raw, err := r.client.HGet(ctx, r.noticesKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("notice %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget error: %w", err)
	}

	var notice models.Notice
	if err := json.Unmarshal([]byte(raw), &notice); err != nil {
		return nil, fmt.Errorf("failed to parse notice %s: %w", id, err)
	}
	return &notice, nil
}

// PutNotice writes the record and makes sure its id is in the order list.
// Both writes run in one transaction, and an id that an earlier failed write
// left out of the list is appended on the next put.
func (r *RedisStore) PutNotice(ctx context.Context, notice models.Notice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	orderKey := r.noticeOrderKey()
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		ids, err := tx.LRange(ctx, orderKey, 0, -1).Result()
		if err != nil {
			return err
		}
		listed := slices.Contains(ids, notice.ID)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.noticesKey(), notice.ID, data)
			if !listed {
				pipe.RPush(ctx, orderKey, notice.ID)
			}
			return nil
		})
		return err
	}, orderKey)
	if err != nil {
		return fmt.Errorf("failed to save notice %s: %w", notice.ID, err)
	}
	return nil
}

func (r *RedisStore) DeleteNotice(ctx context.Context, id string) (*models.Notice, error) {
	notice, err := r.GetNotice(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.noticesKey(), id)
		pipe.LRem(ctx, r.noticeOrderKey(), 0, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete notice %s: %w", id, err)
	}
	return notice, nil
}
