package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON 是 GetOrLoad 的类型化版本；load 返回的错误不会被缓存。
// 命中的缓存值解码失败（结构体改版后的旧数据）时删掉该 key 并直接回源，
// 回源结果重新写回缓存。
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	var loaded *T
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		loaded = v
		return json.Marshal(v)
	}

	b, err := c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		return loaded, nil
	}
	out, err := decode[T](b)
	if err == nil {
		return out, nil
	}

	_ = c.Invalidate(ctx, key)
	b, err = c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		return loaded, nil
	}
	return decode[T](b)
}

func decode[T any](b []byte) (*T, error) {
	if string(b) == "null" {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
