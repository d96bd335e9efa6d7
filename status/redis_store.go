// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package status

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const (
	fieldStatus        = "status"
	fieldSpecification = "specification"
)

// redisHashKey is the single hash key a Key maps to; status and
// specification live as two fields under it (spec §6).
func redisHashKey(key Key) string {
	return "chainhook:" + key.String()
}

// RedisStore backs Store with a hash per predicate key, matching the "any
// KV supporting hash-field get/set/del" requirement of spec §6.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) PutSpec(_ context.Context, key Key, spec []byte) error {
	if err := s.client.HSet(redisHashKey(key), fieldSpecification, string(spec)).Err(); err != nil {
		return errors.Wrap(err, "status: put spec")
	}
	return nil
}

func (s *RedisStore) PutStatus(_ context.Context, key Key, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "status: marshal record")
	}
	if err := s.client.HSet(redisHashKey(key), fieldStatus, string(raw)).Err(); err != nil {
		return errors.Wrap(err, "status: put status")
	}
	return nil
}

// GetStatus degrades both "no field" and "malformed json" to (nil, nil):
// status is advisory, never authoritative (spec §7).
func (s *RedisStore) GetStatus(_ context.Context, key Key) (*Record, error) {
	raw, err := s.client.HGet(redisHashKey(key), fieldStatus).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "status: get status")
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		logger.Warn("discarding malformed status record", "key", key.String(), "err", err)
		return nil, nil
	}
	return &rec, nil
}

func (s *RedisStore) Delete(_ context.Context, key Key) error {
	if err := s.client.HDel(redisHashKey(key), fieldStatus, fieldSpecification).Err(); err != nil {
		return errors.Wrap(err, "status: delete")
	}
	return nil
}
