package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// maxTxRetries bounds the optimistic transaction retries of a mirror write.
const maxTxRetries = 5

// RedisMirror stores the Mirror as a single JSON array of bookings under
// one Redis key (the "local bookings" collection).  Writes read the whole
// array, modify it and write it back inside a WATCH/MULTI transaction, so
// a replacement is atomic with respect to other writers of the key.
type RedisMirror struct {
	rdb *redis.Client
	key string
}

// NewRedisMirror returns a mirror over the given key.
func NewRedisMirror(rdb *redis.Client, key string) *RedisMirror {
	return &RedisMirror{rdb: rdb, key: key}
}

func (m *RedisMirror) Get(ctx context.Context, id string) (*model.Booking, error) {
	bookings, err := readBookings(ctx, m.rdb, m.key)
	if err != nil {
		return nil, err
	}
	if b, ok := findIn(bookings, id); ok {
		return b, nil
	}
	return nil, ErrBookingNotFound
}

func (m *RedisMirror) List(ctx context.Context) ([]model.Booking, error) {
	return readBookings(ctx, m.rdb, m.key)
}

func (m *RedisMirror) Upsert(ctx context.Context, b model.Booking) error {
	if b.Key() == "" {
		return ErrInvalidRecord
	}
	_, err := m.update(ctx, func(cur []model.Booking) ([]model.Booking, int) {
		return replaceIn(cur, b), 1
	})
	return err
}

func (m *RedisMirror) RemoveByID(ctx context.Context, id string) (int, error) {
	return m.update(ctx, func(cur []model.Booking) ([]model.Booking, int) {
		next := removeFrom(cur, id)
		return next, len(cur) - len(next)
	})
}

func (m *RedisMirror) Clear(ctx context.Context) error {
	if err := m.rdb.Del(ctx, m.key).Err(); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	return nil
}

// update applies fn to the current collection under WATCH and writes the
// result back.  It returns the count reported by fn.
func (m *RedisMirror) update(ctx context.Context, fn func([]model.Booking) ([]model.Booking, int)) (int, error) {
	var n int
	txf := func(tx *redis.Tx) error {
		cur, err := readBookings(ctx, tx, m.key)
		if err != nil {
			return err
		}
		next, count := fn(cur)
		n = count
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode mirror: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, m.key, data, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxTxRetries; i++ {
		err := m.rdb.Watch(ctx, txf, m.key)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return 0, fmt.Errorf("write mirror: %w", err)
	}
	return 0, ErrConflict
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readBookings decodes the JSON array stored at key.  A missing key is an
// empty collection.
func readBookings(ctx context.Context, c getter, key string) ([]model.Booking, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	var out []model.Booking
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode mirror: %w", err)
	}
	if out == nil {
		out = []model.Booking{}
	}
	return out, nil
}

// RedisLedger reads the "local payments" collection: a JSON array of
// payments under one Redis key.  It never writes.
type RedisLedger struct {
	rdb *redis.Client
	key string
}

func NewRedisLedger(rdb *redis.Client, key string) *RedisLedger {
	return &RedisLedger{rdb: rdb, key: key}
}

func (l *RedisLedger) List(ctx context.Context) ([]model.Payment, error) {
	raw, err := l.rdb.Get(ctx, l.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Payment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var out []model.Payment
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	return out, nil
}

func (l *RedisLedger) FindMatching(ctx context.Context, id string) ([]model.Payment, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	return matchingPayments(all, id), nil
}
