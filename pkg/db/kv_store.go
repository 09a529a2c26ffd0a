package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/db/models"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// KVStore persists kv entries in the kv_entries table.
type KVStore struct {
	client *Client
	now    func() time.Time
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore returns a kv.Store over the client's connection.
func NewKVStore(client *Client) (*KVStore, error) {
	if client == nil || client.conn == nil {
		return nil, errors.New("db client is required")
	}
	return &KVStore{client: client, now: time.Now}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row models.KVEntry
	err := s.client.conn.WithContext(ctx).
		Where("entry_key = ?", key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Value), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	row := models.KVEntry{Key: key, Value: string(value), UpdatedAt: s.now().UTC()}
	return s.client.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	return s.client.conn.WithContext(ctx).
		Where("entry_key = ?", key).
		Delete(&models.KVEntry{}).Error
}

func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	var count int64
	err := s.client.conn.WithContext(ctx).
		Model(&models.KVEntry{}).
		Where("entry_key = ?", key).
		Count(&count).Error
	return count > 0, err
}

func (s *KVStore) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := s.client.conn.WithContext(ctx).
		Model(&models.KVEntry{}).
		Where("entry_key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("entry_key").
		Pluck("entry_key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
