package flagstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageFlag struct {
	ID        uint      `gorm:"primarykey"`
	Key       string    `gorm:"column:msg_key;uniqueIndex:idx_msg_key_flag;not null"`
	Flag      string    `gorm:"uniqueIndex:idx_msg_key_flag;not null"`
	CreatedAt time.Time `gorm:"index"`
}

// SQL-backed flag store, for deployments without redis which still need idempotency to survive restarts.
type GormFlagStore struct {
	DB *gorm.DB
}

var _ FlagStore = (*GormFlagStore)(nil)

func NewGormFlagStore(db *gorm.DB) (*GormFlagStore, error) {
	if err := db.AutoMigrate(&MessageFlag{}); err != nil {
		return nil, fmt.Errorf("migrating flag table: %w", err)
	}
	return &GormFlagStore{DB: db}, nil
}

func (s *GormFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	var out []string
	if err := s.DB.WithContext(ctx).Model(&MessageFlag{}).Where("msg_key = ?", key).Order("flag").Pluck("flag", &out).Error; err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *GormFlagStore) Add(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	rows := make([]MessageFlag, 0, len(flags))
	for _, f := range flags {
		rows = append(rows, MessageFlag{Key: key, Flag: f})
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *GormFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Where("msg_key = ? AND flag IN ?", key, flags).Delete(&MessageFlag{}).Error
}

func (s *GormFlagStore) Claim(ctx context.Context, key, flag string) (bool, error) {
	row := MessageFlag{Key: key, Flag: flag}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormFlagStore) Purge(ctx context.Context, before time.Time) (int, error) {
	res := s.DB.WithContext(ctx).Where("created_at < ?", before).Delete(&MessageFlag{})
	return int(res.RowsAffected), res.Error
}
