package repstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Reputation struct {
	ChatID    int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	Score     int   `gorm:"not null;default:0;index"`
	UpdatedAt time.Time
}

type GormRepStore struct {
	DB *gorm.DB
}

var _ RepStore = (*GormRepStore)(nil)

func NewGormRepStore(db *gorm.DB) (*GormRepStore, error) {
	if err := db.AutoMigrate(&Reputation{}); err != nil {
		return nil, fmt.Errorf("migrating reputation table: %w", err)
	}
	return &GormRepStore{DB: db}, nil
}

func (s *GormRepStore) Increment(ctx context.Context, chatID, userID int64, delta int) (int, error) {
	var total int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := Reputation{ChatID: chatID, UserID: userID, Score: delta}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score":      gorm.Expr("reputations.score + ?", delta),
				"updated_at": time.Now(),
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var cur Reputation
		if err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).Take(&cur).Error; err != nil {
			return err
		}
		total = cur.Score
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incrementing reputation: %w", err)
	}
	return total, nil
}

func (s *GormRepStore) Get(ctx context.Context, chatID, userID int64) (int, error) {
	var cur Reputation
	err := s.DB.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Take(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return cur.Score, nil
}

func (s *GormRepStore) Top(ctx context.Context, chatID int64, limit int) ([]Score, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var rows []Reputation
	err := s.DB.WithContext(ctx).Where("chat_id = ?", chatID).Order("score DESC").Order("user_id ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Score, 0, len(rows))
	for _, r := range rows {
		out = append(out, Score{UserID: r.UserID, Score: r.Score})
	}
	return out, nil
}
