package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/Jmdec/ipponyari-sub001/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct{ DB *gorm.DB }

func NewCartRepository(db *gorm.DB) *CartRepository { return &CartRepository{DB: db} }

// Load returns the persisted lines for a cart key, or nil when the slot has
// never been written.
func (r *CartRepository) Load(key string) ([]entity.CartLine, error) {
	var rec entity.CartRecord
	if err := r.DB.First(&rec, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var lines []entity.CartLine
	if err := json.Unmarshal(rec.Data, &lines); err != nil {
		// a corrupt slot is recoverable: start the cart over
		return nil, nil
	}
	return lines, nil
}

func (r *CartRepository) Save(key string, lines []entity.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	rec := entity.CartRecord{Key: key, Data: data, UpdatedAt: time.Now()}
	return r.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

func (r *CartRepository) Delete(key string) error {
	return r.DB.Delete(&entity.CartRecord{}, "key = ?", key).Error
}
