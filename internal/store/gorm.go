package store

import (
	"context"
	"errors"

	"github.com/emrgen/manual/internal/model"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) SaveManual(ctx context.Context, manual *model.Manual) error {
	return model.SaveManual(g.db.WithContext(ctx), manual)
}

func (g *GormStore) GetManual(ctx context.Context, id uint64) (*model.Manual, error) {
	manual, err := model.GetManual(g.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrManualNotFound
	}

	return manual, err
}

func (g *GormStore) ListManuals(ctx context.Context, groupCode string) ([]*model.Manual, error) {
	var manuals []*model.Manual
	query := g.db.WithContext(ctx)
	if groupCode != "" {
		query = query.Where("group_code = ?", groupCode)
	}

	err := query.Order("level asc").Order("sort asc").Order("id asc").Find(&manuals).Error
	return manuals, err
}

func (g *GormStore) ListManualsByIDs(ctx context.Context, ids []uint64) ([]*model.Manual, error) {
	return model.ListManualsByIDs(g.db.WithContext(ctx), ids)
}

func (g *GormStore) DeleteManuals(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	return g.db.WithContext(ctx).Where("id in (?)", ids).Delete(&model.Manual{}).Error
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
