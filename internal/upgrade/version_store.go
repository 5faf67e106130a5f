package upgrade

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const versionKey = "version"

// VersionStore 持久化当前 schema 版本（savepoint）
type VersionStore interface {
	Current(ctx context.Context) (int64, error)
	Save(ctx context.Context, version int64) error
}

// PluginVersionStore 将版本号保存在 config_plugins 表中
type PluginVersionStore struct {
	DB        *gorm.DB
	Component string
}

func NewPluginVersionStore(db *gorm.DB, component string) *PluginVersionStore {
	return &PluginVersionStore{DB: db, Component: component}
}

// Ensure 创建 config_plugins 表（宿主表，首次部署时可能不存在）
func (s *PluginVersionStore) Ensure(ctx context.Context) error {
	return pkgerrors.Wrap(s.DB.WithContext(ctx).AutoMigrate(&model.PluginConfig{}), "ensure config_plugins")
}

func (s *PluginVersionStore) Current(ctx context.Context) (int64, error) {
	return s.current(s.DB.WithContext(ctx))
}

func (s *PluginVersionStore) current(db *gorm.DB) (int64, error) {
	var row model.PluginConfig
	err := db.Where("plugin = ? AND name = ?", s.Component, versionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(err, "read plugin version")
	}
	v, err := strconv.ParseInt(row.Value, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "parse plugin version %q", row.Value)
	}
	return v, nil
}

// Save 只会提升版本号，较小或相同的版本被忽略
func (s *PluginVersionStore) Save(ctx context.Context, version int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.current(tx)
		if err != nil {
			return err
		}
		if version <= current {
			return nil
		}
		row := model.PluginConfig{
			Plugin: s.Component,
			Name:   versionKey,
			Value:  strconv.FormatInt(version, 10),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plugin"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&row).Error
		return pkgerrors.Wrapf(err, "save plugin version %d", version)
	})
}
