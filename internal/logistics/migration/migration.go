package migration

import (
	"fmt"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrations 按顺序排列的版本化迁移，ID 一经发布不可修改
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202610190001_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(entity.AllModels()...)
			},
			Rollback: func(tx *gorm.DB) error {
				models := entity.AllModels()
				for i := len(models) - 1; i >= 0; i-- {
					if err := tx.Migrator().DropTable(models[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID: "202610190002_request_status_index",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasIndex(&entity.DeliveryAssignment{}, "idx_assignment_request_status") {
					return nil
				}
				return tx.Exec("CREATE INDEX idx_assignment_request_status ON delivery_assignments (material_request_id, status)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropIndex(&entity.DeliveryAssignment{}, "idx_assignment_request_status")
			},
		},
	}
}

func newMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	return gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
}

// Run 执行所有未应用的迁移
func Run(db *gorm.DB) error {
	if err := newMigrator(db).Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// RollbackLast 回滚最近一次迁移
func RollbackLast(db *gorm.DB) error {
	if err := newMigrator(db).RollbackLast(); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}
