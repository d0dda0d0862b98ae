package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"gorm.io/gorm"
)

// AllocationRepository 项目物料分配仓库
type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) Create(ctx context.Context, pm *entity.ProjectMaterial) error {
	return r.db.WithContext(ctx).Omit("Material").Create(pm).Error
}

func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*entity.ProjectMaterial, error) {
	var pm entity.ProjectMaterial
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, translate(err)
	}
	return &pm, nil
}

// FindByPair 按 (项目, 物料) 查询分配
func (r *AllocationRepository) FindByPair(ctx context.Context, projectID, materialID string) (*entity.ProjectMaterial, error) {
	var pm entity.ProjectMaterial
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND material_id = ?", projectID, materialID).
		First(&pm).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pm, nil
}

// FindByProject 查询项目的全部分配（含物料信息）
func (r *AllocationRepository) FindByProject(ctx context.Context, projectID string) ([]entity.ProjectMaterial, error) {
	var items []entity.ProjectMaterial
	err := r.db.WithContext(ctx).
		Preload("Material").
		Where("project_id = ?", projectID).
		Order("material_id ASC").
		Find(&items).Error
	return items, err
}

// IncrementUsed 条件递增已用数量，超出分配上限时不更新并返回 false
func (r *AllocationRepository) IncrementUsed(ctx context.Context, id string, amount int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.ProjectMaterial{}).
		Where("id = ? AND quantity_used + ? <= assigned_quantity", id, amount).
		UpdateColumns(map[string]interface{}{
			"quantity_used": gorm.Expr("quantity_used + ?", amount),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetAssigned 调整分配数量，不允许低于已用数量
func (r *AllocationRepository) SetAssigned(ctx context.Context, id string, assigned int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.ProjectMaterial{}).
		Where("id = ? AND quantity_used <= ?", id, assigned).
		UpdateColumns(map[string]interface{}{
			"assigned_quantity": assigned,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
