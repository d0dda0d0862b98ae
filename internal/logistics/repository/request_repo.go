package repository

import (
	"context"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"gorm.io/gorm"
)

// RequestRepository 物料申请仓库
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *entity.MaterialRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) Update(ctx context.Context, req *entity.MaterialRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// FindByIDForUpdate 事务内加行锁读取申请
func (r *RequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// FindByProject 项目全部申请，status 为空时不过滤
func (r *RequestRepository) FindByProject(ctx context.Context, projectID, status string) ([]entity.MaterialRequest, error) {
	var items []entity.MaterialRequest
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("request_date DESC, created_at DESC").Find(&items).Error
	return items, err
}

// FindByStatus 按状态查询全部申请
func (r *RequestRepository) FindByStatus(ctx context.Context, status string) ([]entity.MaterialRequest, error) {
	var items []entity.MaterialRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("request_date DESC, created_at DESC").
		Find(&items).Error
	return items, err
}

// CountByProjectAndStatus 统计项目某状态的申请数
func (r *RequestRepository) CountByProjectAndStatus(ctx context.Context, projectID, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.MaterialRequest{}).
		Where("project_id = ? AND status = ?", projectID, status).
		Count(&count).Error
	return count, err
}
