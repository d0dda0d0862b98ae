package repository

import (
	"context"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"gorm.io/gorm"
)

// AssignmentRepository 配送分配仓库
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *entity.DeliveryAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AssignmentRepository) Update(ctx context.Context, a *entity.DeliveryAssignment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*entity.DeliveryAssignment, error) {
	var a entity.DeliveryAssignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindByIDForUpdate 事务内加行锁读取分配
func (r *AssignmentRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.DeliveryAssignment, error) {
	var a entity.DeliveryAssignment
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AssignmentRepository) FindByRequest(ctx context.Context, requestID string) ([]entity.DeliveryAssignment, error) {
	var items []entity.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("material_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *AssignmentRepository) FindByDriver(ctx context.Context, driverID string) ([]entity.DeliveryAssignment, error) {
	var items []entity.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("delivery_date ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

// SumAssigned 申请下全部分配数量之和
func (r *AssignmentRepository) SumAssigned(ctx context.Context, requestID string) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&entity.DeliveryAssignment{}).
		Select("COALESCE(SUM(assigned_quantity), 0)").
		Where("material_request_id = ?", requestID).
		Scan(&sum).Error
	return sum, err
}

// CountOpenByProject 统计项目下未送达的分配数
func (r *AssignmentRepository) CountOpenByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.DeliveryAssignment{}).
		Joins("JOIN material_requests ON material_requests.id = delivery_assignments.material_request_id").
		Where("material_requests.project_id = ? AND delivery_assignments.status <> ?", projectID, entity.StatusSent).
		Count(&count).Error
	return count, err
}

// CreateHistory 写入配送完成记录
func (r *AssignmentRepository) CreateHistory(ctx context.Context, h *entity.DeliveryHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// FindHistoryByDriver 司机的配送完成记录
func (r *AssignmentRepository) FindHistoryByDriver(ctx context.Context, driverID string) ([]entity.DeliveryHistory, error) {
	var items []entity.DeliveryHistory
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("delivered_at DESC").
		Find(&items).Error
	return items, err
}
