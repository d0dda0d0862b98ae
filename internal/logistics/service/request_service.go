package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestService 物料申请流程
type RequestService struct {
	repos       *repository.Repositories
	db          *gorm.DB
	assignments *AssignmentService
	notify      *notifier
}

func NewRequestService(repos *repository.Repositories, db *gorm.DB, assignments *AssignmentService, notify *notifier) *RequestService {
	return &RequestService{repos: repos, db: db, assignments: assignments, notify: notify}
}

func newMaterialRequest(projectID, materialID string, quantity int, operatorID string) *entity.MaterialRequest {
	return &entity.MaterialRequest{
		ID:                uuid.New().String()[:32],
		ProjectID:         projectID,
		MaterialID:        materialID,
		RequestedQuantity: quantity,
		RequestDate:       today(),
		Status:            entity.StatusPending,
		RequestedBy:       operatorID,
	}
}

// CreateRequest 发起物料申请
func (s *RequestService) CreateRequest(ctx context.Context, projectID, materialID string, quantity int, operatorID string) (*entity.MaterialRequest, error) {
	if quantity <= 0 {
		return nil, validationf("申请数量必须大于0")
	}

	exists, err := s.repos.Project.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return nil, notFoundf("项目 %s 不存在", projectID)
	}
	exists, err = s.repos.Material.Exists(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("check material: %w", err)
	}
	if !exists {
		return nil, notFoundf("物料 %s 不存在", materialID)
	}

	req := newMaterialRequest(projectID, materialID, quantity, operatorID)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		if err := repos.Request.Create(ctx, req); err != nil {
			return fmt.Errorf("create material request: %w", err)
		}
		return repos.ActivityLog.LogActivity(ctx, "material_request", req.ID, "create", "", req.Status,
			fmt.Sprintf("申请物料 %s 数量 %d", materialID, quantity), operatorID, nil)
	})
	if err != nil {
		return nil, err
	}

	requestsCreated.WithLabelValues("direct").Inc()
	s.notify.request(req.ID, projectID, req.Status, "create")
	return req, nil
}

type AssignRequestReq struct {
	DriverID     string    `json:"driver_id"`
	Quantity     int       `json:"quantity"`
	DeliveryDate time.Time `json:"delivery_date"`
}

// AssignRequest 单次分配入口。
//
// Deprecated: 旧接口保留兼容，内部转为累加式的 AssignmentService.AssignDriver，
// 不再覆盖申请上的已分配数量。
func (s *RequestService) AssignRequest(ctx context.Context, requestID string, req AssignRequestReq, operatorID string) (*entity.MaterialRequest, error) {
	mr, err := s.repos.Request.FindByID(ctx, requestID)
	if err != nil {
		return nil, lookupErr(err, "物料申请 %s 不存在", requestID)
	}
	if req.Quantity > mr.RequestedQuantity {
		return nil, validationf("分配数量 %d 超过申请数量 %d", req.Quantity, mr.RequestedQuantity)
	}

	if _, err := s.assignments.AssignDriver(ctx, requestID, req.DriverID, req.Quantity, req.DeliveryDate, operatorID); err != nil {
		return nil, err
	}
	return s.Get(ctx, requestID)
}

// MarkDelivered 申请送达：按申请的已分配数量递增项目已用数量，状态置为 SENT。
// 重复调用和超出分配上限都会被拒绝。
func (s *RequestService) MarkDelivered(ctx context.Context, requestID, operatorID string) (*entity.MaterialRequest, error) {
	var delivered *entity.MaterialRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)

		mr, err := repos.Request.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return lookupErr(err, "物料申请 %s 不存在", requestID)
		}
		if mr.Status == entity.StatusSent {
			return validationf("物料申请 %s 已送达", requestID)
		}
		if !entity.CanTransition(entity.ValidRequestTransitions, mr.Status, entity.StatusSent) {
			return validationf("不允许从 %s 流转到 %s", mr.Status, entity.StatusSent)
		}

		pm, err := repos.Allocation.FindByPair(ctx, mr.ProjectID, mr.MaterialID)
		if err != nil {
			return lookupErr(err, "项目 %s 未分配物料 %s", mr.ProjectID, mr.MaterialID)
		}
		ok, err := repos.Allocation.IncrementUsed(ctx, pm.ID, mr.AssignedQuantity)
		if err != nil {
			return fmt.Errorf("increment quantity used: %w", err)
		}
		if !ok {
			return validationf("送达数量超出分配数量：已用 %d + 送达 %d > 分配 %d", pm.QuantityUsed, mr.AssignedQuantity, pm.AssignedQuantity)
		}

		from := mr.Status
		mr.Status = entity.StatusSent
		if err := repos.Request.Update(ctx, mr); err != nil {
			return fmt.Errorf("update material request: %w", err)
		}
		if err := repos.ActivityLog.LogActivity(ctx, "material_request", mr.ID, "deliver", from, mr.Status,
			fmt.Sprintf("送达数量 %d", mr.AssignedQuantity), operatorID, nil); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}
		delivered = mr
		return nil
	})
	if err != nil {
		return nil, err
	}

	requestsDelivered.Inc()
	s.notify.request(delivered.ID, delivered.ProjectID, delivered.Status, "deliver")
	return delivered, nil
}

func (s *RequestService) Get(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	mr, err := s.repos.Request.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "物料申请 %s 不存在", id)
	}
	return mr, nil
}

// PendingByProject 项目待处理申请
func (s *RequestService) PendingByProject(ctx context.Context, projectID string) ([]entity.MaterialRequest, error) {
	items, err := s.repos.Request.FindByProject(ctx, projectID, entity.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return items, nil
}

// AllPending 全部待处理申请
func (s *RequestService) AllPending(ctx context.Context) ([]entity.MaterialRequest, error) {
	items, err := s.repos.Request.FindByStatus(ctx, entity.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return items, nil
}

// AllForProject 项目全部申请
func (s *RequestService) AllForProject(ctx context.Context, projectID string) ([]entity.MaterialRequest, error) {
	items, err := s.repos.Request.FindByProject(ctx, projectID, "")
	if err != nil {
		return nil, fmt.Errorf("list project requests: %w", err)
	}
	return items, nil
}
