package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssignmentService 配送分配流程
type AssignmentService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	notify *notifier
	logger *zap.Logger
}

func NewAssignmentService(repos *repository.Repositories, db *gorm.DB, notify *notifier, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repos: repos, db: db, notify: notify, logger: logger}
}

// AssignDriver 为申请追加一个司机配送分配。
// 申请行在事务内加锁后再汇总已有分配，同一申请的并发分配串行执行。
func (s *AssignmentService) AssignDriver(ctx context.Context, requestID, driverID string, quantity int, deliveryDate time.Time, operatorID string) (*entity.DeliveryAssignment, error) {
	if quantity <= 0 {
		return nil, validationf("分配数量必须大于0")
	}
	if deliveryDate.IsZero() {
		return nil, validationf("配送日期不能为空")
	}

	var (
		assignment *entity.DeliveryAssignment
		request    *entity.MaterialRequest
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)

		mr, err := repos.Request.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return lookupErr(err, "物料申请 %s 不存在", requestID)
		}
		driver, err := repos.User.FindByID(ctx, driverID)
		if err != nil {
			return lookupErr(err, "司机 %s 不存在", driverID)
		}
		if !driver.IsDriver() {
			return validationf("用户 %s 不是司机", driver.Name)
		}
		if mr.Status == entity.StatusSent {
			return validationf("物料申请 %s 已送达，不能再分配", requestID)
		}

		sum, err := repos.Assignment.SumAssigned(ctx, requestID)
		if err != nil {
			return fmt.Errorf("sum assignments: %w", err)
		}
		if sum+quantity > mr.RequestedQuantity {
			return validationf("分配数量超出申请数量：已分配 %d + 本次 %d > 申请 %d", sum, quantity, mr.RequestedQuantity)
		}

		next := entity.DeriveRequestStatus(sum+quantity, mr.RequestedQuantity)
		if !entity.CanTransition(entity.ValidRequestTransitions, mr.Status, next) {
			return validationf("不允许从 %s 流转到 %s", mr.Status, next)
		}

		a := &entity.DeliveryAssignment{
			ID:                uuid.New().String()[:32],
			MaterialRequestID: requestID,
			DriverID:          driverID,
			AssignedQuantity:  quantity,
			DeliveryDate:      deliveryDate,
			Status:            entity.StatusPending,
			AssignedBy:        operatorID,
		}
		if err := repos.Assignment.Create(ctx, a); err != nil {
			return fmt.Errorf("create delivery assignment: %w", err)
		}

		from := mr.Status
		date := deliveryDate
		mr.AssignedQuantity = sum + quantity
		mr.Status = next
		mr.DriverID = &driverID
		mr.DeliveryDate = &date
		if err := repos.Request.Update(ctx, mr); err != nil {
			return fmt.Errorf("update material request: %w", err)
		}

		if err := repos.ActivityLog.LogActivity(ctx, "material_request", mr.ID, "assign", from, mr.Status,
			fmt.Sprintf("分配司机 %s 数量 %d", driver.Name, quantity), operatorID,
			map[string]interface{}{"assignment_id": a.ID, "driver_id": driverID, "quantity": quantity}); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}

		assignment = a
		request = mr
		return nil
	})
	if err != nil {
		return nil, err
	}

	assignmentsCreated.Inc()
	s.notify.assignment(assignment.ID, requestID, driverID, assignment.Status, "create")
	s.notify.request(request.ID, request.ProjectID, request.Status, "assign")
	return assignment, nil
}

// UpdateStatus 司机更新配送状态。重复设置当前状态不做任何修改。
func (s *AssignmentService) UpdateStatus(ctx context.Context, assignmentID, newStatus, operatorID string) (*entity.DeliveryAssignment, error) {
	status, ok := entity.ParseStatus(newStatus)
	if !ok {
		return nil, validationf("未知状态: %s", newStatus)
	}

	var (
		assignment *entity.DeliveryAssignment
		changed    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)

		a, err := repos.Assignment.FindByIDForUpdate(ctx, assignmentID)
		if err != nil {
			return lookupErr(err, "配送分配 %s 不存在", assignmentID)
		}
		assignment = a
		if a.Status == status {
			return nil
		}
		if !entity.CanTransition(entity.ValidAssignmentTransitions, a.Status, status) {
			return validationf("不允许从 %s 流转到 %s", a.Status, status)
		}

		from := a.Status
		a.Status = status
		if err := repos.Assignment.Update(ctx, a); err != nil {
			return fmt.Errorf("update delivery assignment: %w", err)
		}

		if status == entity.StatusSent {
			history := &entity.DeliveryHistory{
				ID:                uuid.New().String()[:32],
				AssignmentID:      a.ID,
				MaterialRequestID: a.MaterialRequestID,
				DriverID:          a.DriverID,
				DeliveredQuantity: a.AssignedQuantity,
				DeliveredAt:       time.Now(),
			}
			if err := repos.Assignment.CreateHistory(ctx, history); err != nil {
				return fmt.Errorf("create delivery history: %w", err)
			}
		}

		if err := repos.ActivityLog.LogActivity(ctx, "delivery_assignment", a.ID, "status_change", from, status,
			fmt.Sprintf("配送状态变更: %s → %s", from, status), operatorID, nil); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		assignmentTransitions.WithLabelValues(status).Inc()
		s.notify.assignment(assignment.ID, assignment.MaterialRequestID, assignment.DriverID, assignment.Status, "status_change")
		s.logger.Info("Delivery assignment status changed",
			zap.String("assignment_id", assignment.ID),
			zap.String("status", assignment.Status),
		)
	}
	return assignment, nil
}

func (s *AssignmentService) Get(ctx context.Context, id string) (*entity.DeliveryAssignment, error) {
	a, err := s.repos.Assignment.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "配送分配 %s 不存在", id)
	}
	return a, nil
}

// ByRequest 申请下的全部分配
func (s *AssignmentService) ByRequest(ctx context.Context, requestID string) ([]entity.DeliveryAssignment, error) {
	if _, err := s.repos.Request.FindByID(ctx, requestID); err != nil {
		return nil, lookupErr(err, "物料申请 %s 不存在", requestID)
	}
	items, err := s.repos.Assignment.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// ByDriver 司机的全部分配
func (s *AssignmentService) ByDriver(ctx context.Context, driverID string) ([]entity.DeliveryAssignment, error) {
	items, err := s.repos.Assignment.FindByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("list driver assignments: %w", err)
	}
	return items, nil
}

// HistoryByDriver 司机的配送完成记录
func (s *AssignmentService) HistoryByDriver(ctx context.Context, driverID string) ([]entity.DeliveryHistory, error) {
	items, err := s.repos.Assignment.FindHistoryByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("list delivery history: %w", err)
	}
	return items, nil
}
