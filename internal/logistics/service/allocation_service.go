package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationService 项目物料分配台账
type AllocationService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	notify *notifier
}

func NewAllocationService(repos *repository.Repositories, db *gorm.DB, notify *notifier) *AllocationService {
	return &AllocationService{repos: repos, db: db, notify: notify}
}

// AllocationInput 分配条目。QuantityUsed 仅为兼容旧客户端，创建时忽略。
type AllocationInput struct {
	MaterialID       string `json:"material_id" binding:"required"`
	AssignedQuantity int    `json:"assigned_quantity"`
	QuantityUsed     int    `json:"quantity_used"`
}

type CreateProjectWithMaterialsReq struct {
	Project   CreateProjectReq  `json:"project" binding:"required"`
	Materials []AllocationInput `json:"materials"`
}

// CreateProjectWithMaterials 创建项目并登记物料分配，已用数量一律从 0 开始
func (s *AllocationService) CreateProjectWithMaterials(ctx context.Context, req CreateProjectWithMaterialsReq, operatorID string) (*entity.Project, error) {
	var project *entity.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)

		p, err := createProject(ctx, repos, req.Project)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(req.Materials))
		for _, in := range req.Materials {
			materialID := strings.TrimSpace(in.MaterialID)
			if seen[materialID] {
				return validationf("物料 %s 重复分配", materialID)
			}
			seen[materialID] = true

			if in.AssignedQuantity < 0 {
				return validationf("物料 %s 分配数量不能为负数", materialID)
			}
			exists, err := repos.Material.Exists(ctx, materialID)
			if err != nil {
				return fmt.Errorf("check material: %w", err)
			}
			if !exists {
				return notFoundf("物料 %s 不存在", materialID)
			}

			pm := &entity.ProjectMaterial{
				ID:               uuid.New().String()[:32],
				ProjectID:        p.ID,
				MaterialID:       materialID,
				AssignedQuantity: in.AssignedQuantity,
				QuantityUsed:     0,
			}
			if err := repos.Allocation.Create(ctx, pm); err != nil {
				return fmt.Errorf("create project material: %w", err)
			}
		}

		if err := repos.ActivityLog.LogActivity(ctx, "project", p.ID, "create", "", "",
			fmt.Sprintf("创建项目 %s，分配物料 %d 项", p.Code, len(req.Materials)), operatorID, nil); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}

		materials, err := repos.Allocation.FindByProject(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("load project materials: %w", err)
		}
		p.Materials = materials
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// UseMaterialResult 用料上报结果
type UseMaterialResult struct {
	Allocation *entity.ProjectMaterial `json:"allocation"`
	Request    *entity.MaterialRequest `json:"request"`
}

// UseMaterial 上报用料：递增已用数量并生成同数量的物料申请。
// 递增使用条件更新，并发上报也不会超过分配上限。
func (s *AllocationService) UseMaterial(ctx context.Context, projectID, materialID string, amount int, operatorID string) (*UseMaterialResult, error) {
	if amount < 0 {
		return nil, validationf("用量不能为负数")
	}
	if amount == 0 {
		return nil, validationf("用量必须大于0")
	}

	result := &UseMaterialResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)

		pm, err := repos.Allocation.FindByPair(ctx, projectID, materialID)
		if err != nil {
			return lookupErr(err, "项目 %s 未分配物料 %s", projectID, materialID)
		}

		ok, err := repos.Allocation.IncrementUsed(ctx, pm.ID, amount)
		if err != nil {
			return fmt.Errorf("increment quantity used: %w", err)
		}
		if !ok {
			return validationf("用量超出分配数量：已用 %d + 本次 %d > 分配 %d", pm.QuantityUsed, amount, pm.AssignedQuantity)
		}

		req := newMaterialRequest(projectID, materialID, amount, operatorID)
		if err := repos.Request.Create(ctx, req); err != nil {
			return fmt.Errorf("create material request: %w", err)
		}

		if err := repos.ActivityLog.LogActivity(ctx, "project_material", pm.ID, "use", "", "",
			fmt.Sprintf("上报用量 %d", amount), operatorID,
			map[string]interface{}{"request_id": req.ID, "amount": amount}); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}

		updated, err := repos.Allocation.FindByID(ctx, pm.ID)
		if err != nil {
			return fmt.Errorf("reload project material: %w", err)
		}
		result.Allocation = updated
		result.Request = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	materialUsed.Add(float64(amount))
	requestsCreated.WithLabelValues("usage").Inc()
	s.notify.request(result.Request.ID, projectID, result.Request.Status, "create")
	return result, nil
}
