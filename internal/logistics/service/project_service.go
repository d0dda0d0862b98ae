package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectService 项目目录
type ProjectService struct {
	repos *repository.Repositories
	db    *gorm.DB
}

func NewProjectService(repos *repository.Repositories, db *gorm.DB) *ProjectService {
	return &ProjectService{repos: repos, db: db}
}

type CreateProjectReq struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

func (s *ProjectService) Create(ctx context.Context, req CreateProjectReq) (*entity.Project, error) {
	return createProject(ctx, s.repos, req)
}

// CreateBatch 批量创建项目，任一失败整体回滚
func (s *ProjectService) CreateBatch(ctx context.Context, reqs []CreateProjectReq) ([]entity.Project, error) {
	if len(reqs) == 0 {
		return nil, validationf("项目列表不能为空")
	}
	projects := make([]entity.Project, 0, len(reqs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		for i, req := range reqs {
			p, err := createProject(ctx, repos, req)
			if err != nil {
				return fmt.Errorf("第 %d 个项目: %w", i+1, err)
			}
			projects = append(projects, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func createProject(ctx context.Context, repos *repository.Repositories, req CreateProjectReq) (*entity.Project, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, validationf("项目编码不能为空")
	}
	if _, err := repos.Project.FindByCode(ctx, code); err == nil {
		return nil, validationf("项目编码 %s 已存在", code)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check project code: %w", err)
	}

	p := &entity.Project{
		ID:      uuid.New().String()[:32],
		Code:    code,
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
	}
	if err := repos.Project.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	p, err := s.repos.Project.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "项目 %s 不存在", id)
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, page, pageSize int) ([]entity.Project, int64, error) {
	items, total, err := s.repos.Project.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return items, total, nil
}

// ListWithMaterials 全部项目及物料分配
func (s *ProjectService) ListWithMaterials(ctx context.Context) ([]entity.Project, error) {
	items, err := s.repos.Project.FindAllWithMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects with materials: %w", err)
	}
	return items, nil
}

// Materials 项目的物料分配台账
func (s *ProjectService) Materials(ctx context.Context, projectID string) ([]entity.ProjectMaterial, error) {
	exists, err := s.repos.Project.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return nil, notFoundf("项目 %s 不存在", projectID)
	}
	items, err := s.repos.Allocation.FindByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project materials: %w", err)
	}
	return items, nil
}
