package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
)

// MaterialService 物料目录
type MaterialService struct {
	repo *repository.MaterialRepository
}

func NewMaterialService(repos *repository.Repositories) *MaterialService {
	return &MaterialService{repo: repos.Material}
}

type CreateMaterialReq struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Unit     string `json:"unit"`
	Quantity int    `json:"quantity"`
}

func (s *MaterialService) Create(ctx context.Context, req CreateMaterialReq) (*entity.Material, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, validationf("物料编码不能为空")
	}
	if req.Quantity < 0 {
		return nil, validationf("物料数量不能为负数")
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check material: %w", err)
	}
	if exists {
		return nil, validationf("物料 %s 已存在", id)
	}

	m := &entity.Material{
		ID:       id,
		Name:     strings.TrimSpace(req.Name),
		Unit:     strings.TrimSpace(req.Unit),
		Quantity: req.Quantity,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	return m, nil
}

type UpdateMaterialReq struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	Quantity *int    `json:"quantity"`
}

func (s *MaterialService) Update(ctx context.Context, id string, req UpdateMaterialReq) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "物料 %s 不存在", id)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		m.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, validationf("物料数量不能为负数")
		}
		m.Quantity = *req.Quantity
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	return m, nil
}

func (s *MaterialService) Get(ctx context.Context, id string) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "物料 %s 不存在", id)
	}
	return m, nil
}

func (s *MaterialService) List(ctx context.Context, keyword string, page, pageSize int) ([]entity.Material, int64, error) {
	items, total, err := s.repo.FindAll(ctx, keyword, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}
	return items, total, nil
}
