package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
)

// ActivityService 操作日志查询
type ActivityService struct {
	repo *repository.ActivityLogRepository
}

func NewActivityService(repo *repository.ActivityLogRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

func (s *ActivityService) List(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	items, total, err := s.repo.FindByEntity(ctx, entityType, entityID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	return items, total, nil
}
