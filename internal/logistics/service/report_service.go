package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// ReportService 项目用料汇总与导出
type ReportService struct {
	repos *repository.Repositories
}

func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{repos: repos}
}

// ProjectSummary 项目汇总
type ProjectSummary struct {
	Project         *entity.Project `json:"project"`
	MaterialCount   int             `json:"material_count"`
	AssignedTotal   int             `json:"assigned_total"`
	UsedTotal       int             `json:"used_total"`
	PendingRequests int64           `json:"pending_requests"`
	OpenAssignments int64           `json:"open_assignments"`
}

// Summary 并行读取分配、待处理申请和未完成配送
func (s *ReportService) Summary(ctx context.Context, projectID string) (*ProjectSummary, error) {
	project, err := s.repos.Project.FindByID(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "项目 %s 不存在", projectID)
	}

	summary := &ProjectSummary{Project: project}
	var allocations []entity.ProjectMaterial

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allocations, err = s.repos.Allocation.FindByProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		summary.PendingRequests, err = s.repos.Request.CountByProjectAndStatus(gctx, projectID, entity.StatusPending)
		return err
	})
	g.Go(func() error {
		var err error
		summary.OpenAssignments, err = s.repos.Assignment.CountOpenByProject(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load project summary: %w", err)
	}

	summary.MaterialCount = len(allocations)
	for _, pm := range allocations {
		summary.AssignedTotal += pm.AssignedQuantity
		summary.UsedTotal += pm.QuantityUsed
	}
	return summary, nil
}

var reportHeaders = []string{"物料编码", "物料名称", "单位", "分配数量", "已用数量", "剩余数量"}

// ExportAllocations 导出项目物料台账，返回工作簿和文件名
func (s *ReportService) ExportAllocations(ctx context.Context, projectID string) (*excelize.File, string, error) {
	project, err := s.repos.Project.FindByID(ctx, projectID)
	if err != nil {
		return nil, "", lookupErr(err, "项目 %s 不存在", projectID)
	}
	allocations, err := s.repos.Allocation.FindByProject(ctx, projectID)
	if err != nil {
		return nil, "", fmt.Errorf("list project materials: %w", err)
	}

	f := excelize.NewFile()
	sheet := "物料台账"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, "", err
	}

	header := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, "", err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(reportHeaders))
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(sheet, "A", "B", 20)

	for i, pm := range allocations {
		name, unit := "", ""
		if pm.Material != nil {
			name, unit = pm.Material.Name, pm.Material.Unit
		}
		cellName, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{pm.MaterialID, name, unit, pm.AssignedQuantity, pm.QuantityUsed, pm.Remaining()}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			f.Close()
			return nil, "", err
		}
	}

	return f, fmt.Sprintf("%s_materials.xlsx", project.Code), nil
}
