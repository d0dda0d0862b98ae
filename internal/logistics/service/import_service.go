package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 导入类型
const (
	ImportMaterials   = "materials"
	ImportProjects    = "projects"
	ImportAllocations = "allocations"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ImportResult 导入结果
type ImportResult struct {
	Kind        string   `json:"kind"`
	Total       int      `json:"total"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors"`
	ArchivePath string   `json:"archive_path,omitempty"`
}

func (r *ImportResult) skip(row int, format string, args ...interface{}) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("第%d行: %s", row, fmt.Sprintf(format, args...)))
}

// ImportService Excel 批量导入。逐行写入，单行失败记录后跳过。
type ImportService struct {
	repos   *repository.Repositories
	db      *gorm.DB
	archive Archiver
	logger  *zap.Logger
}

func NewImportService(repos *repository.Repositories, db *gorm.DB, archive Archiver, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{repos: repos, db: db, archive: archive, logger: logger}
}

// Import 解析上传的工作簿并导入，配置了对象存储时归档原文件
func (s *ImportService) Import(ctx context.Context, kind, filename string, data []byte) (*ImportResult, error) {
	if !validImportKind(kind) {
		return nil, validationf("不支持的导入类型: %s", kind)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, validationf("无法解析Excel文件: %v", err)
	}
	defer f.Close()

	result, err := s.ImportWorkbook(ctx, kind, f)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		path, err := s.archive.Put(ctx, kind, filename, bytes.NewReader(data), int64(len(data)), xlsxContentType)
		if err != nil {
			s.logger.Warn("Failed to archive import file", zap.String("kind", kind), zap.String("file", filename), zap.Error(err))
		} else {
			result.ArchivePath = path
		}
	}
	return result, nil
}

// ImportWorkbook 导入第一个工作表，首行为表头
func (s *ImportService) ImportWorkbook(ctx context.Context, kind string, f *excelize.File) (*ImportResult, error) {
	if !validImportKind(kind) {
		return nil, validationf("不支持的导入类型: %s", kind)
	}
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, validationf("读取工作表失败: %v", err)
	}

	result := &ImportResult{Kind: kind, Errors: []string{}}
	for i, row := range rows {
		if i == 0 || blankRow(row) {
			continue
		}
		rowNum := i + 1
		result.Total++

		var err error
		switch kind {
		case ImportMaterials:
			err = s.importMaterial(ctx, row, result)
		case ImportProjects:
			err = s.importProject(ctx, row, result)
		case ImportAllocations:
			err = s.importAllocation(ctx, row, result)
		}
		if err != nil {
			var svcErr *Error
			if !errors.As(err, &svcErr) {
				return nil, fmt.Errorf("import %s row %d: %w", kind, rowNum, err)
			}
			result.skip(rowNum, "%s", svcErr.Error())
		}
	}

	importedRows.WithLabelValues(kind, "created").Add(float64(result.Created))
	importedRows.WithLabelValues(kind, "updated").Add(float64(result.Updated))
	importedRows.WithLabelValues(kind, "skipped").Add(float64(result.Skipped))
	return result, nil
}

// 物料: 第0列序号(忽略) | 编码 | 名称 | 单位 | 数量
func (s *ImportService) importMaterial(ctx context.Context, row []string, result *ImportResult) error {
	id := cell(row, 1)
	if id == "" {
		return validationf("物料编码为空")
	}
	quantity, err := parseQuantity(cell(row, 4))
	if err != nil {
		return err
	}

	m, err := s.repos.Material.FindByID(ctx, id)
	switch {
	case err == nil:
		if name := cell(row, 2); name != "" {
			m.Name = name
		}
		m.Unit = cell(row, 3)
		m.Quantity = quantity
		if err := s.repos.Material.Update(ctx, m); err != nil {
			return err
		}
		result.Updated++
	case errors.Is(err, repository.ErrNotFound):
		name := cell(row, 2)
		if name == "" {
			return validationf("物料 %s 名称为空", id)
		}
		if err := s.repos.Material.Create(ctx, &entity.Material{ID: id, Name: name, Unit: cell(row, 3), Quantity: quantity}); err != nil {
			return err
		}
		result.Created++
	default:
		return err
	}
	return nil
}

// 项目: 编码 | 名称 | 地址
func (s *ImportService) importProject(ctx context.Context, row []string, result *ImportResult) error {
	code := cell(row, 0)
	if code == "" {
		return validationf("项目编码为空")
	}

	p, err := s.repos.Project.FindByCode(ctx, code)
	switch {
	case err == nil:
		if name := cell(row, 1); name != "" {
			p.Name = name
		}
		if addr := cell(row, 2); addr != "" {
			p.Address = addr
		}
		if err := s.repos.Project.Update(ctx, p); err != nil {
			return err
		}
		result.Updated++
	case errors.Is(err, repository.ErrNotFound):
		if cell(row, 1) == "" {
			return validationf("项目 %s 名称为空", code)
		}
		if _, err := createProject(ctx, s.repos, CreateProjectReq{Code: code, Name: cell(row, 1), Address: cell(row, 2)}); err != nil {
			return err
		}
		result.Created++
	default:
		return err
	}
	return nil
}

// 项目物料: 项目编码 | 物料编码 | 分配数量
func (s *ImportService) importAllocation(ctx context.Context, row []string, result *ImportResult) error {
	code, materialID := cell(row, 0), cell(row, 1)
	quantity, err := parseQuantity(cell(row, 2))
	if err != nil {
		return err
	}

	p, err := s.repos.Project.FindByCode(ctx, code)
	if err != nil {
		return lookupErr(err, "项目 %s 不存在", code)
	}
	exists, err := s.repos.Material.Exists(ctx, materialID)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundf("物料 %s 不存在", materialID)
	}

	pm, err := s.repos.Allocation.FindByPair(ctx, p.ID, materialID)
	switch {
	case err == nil:
		ok, err := s.repos.Allocation.SetAssigned(ctx, pm.ID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			return validationf("分配数量 %d 低于已用数量 %d", quantity, pm.QuantityUsed)
		}
		result.Updated++
	case errors.Is(err, repository.ErrNotFound):
		err := s.repos.Allocation.Create(ctx, &entity.ProjectMaterial{
			ID:               uuid.New().String()[:32],
			ProjectID:        p.ID,
			MaterialID:       materialID,
			AssignedQuantity: quantity,
		})
		if err != nil {
			return err
		}
		result.Created++
	default:
		return err
	}
	return nil
}

func validImportKind(kind string) bool {
	return kind == ImportMaterials || kind == ImportProjects || kind == ImportAllocations
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseQuantity 数量列可能带小数格式（如 "12.0"），必须为非负整数
func parseQuantity(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, validationf("数量格式错误: %s", v)
	}
	if f < 0 {
		return 0, validationf("数量不能为负数: %s", v)
	}
	// 数量列为 32 位整数
	if math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0, validationf("数量超出范围: %s", v)
	}
	return int(f), nil
}
