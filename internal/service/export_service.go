package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoItems      = errors.New("该周期暂无房间账单")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
type ExportService interface {
	// ExportCycleInvoices 导出抄表周期的房间账单为 Excel
	ExportCycleInvoices(ctx context.Context, cycleID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	utility UtilityService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(utility UtilityService, logger *zap.Logger) ExportService {
	return &exportService{utility: utility, logger: logger}
}

var cycleExportHeaders = []string{
	"宿舍楼", "房间", "在住学生",
	"电表旧读数", "电表新读数", "用电量",
	"水表旧读数", "水表新读数", "用水量",
	"金额", "状态",
}

// ═══════════════════════════════════════════════════════════
// ExportCycleInvoices
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "水电账单"
//   - 第 1 行标题，第 2 行表头，之后每个房间一行，最后一行合计
//   - 未录入的读数显示为 "-"

func (s *exportService) ExportCycleInvoices(ctx context.Context, cycleID string) (*bytes.Buffer, string, error) {
	cycle, err := s.utility.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, "", err
	}

	rows, err := s.utility.ListInvoices(ctx, cycleID, &dto.ListCycleInvoicesRequest{})
	if err != nil {
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", ErrExportNoItems
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "水电账单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 30)
	f.SetColWidth(sheetName, colName(3), colName(len(cycleExportHeaders)-1), 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	lastCol := colName(len(cycleExportHeaders) - 1)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%02d/%d 水电账单（%s）", cycle.Month, cycle.Year, cycle.Status))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", cell(lastCol, 1), headerStyle)

	// 表头
	row := 2
	for i, h := range cycleExportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)

	// 数据行
	var total int64
	for _, r := range rows {
		row++
		values := []interface{}{
			r.BuildingName,
			r.RoomNumber,
			strings.Join(r.StudentNames, "、"),
			readingValue(r.ElectricityOld),
			readingValue(r.ElectricityNew),
			usageValue(r.ElectricityOld, r.ElectricityNew),
			readingValue(r.WaterOld),
			readingValue(r.WaterNew),
			usageValue(r.WaterOld, r.WaterNew),
			r.Amount,
			r.Status,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		total += r.Amount
	}

	// 合计
	row++
	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell(colName(9), row), total)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("水电账单_%d%02d.xlsx", cycle.Year, cycle.Month)
	return buf, filename, nil
}

// ── 辅助函数 ──

func readingValue(v *int64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

func usageValue(oldV, newV *int64) interface{} {
	if oldV == nil || newV == nil {
		return "-"
	}
	return *newV - *oldV
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
