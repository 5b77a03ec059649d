// Package export 把福利报告导出为 Excel 工作簿
package export

import (
	"bytes"
	"fmt"
	"strings"

	"soori-welfare/internal/models"

	"github.com/xuri/excelize/v2"
)

// 工作表名称
const (
	SheetSummary  = "Dual-Axis"
	SheetServices = "추천 서비스"
	SheetRepairs  = "수리 이력"
)

var (
	summaryHeader  = []string{"구분", "항목", "값"}
	servicesHeader = []string{"분류", "서비스", "추천 사유", "링크"}
	repairsHeader  = []string{"수리일", "유형", "수리처", "부위", "증상", "조치", "금액"}
)

// ReportWorkbook 导出需要的数据
type ReportWorkbook struct {
	Report  *models.WelfareReport
	Metrics models.DualAxisMetrics
	Repairs []models.Repair
	// SelfCheck 最近一次自我点检，可为 nil
	SelfCheck *models.SelfCheck
}

// GenerateReportWorkbook 生成报告 Excel 文件
func GenerateReportWorkbook(data ReportWorkbook) ([]byte, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1 后 Dual-Axis 是第一个工作表
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, SheetSummary, summaryHeader, summaryRows(data.Report, data.Metrics, data.SelfCheck), headerStyle, []float64{14, 18, 60}); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SheetServices); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeSheet(f, SheetServices, servicesHeader, serviceRows(data.Report.Services), headerStyle, []float64{10, 28, 60, 40}); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SheetRepairs); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeSheet(f, SheetRepairs, repairsHeader, repairRows(data.Repairs), headerStyle, []float64{18, 10, 20, 24, 30, 30, 12}); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// writeSheet 写表头、数据行并冻结首行
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int, widths []float64) error {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func summaryRows(report *models.WelfareReport, m models.DualAxisMetrics, check *models.SelfCheck) [][]interface{} {
	u := m.UserMobility
	d := m.DeviceCondition
	rows := [][]interface{}{
		{"리포트", "사용자", report.UserID},
		{"리포트", "생성일", report.CreatedAt.Format("2006-01-02 15:04")},
		{"리포트", "지원 지역", report.Metadata.SupportedDistrict},
		{"리포트", "요약", report.Summary},
		{"리포트", "위험 요인", report.Risk},
		{"이동성", "상태", u.StatusLabel},
		{"이동성", "주간 이동거리(km)", u.WeeklyKm},
		{"이동성", "전주 대비(km)", u.WeeklyKmDelta},
		{"이동성", "추세", report.TrendDisplay()},
		{"이동성", "근거", u.Evidence},
		{"기기 상태", "등급", fmt.Sprintf("%s (%s)", d.Grade, d.GradeLabel)},
		{"기기 상태", "사용 강도", string(d.UsageIntensity)},
		{"기기 상태", "최근 수리", d.RecentRepairs},
		{"기기 상태", "최근 자가점검", d.RecentSelfChecks},
		{"기기 상태", "마지막 점검 후 경과일", d.DaysSinceLastCheck},
		{"기기 상태", "근거", d.Evidence},
		{"기기 상태", "권장 사항", d.Recommendation},
	}
	if check == nil {
		return append(rows, []interface{}{"자가점검", "최근 점검", "기록 없음"})
	}
	flagged := "이상 없음"
	if items := check.FlaggedItems(); len(items) > 0 {
		flagged = strings.Join(items, ", ")
	}
	return append(rows,
		[]interface{}{"자가점검", "최근 점검", check.CreatedAt.Format("2006-01-02 15:04")},
		[]interface{}{"자가점검", "이상 항목", flagged},
	)
}

func serviceRows(services []models.ServiceRecommendation) [][]interface{} {
	rows := make([][]interface{}, 0, len(services))
	for _, s := range services {
		category := "이동 지원"
		if s.Category == models.ServiceCategoryWelfare {
			category = "복지"
		}
		rows = append(rows, []interface{}{category, s.Name, s.Reason, s.Link})
	}
	return rows
}

func repairRows(repairs []models.Repair) [][]interface{} {
	rows := make([][]interface{}, 0, len(repairs))
	for _, r := range repairs {
		repairType := "일반"
		if r.Type == "accident" {
			repairType = "사고"
		}
		rows = append(rows, []interface{}{
			r.RepairedAt.Format("2006-01-02 15:04"),
			repairType,
			r.ShopLabel,
			strings.Join(r.CategoryLabels(), ", "),
			r.Problem,
			r.Action,
			r.Price,
		})
	}
	return rows
}
