package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter 输出 Excel 工作簿：一张总表，另按班级（年级 + 专业）分表
type XLSXExporter struct {
	// SplitBy 分表依据的列，为空时不分表
	SplitBy []string
}

// NewXLSXExporter 创建 XLSX 导出器
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{SplitBy: []string{"Year", "Branch"}}
}

const summarySheet = "Timetable"

// Render 生成 XLSX 字节
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx 至少需要一列")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("创建工作表: %w", err)
	}
	if err := writeSheet(f, summarySheet, data.Headers, data.Rows); err != nil {
		return nil, err
	}
	if title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
			return nil, fmt.Errorf("设置文档属性: %w", err)
		}
	}

	if len(e.SplitBy) > 0 {
		var order []string
		groups := make(map[string][]map[string]string)
		for _, row := range data.Rows {
			name := sheetName(row, e.SplitBy)
			if _, ok := groups[name]; !ok {
				order = append(order, name)
			}
			groups[name] = append(groups[name], row)
		}
		for _, name := range order {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("创建工作表 %s: %w", name, err)
			}
			if err := writeSheet(f, name, data.Headers, groups[name]); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成 xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows []map[string]string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("写入表头: %w", err)
		}
	}
	for r, row := range rows {
		for c, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, row[h]); err != nil {
				return fmt.Errorf("写入单元格 %s: %w", cell, err)
			}
		}
	}
	return nil
}

// sheetName 工作表名最长 31 个字符且不能含 : \ / ? * [ ]
func sheetName(row map[string]string, cols []string) string {
	name := ""
	for i, c := range cols {
		if i > 0 {
			name += " "
		}
		name += row[c]
	}
	clean := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '-'
		}
		clean = append(clean, r)
	}
	if len(clean) > 31 {
		clean = clean[:31]
	}
	if len(clean) == 0 || string(clean) == summarySheet {
		return "Other"
	}
	return string(clean)
}
