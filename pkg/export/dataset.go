// Package export 将课表导出为 CSV、PDF 与 XLSX
package export

import (
	"fmt"
	"strings"

	"github.com/paiban/kebiao/pkg/model"
)

// Dataset 表格形式的导出内容
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// 导出列
var timetableHeaders = []string{"Year", "Branch", "Day", "Time", "Course", "Type", "Teacher", "Room"}

// FromEntries 按展示顺序生成课表数据集，输入不会被修改
func FromEntries(entries []*model.Entry, o model.Ordering) Dataset {
	sorted := append([]*model.Entry(nil), entries...)
	model.SortEntries(sorted, o)

	ds := Dataset{Headers: timetableHeaders, Rows: make([]map[string]string, 0, len(sorted))}
	for _, e := range sorted {
		ds.Rows = append(ds.Rows, map[string]string{
			"Year":    model.YearLabel(e.Year),
			"Branch":  e.Branch,
			"Day":     e.Day,
			"Time":    e.Slot.String(),
			"Course":  e.Course,
			"Type":    string(e.Type),
			"Teacher": e.Teacher,
			"Room":    e.Room,
		})
	}
	return ds
}

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat 解析导出格式
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("不支持的导出格式: %q", s)
	}
}

// ContentType 返回 HTTP 内容类型
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Render 按格式渲染课表
func Render(f Format, data Dataset, title string) ([]byte, error) {
	switch f {
	case FormatPDF:
		return NewPDFExporter().Render(data, title)
	case FormatXLSX:
		return NewXLSXExporter().Render(data, title)
	default:
		return NewCSVExporter().Render(data)
	}
}
