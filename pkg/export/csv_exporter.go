package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter 输出 CSV
type CSVExporter struct{}

// NewCSVExporter 创建 CSV 导出器
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render 生成 CSV 字节
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv 至少需要一列")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("写入 csv 表头: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("写入 csv 行: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("写入 csv: %w", err)
	}
	return buf.Bytes(), nil
}
