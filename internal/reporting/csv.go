package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// UTF8BOM — маркер порядка байт, с которым Excel корректно открывает UTF-8.
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

// RenderCSV детерминированно сериализует колонки и строки в CSV
// (UTF-8 c BOM). Отсутствующие в строке ключи выводятся пустыми.
func RenderCSV(columns []string, rows []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(UTF8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("запись заголовка CSV: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("запись строки CSV: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("сериализация CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV разбирает сгенерированный артефакт обратно в заголовок и строки.
// BOM, если присутствует, отбрасывается.
func ParseCSV(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, UTF8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("разбор CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
