package reporting

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSVStartsWithBOM(t *testing.T) {
	data, err := RenderCSV([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, UTF8BOM))
}

func TestRenderCSVHeaderOnly(t *testing.T) {
	data, err := RenderCSV([]string{"number", "date"}, nil)
	require.NoError(t, err)

	cols, rows, err := ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"number", "date"}, cols)
	assert.Empty(t, rows)
}

func TestRenderCSVRows(t *testing.T) {
	columns := []string{"client", "orders_count", "amount_total_sum"}
	rows := []map[string]any{
		{"client": "ООО Ромашка", "orders_count": 2, "amount_total_sum": "150.50"},
		{"client": "Acme, Inc.", "orders_count": 1, "amount_total_sum": "99.00"},
	}

	data, err := RenderCSV(columns, rows)
	require.NoError(t, err)

	cols, records, err := ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, columns, cols)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"ООО Ромашка", "2", "150.50"}, records[0])
	// Comma inside the value must survive quoting
	assert.Equal(t, []string{"Acme, Inc.", "1", "99.00"}, records[1])
}

func TestRenderCSVMissingKeysAreEmpty(t *testing.T) {
	data, err := RenderCSV([]string{"a", "b"}, []map[string]any{{"a": "x"}})
	require.NoError(t, err)

	_, records, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"x", ""}, records[0])
}

func TestRenderCSVDeterministic(t *testing.T) {
	columns := []string{"manager", "orders_count"}
	rows := []map[string]any{
		{"manager": "Иванов И.И.", "orders_count": 3},
		{"manager": "Петров П.П.", "orders_count": 1},
	}

	first, err := RenderCSV(columns, rows)
	require.NoError(t, err)
	second, err := RenderCSV(columns, rows)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseCSVWithoutBOM(t *testing.T) {
	cols, rows, err := ParseCSV([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cols)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "2"}, rows[0])
}

func TestParseCSVEmpty(t *testing.T) {
	cols, rows, err := ParseCSV(nil)
	require.NoError(t, err)
	assert.Nil(t, cols)
	assert.Nil(t, rows)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "text", formatValue("text"))
	assert.Equal(t, "42", formatValue(42))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "1.5", formatValue(1.5))
	assert.Equal(t, "true", formatValue(true))
}
