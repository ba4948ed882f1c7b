package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestWriteXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	sheet, ok := f.Sheet["会社情報"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "会社名", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "株式会社テスト", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "1000001", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "山田太郎", sheet.Rows[1].Cells[6].String())
	assert.Equal(t, "存在しない会社", sheet.Rows[2].Cells[0].String())
}

func TestWriteXLSX_EmptyResults(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteXLSX(&buf, nil), ErrNoResults)
}
