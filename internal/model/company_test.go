package model

import (
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyFields_AllEmpty(t *testing.T) {
	assert.True(t, CompanyFields{}.AllEmpty())
	assert.False(t, CompanyFields{PostalCode: "1000001"}.AllEmpty())
	assert.False(t, CompanyFields{RepresentativeName: "山田太郎"}.AllEmpty())
}

func TestResolvedRecord_SerializesEmptyFieldsAsStrings(t *testing.T) {
	rec := ResolvedRecord("株式会社テスト", CompanyFields{Prefecture: "東京都"}, false)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	// Unknown fields are present as "", never null or absent.
	for _, key := range []string{"postalCode", "city", "address", "representativeTitle", "representativeName"} {
		v, ok := raw[key]
		require.True(t, ok, "field %s missing", key)
		assert.Equal(t, "", v)
	}
	assert.Equal(t, "東京都", raw["prefecture"])

	// Resolved records carry no error markers.
	_, hasErr := raw["error"]
	assert.False(t, hasErr)
	_, hasOccurred := raw["errorOccurred"]
	assert.False(t, hasOccurred)
	_, hasLow := raw["lowConfidence"]
	assert.False(t, hasLow)
}

func TestFailedRecord_StateIsUnambiguous(t *testing.T) {
	rec := FailedRecord("株式会社テスト", eris.New("検索結果が見つかりませんでした。"))

	assert.True(t, rec.Failed())
	assert.True(t, rec.ErrorOccurred)
	assert.NotEmpty(t, rec.Error)
	assert.True(t, rec.CompanyFields.AllEmpty())

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, true, raw["errorOccurred"])
	assert.Equal(t, "検索結果が見つかりませんでした。", raw["error"])
}

func TestFailedRecord_NilCause(t *testing.T) {
	rec := FailedRecord("X", nil)
	assert.True(t, rec.Failed())
	assert.Equal(t, "unknown error occurred", rec.Error)
}

func TestNormalizeCompanyNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"trims whitespace", []string{"  株式会社テスト  "}, []string{"株式会社テスト"}},
		{"drops empties", []string{"", "   ", "A"}, []string{"A"}},
		{"case sensitive dedup", []string{"Acme", "acme", "Acme"}, []string{"Acme", "acme"}},
		{"preserves first occurrence order", []string{"B", "A", "B", "C", "A"}, []string{"B", "A", "C"}},
		{"nil input", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCompanyNames(tt.in))
		})
	}
}
