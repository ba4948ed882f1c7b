package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/company-lookup/internal/model"
)

var samplePromptResults = []model.SearchResult{
	{
		Title:   "株式会社テスト | 会社概要",
		Link:    "https://example.co.jp/about",
		Snippet: "〒100-0001 東京都千代田区丸の内1-1-1",
	},
	{
		Title:   "株式会社テスト - 企業情報",
		Link:    "https://directory.example.com/test",
		Snippet: "代表取締役社長 山田太郎",
	},
}

func TestBuildExtractionPrompt_Deterministic(t *testing.T) {
	a := BuildExtractionPrompt("株式会社テスト", samplePromptResults)
	b := BuildExtractionPrompt("株式会社テスト", samplePromptResults)
	assert.Equal(t, a, b, "identical inputs must yield byte-identical prompts")
}

func TestBuildExtractionPrompt_Content(t *testing.T) {
	prompt := BuildExtractionPrompt("株式会社テスト", samplePromptResults)

	assert.Contains(t, prompt, "株式会社テスト")
	assert.Contains(t, prompt, "https://example.co.jp/about")
	assert.Contains(t, prompt, "代表取締役社長 山田太郎")

	// The six-field JSON schema and the no-guessing rule.
	for _, field := range []string{"postalCode", "prefecture", "city", "address", "representativeTitle", "representativeName"} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, "数字7桁")
	assert.Contains(t, prompt, "情報が見つからない場合は空文字列にしてください")
}

func TestBuildVerificationPrompt_Deterministic(t *testing.T) {
	first := model.CompanyFields{
		PostalCode: "1000001",
		Prefecture: "東京都",
		City:       "千代田区",
	}

	a := BuildVerificationPrompt("株式会社テスト", first, samplePromptResults)
	b := BuildVerificationPrompt("株式会社テスト", first, samplePromptResults)
	assert.Equal(t, a, b)
}

func TestBuildVerificationPrompt_Content(t *testing.T) {
	first := model.CompanyFields{
		PostalCode:         "1000001",
		RepresentativeName: "山田太郎",
	}

	prompt := BuildVerificationPrompt("株式会社テスト", first, samplePromptResults)

	assert.Contains(t, prompt, "株式会社テスト")
	assert.Contains(t, prompt, `"1000001"`)
	assert.Contains(t, prompt, "山田太郎")
	assert.Contains(t, prompt, "推測せず空欄としてください")
	assert.Contains(t, prompt, "https://directory.example.com/test")
}

func TestBuildExtractionPrompt_EmptyResults(t *testing.T) {
	prompt := BuildExtractionPrompt("株式会社テスト", nil)
	assert.Contains(t, prompt, "null")
	assert.NotEmpty(t, prompt)
}
