package lookup

import (
	"encoding/json"
	"fmt"

	"github.com/sells-group/company-lookup/internal/model"
)

// Prompt templates instruct the model to answer with a fixed six-field JSON
// object, leaving unknown fields empty rather than guessing.

const extractionPromptTemplate = `あなたは日本の企業情報を専門に扱う調査アシスタントです。以下の検索結果から、企業「%s」に関する情報を抽出してください。

検索結果:
%s

以下の情報を抽出し、指定されたJSON形式で回答してください。情報が見つからない場合は空文字列にしてください。

1. 郵便番号: 数字7桁のみを抽出してください（ハイフンなし）。例: "1000001"
2. 都道府県: 都道府県名のみを抽出してください。例: "東京都"
3. 市区町村: 市区町村名のみを抽出してください。例: "千代田区"
4. 残りの住所: 都道府県と市区町村を除いた住所を抽出してください。
5. 代表者の役職名: 代表取締役社長、代表取締役、CEOなど。
6. 代表者の氏名: 姓名を抽出してください。

必ずこの形式のJSONで回答してください:
{
  "postalCode": "1234567",
  "prefecture": "東京都",
  "city": "千代田区",
  "address": "丸の内1-1-1",
  "representativeTitle": "代表取締役社長",
  "representativeName": "山田太郎"
}

会社のウェブサイトや信頼性の高いビジネスディレクトリからの情報を優先してください。郵便番号は数字7桁のフォーマットのみを使用し、住所は正確に都道府県・市区町村・残りの住所に分けてください。`

const verificationPromptTemplate = `あなたは日本の企業情報を検証する専門家です。「%s」について以下の情報が抽出されました：

最初の抽出結果:
%s

追加の検索結果:
%s

追加の検索結果を分析し、最初の抽出結果を検証・修正してください。一貫性のある正確な情報を提供することが目標です。

以下の点に注意してください：
1. 郵便番号は数字7桁の形式にしてください（例: "1000001"）
2. 住所は都道府県、市区町村、残りの住所に正しく分けてください
3. 代表者の役職名と氏名を正確に区別してください
4. 矛盾する情報がある場合は、より信頼性の高い情報源からの情報を優先してください
5. 情報が見つからない場合は空欄にしてください
6. 情報が確認できない場合は、推測せず空欄としてください

検証結果を以下のJSON形式で提供してください：
{
  "postalCode": "郵便番号（数字のみ）",
  "prefecture": "都道府県",
  "city": "市区町村",
  "address": "残りの住所",
  "representativeTitle": "代表者の役職名",
  "representativeName": "代表者の氏名"
}`

// BuildExtractionPrompt renders the first-pass extraction instructions.
// Identical inputs always yield byte-identical output.
func BuildExtractionPrompt(companyName string, results []model.SearchResult) string {
	return fmt.Sprintf(extractionPromptTemplate, companyName, marshalForPrompt(results))
}

// BuildVerificationPrompt renders the fact-check instructions from the
// first-pass fields and a second round of search results.
func BuildVerificationPrompt(companyName string, first model.CompanyFields, factCheckResults []model.SearchResult) string {
	return fmt.Sprintf(verificationPromptTemplate, companyName, marshalForPrompt(first), marshalForPrompt(factCheckResults))
}

func marshalForPrompt(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Only unmarshalable types can fail here; our inputs are plain structs.
		return "[]"
	}
	return string(data)
}
