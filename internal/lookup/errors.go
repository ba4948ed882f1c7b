package lookup

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrCredentialsMissing is returned for every lookup attempted while any
// external API credential is unset. It is never retried.
var ErrCredentialsMissing = eris.New("APIキーが設定されていません。環境変数を確認してください。")

// NoResultsError means the search provider answered with zero results.
// Callers must treat this as a recoverable failure, not a valid empty set.
type NoResultsError struct {
	Query string
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("「%s」の検索結果が見つかりませんでした。", e.Query)
}

// SearchUnavailableError wraps a network or provider failure during search.
type SearchUnavailableError struct {
	Err error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("検索でエラーが発生しました: %v", e.Err)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Err
}

// UnparsableResponseError means the model's reply contained no parseable
// JSON object. It counts against the model-call retry budget.
type UnparsableResponseError struct {
	Raw string
}

func (e *UnparsableResponseError) Error() string {
	return "モデルの応答をJSONとして解析できませんでした。"
}

// Pipeline stages that can fail terminally for a company.
const (
	StageExtract = "extract"
	StageVerify  = "verify"
)

// StageError is a terminal extraction or verification failure, surfaced
// after the retry budget is exhausted.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageVerify:
		return fmt.Sprintf("情報の検証中にエラーが発生しました: %v", e.Err)
	default:
		return fmt.Sprintf("情報の抽出中にエラーが発生しました: %v", e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}
