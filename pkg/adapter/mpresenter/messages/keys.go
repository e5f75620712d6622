// 指示: miu200521358
// Package messages はCLI表示に使うメッセージキーを提供する。
package messages

// メッセージキー一覧。
const (
	AppUsage = "FKボーンチェーンをIKボーンチェーンへ焼き込み変換する"

	UsageConfig           = "設定ファイル(TOML)を読み込む `FILE`"
	UsageLogLevel         = "ログレベル (debug|info|warn|error)"
	UsageIn               = "入力リグYAML `FILE`"
	UsageOut              = "出力リグYAML `FILE`(省略時は入力を上書き)"
	UsageOverwrite        = "出力先が存在する場合に上書きする"
	UsageArmature         = "対象アーマチュア名"
	UsageBone             = "対象ボーン名(複数指定可)"
	UsageBonesFile        = "対象ボーン名リスト `FILE`(1行1ボーン)"
	UsageStart            = "開始フレーム(省略時はキーフレーム範囲)"
	UsageEnd              = "終了フレーム(省略時はキーフレーム範囲)"
	UsageMode             = "変換モード (replace|append)"
	UsageNoScale          = "スケールをコピーしない"
	UsageClearParents     = "IKボーンの親を解除する"
	UsageDryRun           = "変換結果を保存しない"
	UsageAllowSingleFrame = "開始と終了が同じフレームの変換を許可する"
	UsageExportBones      = "変換したボーン名リストを書き出す `FILE`"
	UsageBonesOut         = "ボーン名リストの出力先 `FILE`(省略時は標準出力)"

	CommandConvertUsage    = "ボーンチェーンをIK化する"
	CommandFrameRangeUsage = "キーフレーム範囲を表示する"
	CommandBonesUsage      = "ボーン名リストを表示・書き出す"

	MessageInputRequired     = "入力リグYAMLを指定してください (--in)"
	MessageArmatureRequired  = "アーマチュア名を指定してください (--armature)"
	MessageBonesRequired     = "対象ボーンを指定してください (--bone / --bones-file)"
	MessageSingleFrameDenied = "開始と終了が同じフレームです (--allow-single-frame で許可)"
	MessageLoadFailed        = "読み込み失敗"
	MessageSaveFailed        = "保存失敗"
	MessageConvertFailed     = "変換失敗"

	LogLoadStart       = "読み込み開始: %s"
	LogConvertStep     = "ステップ完了: %s"
	LogConvertProgress = "ベイク中: %s %d/%d"
	LogDiagnostic      = "警告: %s"
	LogDryRun          = "ドライラン: 保存しません"
	LogSaveSuccess     = "保存完了: %s"
	LogBonesExported   = "ボーンリスト出力: %s"
	LogFrameRange      = "フレーム範囲: %s"
)
