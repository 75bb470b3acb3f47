// Package main provides localization for the memstab CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":    "入力",
		"Output":   "出力先",
		"Frames":   "フレーム",
		"Pipeline": "パイプライン",
		"Engine":   "エンジン",
		"Debug":    "デバッグ",
		"Logging":  "ログ",

		// Root command
		"Stabilize video frames stored in memory-mapped frame files":                                 "メモリマップされたフレームファイル上の動画フレームを安定化",
		"memstab feeds fixed-layout RGB frame stores through a sliding-window stabilization engine.": "memstabは固定レイアウトのRGBフレームストアをスライディングウィンドウ方式の安定化エンジンに渡します。",
		"memstab version %s":                                                                         "memstab バージョン %s",

		// Commands
		"Stabilize a processed frame store into the output store": "処理済みフレームストアを安定化して出力ストアに書き込む",
		"Pack image directories into frame stores":                "画像ディレクトリをフレームストアにまとめる",
		"Export a frame store as PNG images":                      "フレームストアをPNG画像として書き出す",

		// Stabilize flags
		"YAML configuration file":                                       "YAML設定ファイル",
		"Original frame store (.dat)":                                   "元フレームストア (.dat)",
		"Processed frame store (.dat)":                                  "処理済みフレームストア (.dat)",
		"Stabilized frame store (.dat), must exist with the input size": "安定化フレームストア (.dat)、入力と同じサイズで作成済みであること",
		"Output execution summary to file (Markdown format)":            "実行サマリーをファイルに出力（Markdown形式）",
		"Number of frames (0 = derive from file size)":                  "フレーム数（0 = ファイルサイズから算出）",
		"Directory of precomputed .flo files":                           "事前計算済み.floファイルのディレクトリ",
		"Frames of context on each side of the cursor":                  "カーソル前後に保持するフレーム数",
		"Lookahead frames per step (min: 1)":                            "ステップごとの先読みフレーム数（最小: 1）",
		"Timed steps before the performance report":                     "性能レポートまでの計測ステップ数",
		"Host engine mode (passthrough, blend)":                         "ホストエンジンのモード（passthrough, blend）",
		"Share of the previous output in blend mode (0-1)":              "blendモードでの前フレーム出力の比率（0-1）",
		"Enable debug output":                                           "デバッグ出力を有効化",
		"Directory for debug output":                                    "デバッグ出力先ディレクトリ",
		"original, processed and output stores are required":            "元・処理済み・出力の各ストアの指定が必要です",

		// Pack and unpack flags
		"Directory of original frame images":     "元フレーム画像のディレクトリ",
		"Directory of processed frame images":    "処理済みフレーム画像のディレクトリ",
		"Original frame store to create":         "作成する元フレームストア",
		"Processed frame store to create":        "作成する処理済みフレームストア",
		"Empty stabilized frame store to create": "作成する空の安定化フレームストア",
		"Parallel workers (0 = all CPUs)":        "並列ワーカー数（0 = 全CPU）",
		"Frame store to export":                  "書き出すフレームストア",
		"Directory for PNG frames":               "PNGフレームの出力先ディレクトリ",

		// Shared flags
		"Frame width in pixels":                               "フレーム幅（ピクセル）",
		"Frame height in pixels":                              "フレーム高さ（ピクセル）",
		"Log level: debug, info, warn, error (default: info)": "ログレベル: debug, info, warn, error（デフォルト: info）",
		"Log format: console, tint (default: console)":        "ログ形式: console, tint（デフォルト: console）",
		"Suppress all log output":                             "ログ出力をすべて抑制",
	})
}
