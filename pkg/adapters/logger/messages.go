package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration
		"Starting stabilization of %d frames (%s)":      "%d フレームの手ぶれ補正を開始します (%s)",
		"Using %s optical flow":                         "%s のオプティカルフローを使用します",
		"Output written to %s":                          "出力を %s に書き込みました",
		"Summary written to %s":                         "サマリーを %s に書き込みました",
		"Pipeline completed successfully":               "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":                 "中断されました。シャットダウン中...",
		"Failed to close stores: %s":                    "ストアのクローズに失敗しました: %s",
		"Derived frame count %d from %s":                "%[2]s からフレーム数 %[1]d を算出しました",

		// Stabilize stage
		"Preloading frame %d":                           "フレーム %d をプリロード中",
		"Starting stabilization at frame %d":            "フレーム %d から補正を開始します",
		"Stabilized %d frames":                          "%d フレームを補正しました",
		"Per-frame time in ms averaged over %d frames: load %.2f, optflow %.2f, stabilize %.2f, save %.2f, overall %.2f": "%d フレーム平均の処理時間 (ms): 読込 %.2f, オプティカルフロー %.2f, 補正 %.2f, 保存 %.2f, 合計 %.2f",
		"Debug output skipped for frame %d: %s":         "フレーム %d のデバッグ出力をスキップしました: %s",
		"Failed to save debug comparison for frame %d: %s": "フレーム %d のデバッグ比較画像の保存に失敗しました: %s",
		"Failed to save debug flow for step %d: %s":     "ステップ %d のデバッグフローの保存に失敗しました: %s",

		// Pack and unpack stages
		"Packing %d frames of %s with %d workers":       "%[2]s の %[1]d フレームを %[3]d ワーカーでパック中",
		"Resized %d frames to %s":                       "%d フレームを %s にリサイズしました",
		"Packed %d frames into %s":                      "%d フレームを %s にパックしました",
		"Unpacking %d frames to %s":                     "%d フレームを %s に展開中",
		"Unpacked %d frames":                            "%d フレームを展開しました",

		// Errors
		"Failed to stabilize: %s":                       "手ぶれ補正に失敗しました: %s",
		"Failed to pack frames: %s":                     "フレームのパックに失敗しました: %s",
		"Failed to unpack frames: %s":                   "フレームの展開に失敗しました: %s",
	})
}
