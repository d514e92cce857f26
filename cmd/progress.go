package cmd

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/kweiss/resticpilot/internal/engine"
)

func newProgressContainer() *mpb.Progress {
	return mpb.New(mpb.WithWidth(64))
}

func addTransferBar(p *mpb.Progress, name string) *mpb.Bar {
	return p.AddBar(0, // total learned from the first progress record
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.OnComplete(decor.Name(" [DONE]"), " [DONE]"),
		),
	)
}

func updateBackupBar(bar *mpb.Bar, rec *engine.BackupProgress) {
	if rec.TotalBytes > 0 {
		bar.SetTotal(int64(rec.TotalBytes), false)
	}
	bar.SetCurrent(int64(rec.BytesDone))
}

func updateRestoreBar(bar *mpb.Bar, rec *engine.RestoreProgress) {
	if rec.TotalBytes > 0 {
		bar.SetTotal(int64(rec.TotalBytes), false)
	}
	bar.SetCurrent(int64(rec.BytesRestored))
}

// finishBar completes the bar regardless of how far the engine got, so the
// container's Wait returns.
func finishBar(bar *mpb.Bar) {
	bar.SetTotal(-1, true)
}
