package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// rowProgress draws a progress bar on a terminal and does nothing elsewhere.
type rowProgress struct {
	bar *progressbar.ProgressBar
}

func newRowProgress(w io.Writer, stageName string, enabled bool) *rowProgress {
	if !enabled || !isTerminal(w) {
		return &rowProgress{}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(stageName),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &rowProgress{bar: bar}
}

// update matches batch.Options.OnProgress.
func (p *rowProgress) update(done, total int) {
	if p.bar == nil {
		return
	}
	if p.bar.GetMax() != total {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(done)
}

func (p *rowProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
