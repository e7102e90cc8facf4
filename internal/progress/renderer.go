// Package progress renders upload records as terminal progress bars
// using mpb. It subscribes to the upload events on the bus, so it is
// just another frontend: the tracker never calls it directly.
package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/drivedeck/drivedeck/internal/events"
)

// Renderer draws one bar per active upload record.
type Renderer struct {
	progress   *mpb.Progress
	isTerminal bool

	mu   sync.Mutex
	bars map[string]*mpb.Bar // record ID -> bar

	done chan struct{}
	wg   sync.WaitGroup
}

// NewRenderer creates a renderer writing to stderr. On non-TTY output
// the bars are suppressed and milestones print as plain lines.
func NewRenderer() *Renderer {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		// Enable ANSI escape sequences on Windows for proper rendering
		enableANSIOnWindows(os.Stderr)

		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &Renderer{
		progress:   p,
		isTerminal: isTerminal,
		bars:       make(map[string]*mpb.Bar),
		done:       make(chan struct{}),
	}
}

// Attach subscribes the renderer to the bus and starts consuming
// upload events until Stop.
func (r *Renderer) Attach(bus *events.EventBus) {
	ch := bus.SubscribeAll()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if up, isUpload := ev.(*events.UploadEvent); isUpload {
					r.handle(up)
				}
			case <-r.done:
				bus.UnsubscribeAll(ch)
				return
			}
		}
	}()
}

// Stop detaches from the bus and waits for in-flight rendering.
func (r *Renderer) Stop() {
	close(r.done)
	r.wg.Wait()
	r.progress.Wait()
}

// Writer returns an io.Writer that safely prints above the bars.
func (r *Renderer) Writer() io.Writer {
	if r.isTerminal {
		return r.progress
	}
	return os.Stderr
}

// IsTerminal reports whether bars are being drawn.
func (r *Renderer) IsTerminal() bool {
	return r.isTerminal
}

func (r *Renderer) handle(ev *events.UploadEvent) {
	switch ev.Type() {
	case events.EventUploadStarted:
		r.addBar(ev)
	case events.EventUploadProgress:
		r.setProgress(ev)
	case events.EventUploadCompleted:
		r.complete(ev)
	case events.EventUploadErrored:
		r.errored(ev)
	case events.EventUploadRemoved:
		r.removed(ev)
	}
}

func (r *Renderer) addBar(ev *events.UploadEvent) {
	if !r.isTerminal {
		fmt.Fprintf(os.Stderr, "Uploading %s...\n", ev.Name)
		return
	}

	bar := r.progress.New(100,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(ev.Name, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.BarRemoveOnComplete(),
	)

	r.mu.Lock()
	r.bars[ev.RecordID] = bar
	r.mu.Unlock()
}

func (r *Renderer) setProgress(ev *events.UploadEvent) {
	r.mu.Lock()
	bar := r.bars[ev.RecordID]
	r.mu.Unlock()

	if bar != nil {
		bar.SetCurrent(int64(ev.Percent))
	}
}

func (r *Renderer) complete(ev *events.UploadEvent) {
	r.mu.Lock()
	bar := r.bars[ev.RecordID]
	delete(r.bars, ev.RecordID)
	r.mu.Unlock()

	if bar != nil {
		bar.SetCurrent(100)
		bar.SetTotal(100, true)
	}

	msg := fmt.Sprintf("✓ %s (%s)\n", ev.Name, sizeMiB(ev.Size))
	if r.isTerminal {
		r.progress.Write([]byte(msg))
	} else {
		fmt.Fprint(os.Stderr, msg)
	}
}

func (r *Renderer) errored(ev *events.UploadEvent) {
	r.mu.Lock()
	bar := r.bars[ev.RecordID]
	delete(r.bars, ev.RecordID)
	r.mu.Unlock()

	if bar != nil {
		bar.Abort(true)
	}

	msg := fmt.Sprintf("✗ %s: %s\n", ev.Name, ev.Reason)
	if r.isTerminal {
		r.progress.Write([]byte(msg))
	} else {
		fmt.Fprint(os.Stderr, msg)
	}
}

func (r *Renderer) removed(ev *events.UploadEvent) {
	r.mu.Lock()
	bar := r.bars[ev.RecordID]
	delete(r.bars, ev.RecordID)
	r.mu.Unlock()

	// Cancelled mid-flight; completed bars were already resolved.
	if bar != nil {
		bar.Abort(true)
	}
}

func sizeMiB(bytes int64) string {
	return fmt.Sprintf("%.1f MiB", float64(bytes)/(1024*1024))
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows.
// No-op elsewhere.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
