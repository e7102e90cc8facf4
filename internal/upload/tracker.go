// Package upload implements the upload progress tracker: per-file
// records with simulated progress ticks, a single commit to the store
// or the API, and auto-dismissal of completed records.
package upload

import (
	"context"
	"encoding/base64"
	"io"
	"math/rand"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/drivedeck/drivedeck/internal/events"
	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
)

const (
	defaultTickInterval = 200 * time.Millisecond
	defaultDismissDelay = 3 * time.Second

	// Progress gain per tick: minTickGain plus a random fraction of
	// tickGainSpread. Display percent is the floor of the accumulated
	// value.
	minTickGain    = 8.0
	tickGainSpread = 17.0

	readFailureReason = "failed to read file"
)

// FileSource opens upload payloads. The default reads the local
// filesystem; tests substitute in-memory sources.
type FileSource interface {
	Open(name string) (io.ReadCloser, error)
}

// Committer lands finished uploads in the store or on the API.
type Committer interface {
	// CommitItem persists an uploaded file's metadata and payload,
	// returning the assigned item ID.
	CommitItem(ctx context.Context, req models.AddItemRequest) (string, error)
	// CommitFolder creates a folder, returning its ID. Used by folder
	// uploads for implied directories; no progress is simulated.
	CommitFolder(ctx context.Context, name, parentID string) (string, error)
}

// Notifier shows desktop notifications for upload milestones.
type Notifier interface {
	UploadStarted(count int)
	UploadComplete(name string)
	UploadFailed(name, reason string)
}

// Options tunes tracker timing and hooks. Zero values select the
// production defaults.
type Options struct {
	// TickInterval is the progress tick period (default 200ms).
	TickInterval time.Duration
	// DismissDelay is how long a completed record stays visible
	// (default 3s).
	DismissDelay time.Duration
	// Navigate, when set, is invoked once per batch with the target
	// parent after the batch's first commit.
	Navigate func(parentID string)
	// Owner is recorded on committed items.
	Owner string
}

// Tracker owns the set of active upload records.
//
// Every record mutation happens under the tracker mutex, and ticker
// goroutines re-check that their record still exists before each
// mutation: a cancelled or dismissed record is gone for good, and a
// late tick applies nothing.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*Record
	cancels map[string]context.CancelFunc

	committer Committer
	source    FileSource
	eventBus  *events.EventBus
	notifier  Notifier
	log       *logging.Logger
	opts      Options

	wg sync.WaitGroup
}

// NewTracker creates a tracker. notifier may be nil.
func NewTracker(committer Committer, source FileSource, eventBus *events.EventBus, notifier Notifier, log *logging.Logger, opts Options) *Tracker {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.DismissDelay <= 0 {
		opts.DismissDelay = defaultDismissDelay
	}
	return &Tracker{
		records:   make(map[string]*Record),
		cancels:   make(map[string]context.CancelFunc),
		committer: committer,
		source:    source,
		eventBus:  eventBus,
		notifier:  notifier,
		log:       log,
		opts:      opts,
	}
}

// Records returns a snapshot of active records in start order.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].startedAt.Equal(out[j].startedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].startedAt.Before(out[j].startedAt)
	})
	return out
}

// Get returns a copy of one record.
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Cancel removes an in-flight upload. Safe on unknown IDs. Removal is
// final: the upload's ticker observes the missing record and stops
// without committing, and a commit already in flight is aborted through
// the record's context.
func (t *Tracker) Cancel(id string) {
	t.remove(id, "cancelled")
}

// Dismiss removes a record (typically an errored one). Safe on
// unknown IDs.
func (t *Tracker) Dismiss(id string) {
	t.remove(id, "dismissed")
}

func (t *Tracker) remove(id, reason string) {
	t.mu.Lock()
	rec, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.records, id)
	cancel := t.cancels[id]
	delete(t.cancels, id)
	name := rec.DisplayName
	size := rec.ByteSize
	percent := rec.Percent
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	ev := events.NewUploadEvent(events.EventUploadRemoved, id, name, size, percent)
	ev.Reason = reason
	t.publish(ev)
}

// Wait blocks until all started upload pipelines have finished
// (committed or errored). Auto-dismiss timers are not waited on.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// StartUpload uploads files into the dest folder. One aggregate
// notification covers the whole batch; the navigation hook fires once
// after the batch's first commit.
func (t *Tracker) StartUpload(ctx context.Context, files []string, dest string) []string {
	if len(files) == 0 {
		return nil
	}

	if t.notifier != nil {
		t.notifier.UploadStarted(len(files))
	}

	var navigateOnce sync.Once

	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, t.startOne(ctx, file, filepath.Base(file), dest, &navigateOnce))
	}
	return ids
}

// StartFolderUpload uploads a directory's files, recreating its
// structure under dest. files are slash-separated paths relative to
// the uploaded folder's parent (e.g. "photos/2024/a.jpg"); the local
// names to read are resolved against baseDir.
//
// Implied folders are derived from the relative paths and committed
// synchronously exactly once each, depth first, before any file
// pipeline starts. Each file's target parent is the folder created for
// its own relative directory.
func (t *Tracker) StartFolderUpload(ctx context.Context, baseDir string, files []string, dest string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if t.notifier != nil {
		t.notifier.UploadStarted(len(files))
	}

	// Seen-set of committed relative paths: relDir -> folder ID,
	// seeded with the batch root so every chain terminates.
	folderIDs := map[string]string{".": dest, "": dest}

	var navigateOnce sync.Once

	ids := make([]string, 0, len(files))
	for _, rel := range files {
		rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))

		parentID, err := t.commitDirChain(ctx, path.Dir(rel), folderIDs)
		if err != nil {
			return ids, err
		}

		local := filepath.Join(baseDir, filepath.FromSlash(rel))
		ids = append(ids, t.startOne(ctx, local, path.Base(rel), parentID, &navigateOnce))
	}
	return ids, nil
}

// commitDirChain commits every uncommitted ancestor of relDir in
// root-to-leaf order and returns relDir's folder ID. An already-seen
// path is never committed twice.
func (t *Tracker) commitDirChain(ctx context.Context, relDir string, folderIDs map[string]string) (string, error) {
	if id, ok := folderIDs[relDir]; ok {
		return id, nil
	}

	parentID, err := t.commitDirChain(ctx, path.Dir(relDir), folderIDs)
	if err != nil {
		return "", err
	}

	id, err := t.committer.CommitFolder(ctx, path.Base(relDir), parentID)
	if err != nil {
		return "", err
	}
	folderIDs[relDir] = id
	return id, nil
}

// startOne creates the record and launches the pipeline goroutine.
func (t *Tracker) startOne(ctx context.Context, localName, displayName, parentID string, navigateOnce *sync.Once) string {
	rec := &Record{
		ID:           newRecordID(),
		DisplayName:  displayName,
		State:        Uploading,
		TargetParent: parentID,
		startedAt:    time.Now(),
	}

	// Each record gets its own context so Cancel can abort an
	// in-flight commit, not just future ticks.
	recCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.records[rec.ID] = rec
	t.cancels[rec.ID] = cancel
	t.mu.Unlock()

	t.publish(events.NewUploadEvent(events.EventUploadStarted, rec.ID, displayName, 0, 0))

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		t.runPipeline(recCtx, rec.ID, localName, displayName, parentID, navigateOnce)

		t.mu.Lock()
		delete(t.cancels, rec.ID)
		t.mu.Unlock()
	}()

	return rec.ID
}

// runPipeline is the per-file upload flow: read, tick to 100, commit
// once, auto-dismiss.
func (t *Tracker) runPipeline(ctx context.Context, id, localName, displayName, parentID string, navigateOnce *sync.Once) {
	data, err := t.readFile(localName)
	if err != nil {
		t.log.Warn().Str("file", localName).Err(err).Msg("upload read failed")
		t.setErrored(id, readFailureReason)
		if t.notifier != nil {
			t.notifier.UploadFailed(displayName, readFailureReason)
		}
		return
	}

	size := int64(len(data))
	t.mu.Lock()
	if rec, ok := t.records[id]; ok {
		rec.ByteSize = size
	}
	t.mu.Unlock()

	if !t.tickToCompletion(ctx, id) {
		// Cancelled mid-flight; nothing to commit.
		return
	}

	req := models.AddItemRequest{
		Name:      displayName,
		Kind:      models.KindFile,
		SizeLabel: sizeLabel(size),
		SizeBytes: size,
		TypeLabel: classifyType(displayName),
		ParentID:  parentID,
		Owner:     t.opts.Owner,
		Content:   base64.StdEncoding.EncodeToString(data),
		MimeType:  mime.TypeByExtension(strings.ToLower(filepath.Ext(displayName))),
	}

	// Cancel may land between the completing tick and the commit; a
	// removed record must never produce a committed item.
	t.mu.Lock()
	_, live := t.records[id]
	t.mu.Unlock()
	if !live {
		return
	}

	if _, err := t.committer.CommitItem(ctx, req); err != nil {
		if _, still := t.Get(id); !still {
			// Cancelled while the commit was in flight.
			return
		}
		t.log.Error().Str("file", displayName).Err(err).Msg("upload commit failed")
		t.setErrored(id, err.Error())
		if t.notifier != nil {
			t.notifier.UploadFailed(displayName, err.Error())
		}
		return
	}

	t.mu.Lock()
	rec, ok := t.records[id]
	if ok {
		rec.State = Completed
		rec.Percent = 100
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	t.publish(events.NewUploadEvent(events.EventUploadCompleted, id, displayName, size, 100))
	if t.notifier != nil {
		t.notifier.UploadComplete(displayName)
	}
	if t.opts.Navigate != nil {
		navigateOnce.Do(func() { t.opts.Navigate(parentID) })
	}

	time.AfterFunc(t.opts.DismissDelay, func() {
		t.autoDismiss(id)
	})
}

func (t *Tracker) readFile(name string) ([]byte, error) {
	rc, err := t.source.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// tickToCompletion drives the simulated progress to exactly 100.
// Returns false if the record disappeared (cancel/dismiss) before
// completion. Each tick re-checks existence under the mutex: late
// ticks on removed records apply nothing.
func (t *Tracker) tickToCompletion(ctx context.Context, id string) bool {
	ticker := time.NewTicker(t.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		t.mu.Lock()
		rec, ok := t.records[id]
		if !ok || rec.State != Uploading {
			t.mu.Unlock()
			return false
		}

		rec.accumulated += minTickGain + rand.Float64()*tickGainSpread
		done := rec.accumulated >= 100
		if done {
			// The completing tick lands on exactly 100, never 99.x.
			rec.accumulated = 100
			rec.Percent = 100
		} else {
			rec.Percent = int(rec.accumulated)
		}
		name := rec.DisplayName
		size := rec.ByteSize
		percent := rec.Percent
		t.mu.Unlock()

		t.publish(events.NewUploadEvent(events.EventUploadProgress, id, name, size, percent))

		if done {
			return true
		}
	}
}

// setErrored flips a record to Errored if it still exists. Errored
// records persist until Dismiss.
func (t *Tracker) setErrored(id, reason string) {
	t.mu.Lock()
	rec, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	rec.State = Errored
	rec.Reason = reason
	name := rec.DisplayName
	size := rec.ByteSize
	percent := rec.Percent
	t.mu.Unlock()

	ev := events.NewUploadEvent(events.EventUploadErrored, id, name, size, percent)
	ev.Reason = reason
	t.publish(ev)
}

// autoDismiss removes a completed record after the dismiss delay.
// Errored records are left alone.
func (t *Tracker) autoDismiss(id string) {
	t.mu.Lock()
	rec, ok := t.records[id]
	if !ok || rec.State != Completed {
		t.mu.Unlock()
		return
	}
	delete(t.records, id)
	name := rec.DisplayName
	size := rec.ByteSize
	t.mu.Unlock()

	ev := events.NewUploadEvent(events.EventUploadRemoved, id, name, size, 100)
	ev.Reason = "auto"
	t.publish(ev)
}

func (t *Tracker) publish(ev events.Event) {
	if t.eventBus != nil {
		t.eventBus.Publish(ev)
	}
}
