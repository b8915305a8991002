// Package card implements the per-card upload and analysis lifecycle of the
// detection dashboard.
//
// A Controller owns the state of one detector card: the pending input, the
// simulated upload, and the analysis. All mutation happens under a single
// mutex. Every upload sequence and analysis is tagged with the generation
// that started it; a new input, Reset or Close bumps the generation so that
// callbacks from cancelled work find themselves stale and drop their writes.
package card

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/models"
	"github.com/rs/zerolog/log"
)

// Notifier receives user-facing notices (toasts).
type Notifier interface {
	Notify(n models.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(models.Notice)

func (f NotifierFunc) Notify(n models.Notice) { f(n) }

// Options configures a Controller.
type Options struct {
	UploadInterval  time.Duration
	UploadStep      int
	AnalysisTimeout time.Duration
	Scheduler       Scheduler
	Notifier        Notifier

	// Observer receives a snapshot after every state change, in order. It is
	// called with the controller locked and must not call back into it.
	Observer func(Snapshot)
}

// DefaultOptions returns the stock timings: 10 points every 100ms and a 30s
// analysis bound.
func DefaultOptions() Options {
	return Options{
		UploadInterval:  100 * time.Millisecond,
		UploadStep:      10,
		AnalysisTimeout: 30 * time.Second,
	}
}

// Controller manages the input, upload, analysis, result lifecycle of one card.
type Controller struct {
	kind     models.InputKind
	provider analysis.Provider
	opts     Options

	mu          sync.Mutex
	input       models.PendingInput
	upload      UploadState
	analysis    AnalysisState
	gen         uint64
	uploadTimer Timer
	cancel      context.CancelFunc
	closed      bool
}

// New creates a controller for one card of the given kind.
func New(kind models.InputKind, provider analysis.Provider, opts Options) *Controller {
	def := DefaultOptions()
	if opts.UploadInterval <= 0 {
		opts.UploadInterval = def.UploadInterval
	}
	if opts.UploadStep <= 0 {
		opts.UploadStep = def.UploadStep
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = def.AnalysisTimeout
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}

	return &Controller{
		kind:     kind,
		provider: provider,
		opts:     opts,
		input:    models.NoInput(),
		upload:   UploadState{Status: UploadIdle},
		analysis: AnalysisState{Status: AnalysisIdle},
	}
}

// Kind returns the card's input kind.
func (c *Controller) Kind() models.InputKind {
	return c.kind
}

// State returns a snapshot of the card.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SelectFile replaces the pending input with file and starts a fresh upload.
// The file type and size are not checked.
func (c *Controller) SelectFile(file models.FileInput) error {
	if !c.kind.AcceptsFiles() {
		c.reject(ErrUnsupportedInput)
		return ErrUnsupportedInput
	}
	if file.Name == "" {
		c.reject(ErrNoFile)
		return ErrNoFile
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.clearLocked()
	c.input = models.SelectedFile(file)
	c.upload = UploadState{Status: UploadUploading, Progress: 0}
	c.beginUploadLocked()

	log.Debug().
		Str("kind", string(c.kind)).
		Str("file", file.Name).
		Int64("size", file.Size).
		Msg("File selected")

	c.emitLocked(nil)
	return nil
}

// Drop selects the first of the dropped files. An empty drop does nothing.
func (c *Controller) Drop(files []models.FileInput) error {
	if len(files) == 0 {
		return nil
	}
	return c.SelectFile(files[0])
}

// SetText replaces the pending input with raw text. Text has no upload phase.
func (c *Controller) SetText(content string) error {
	if c.kind != models.KindText {
		c.reject(ErrUnsupportedInput)
		return ErrUnsupportedInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.clearLocked()
	c.input = models.RawText(content)
	c.emitLocked(nil)
	return nil
}

// Analyze starts an analysis of the pending input in the background. It
// returns a validation error, and changes nothing, when the input is missing,
// still uploading, or an analysis is already running.
func (c *Controller) Analyze() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		c.reject(err)
		return err
	}

	gen := c.gen
	payload := c.payloadLocked()
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.AnalysisTimeout)
	c.cancel = cancel
	c.analysis = AnalysisState{Status: AnalysisRunning}
	c.emitLocked(nil)
	c.mu.Unlock()

	log.Debug().Str("kind", string(c.kind)).Str("provider", c.provider.Name()).Msg("Analysis started")

	go func() {
		result, err := c.provider.Infer(ctx, c.kind, payload)
		if err == nil {
			if verr := result.Validate(); verr != nil {
				err = &Error{Type: ErrTypeTransfer, Message: "invalid analysis result", Cause: verr}
			}
		}
		c.finish(gen, cancel, result, err)
	}()
	return nil
}

// Reset cancels pending work and returns the card to its initial state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.input = models.NoInput()
	c.emitLocked(nil)
}

// Close resets the card and rejects any further operation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.clearLocked()
	c.input = models.NoInput()
	c.closed = true
}

func (c *Controller) readyLocked() error {
	if c.analysis.Status == AnalysisRunning {
		return ErrBusy
	}
	if c.kind == models.KindText {
		if c.input.IsEmpty() {
			return ErrEmptyText
		}
		return nil
	}
	if c.input.Variant != models.InputFile || c.input.File == nil {
		return ErrNoInput
	}
	if c.upload.Status != UploadComplete {
		return ErrUploadPending
	}
	return nil
}

func (c *Controller) payloadLocked() analysis.Payload {
	if c.input.Variant == models.InputText {
		return analysis.Payload{Text: c.input.Text}
	}
	f := *c.input.File
	return analysis.Payload{File: &f}
}

// clearLocked cancels timers and analysis, invalidates outstanding callbacks
// and puts upload and analysis back to idle.
func (c *Controller) clearLocked() {
	c.gen++
	if c.uploadTimer != nil {
		c.uploadTimer.Stop()
		c.uploadTimer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.upload = UploadState{Status: UploadIdle}
	c.analysis = AnalysisState{Status: AnalysisIdle}
}

func (c *Controller) beginUploadLocked() {
	gen := c.gen
	c.uploadTimer = c.opts.Scheduler.AfterFunc(c.opts.UploadInterval, func() {
		c.tick(gen)
	})
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.upload.Status != UploadUploading {
		return
	}

	if c.upload.Progress >= 100 {
		c.upload = UploadState{Status: UploadComplete, Progress: 100}
		c.uploadTimer = nil
		log.Debug().Str("kind", string(c.kind)).Msg("Upload complete")
		c.emitLocked(nil)
		return
	}

	c.upload.Progress = min(c.upload.Progress+c.opts.UploadStep, 100)
	c.beginUploadLocked()
	c.emitLocked(nil)
}

func (c *Controller) finish(gen uint64, cancel context.CancelFunc, result models.AnalysisResult, err error) {
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.analysis.Status != AnalysisRunning {
		log.Debug().Str("kind", string(c.kind)).Msg("Dropping stale analysis result")
		return
	}
	c.cancel = nil

	if err != nil {
		cerr := classify(err)
		c.analysis = AnalysisState{Status: AnalysisFailed, Reason: cerr.Error()}
		log.Warn().Err(err).Str("kind", string(c.kind)).Str("type", string(cerr.Type)).Msg("Analysis failed")
		c.emitLocked(failureNotice(c.kind, cerr))
		return
	}

	c.analysis = AnalysisState{Status: AnalysisDone, Result: &result}
	log.Info().
		Str("kind", string(c.kind)).
		Str("verdict", string(result.Verdict)).
		Float64("confidence", result.Confidence).
		Msg("Analysis complete")
	c.emitLocked(&models.Notice{
		Kind:        c.kind,
		Title:       "Analysis Complete",
		Description: "Detection confidence: " + result.Percent(1),
		Variant:     models.NoticeDefault,
	})
}

// reject surfaces a validation error as a notice without touching state.
func (c *Controller) reject(err error) {
	if c.opts.Notifier == nil {
		return
	}
	c.opts.Notifier.Notify(models.Notice{
		Kind:        c.kind,
		Title:       "Error",
		Description: UserMessage(c.kind, err),
		Variant:     models.NoticeDestructive,
		CreatedAt:   time.Now(),
	})
}

func (c *Controller) emitLocked(n *models.Notice) {
	if c.opts.Observer != nil {
		c.opts.Observer(c.snapshotLocked())
	}
	if n != nil && c.opts.Notifier != nil {
		n.CreatedAt = time.Now()
		c.opts.Notifier.Notify(*n)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	input := c.input
	if input.File != nil {
		f := *input.File
		f.Data = nil
		input.File = &f
	}
	an := c.analysis
	if an.Result != nil {
		r := *an.Result
		an.Result = &r
	}
	return Snapshot{
		Kind:     c.kind,
		Phase:    phaseOf(c.input, c.upload, c.analysis),
		Input:    input,
		Upload:   c.upload,
		Analysis: an,
	}
}

// UserMessage is the notice text shown for a validation error on a card of kind.
func UserMessage(kind models.InputKind, err error) string {
	switch err {
	case ErrEmptyText:
		return "Please enter some text to analyze"
	case ErrNoInput, ErrNoFile:
		return "Please select " + article(string(kind)) + " " + string(kind) + " file to analyze"
	case ErrUploadPending:
		return "Please wait for the upload to finish"
	case ErrBusy:
		return "An analysis is already running"
	case ErrUnsupportedInput:
		if kind == models.KindText {
			return "This detector analyzes text, not files"
		}
		return "This detector analyzes " + string(kind) + " files, not text"
	}
	return err.Error()
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

func failureNotice(kind models.InputKind, err *Error) *models.Notice {
	desc := "Something went wrong during analysis. Please try again."
	if err.Type == ErrTypeTimeout {
		desc = "The analysis took too long to respond. Please try again."
	}
	return &models.Notice{
		Kind:        kind,
		Title:       "Analysis Failed",
		Description: desc,
		Variant:     models.NoticeDestructive,
	}
}
