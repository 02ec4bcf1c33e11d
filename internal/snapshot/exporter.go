package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salesdash/salesdash/internal/dashboard"
	"github.com/salesdash/salesdash/internal/shared"
	"github.com/salesdash/salesdash/report"
)

// FailureMessage is the notification shown when an export fails.
const FailureMessage = "Une erreur est survenue lors de la génération du PDF. Veuillez réessayer."

// State is the position of an exporter in its request cycle.
type State int

// Export states.
const (
	StateIdle State = iota
	StatePreparing
	StateConverting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateConverting:
		return "converting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Converter turns HTML into PDF bytes.
type Converter interface {
	Ping(ctx context.Context) error
	Convert(ctx context.Context, html []byte, assets map[string][]byte, opts report.PageOptions) ([]byte, error)
}

// Source is the live dashboard an export reads from.
type Source interface {
	Snapshot() dashboard.Snapshot
	Page() *dashboard.Page
}

// Notifier surfaces a failure to the user.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

// Recorder observes finished exports.
type Recorder interface {
	ObserveExport(outcome string, elapsed time.Duration)
}

// Result is a converted export.
type Result struct {
	ID       string
	Filename string
	PDF      []byte
	Document Document
}

// Config wires an Exporter.
type Config struct {
	Converter     Converter
	Rasterizer    Rasterizer
	SettleTimeout time.Duration
	Recorder      Recorder
	Logger        *slog.Logger
	OnTransition  func(State)
}

// Exporter runs one export at a time for a dashboard session.
type Exporter struct {
	mu            sync.Mutex
	state         State
	converter     Converter
	raster        Rasterizer
	settleTimeout time.Duration
	recorder      Recorder
	logger        *slog.Logger
	onTransition  func(State)
	now           func() time.Time
}

// NewExporter builds an idle exporter.
func NewExporter(cfg Config) *Exporter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.SettleTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Exporter{
		converter:     cfg.Converter,
		raster:        cfg.Rasterizer,
		settleTimeout: timeout,
		recorder:      cfg.Recorder,
		logger:        logger.With("component", "export"),
		onTransition:  cfg.OnTransition,
		now:           time.Now,
	}
}

// WithNow overrides the clock used for the document timestamp.
func (e *Exporter) WithNow(now func() time.Time) *Exporter {
	if now != nil {
		e.now = now
	}
	return e
}

// State returns the current state.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Exporter) transition(next State) {
	e.mu.Lock()
	e.state = next
	e.mu.Unlock()
	if e.onTransition != nil {
		e.onTransition(next)
	}
}

// begin moves Idle to Preparing, rejecting a second concurrent export.
func (e *Exporter) begin() error {
	e.mu.Lock()
	if e.state == StatePreparing || e.state == StateConverting {
		e.mu.Unlock()
		return shared.ErrExportBusy
	}
	e.state = StatePreparing
	e.mu.Unlock()
	if e.onTransition != nil {
		e.onTransition(StatePreparing)
	}
	return nil
}

// Export builds the document from src and converts it. Whatever happens, the
// stage is torn down before Export returns. On failure notify is called
// exactly once. ErrExportBusy is returned without touching the running export.
func (e *Exporter) Export(ctx context.Context, src Source, settings Settings, notify Notifier) (Result, error) {
	if err := e.begin(); err != nil {
		return Result{}, err
	}
	started := e.now()
	id := uuid.NewString()
	logger := e.logger.With(slog.String("export_id", id), slog.String("filename", settings.Filename))

	result, err := e.run(ctx, src, settings, logger)
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
		e.transition(StateFailed)
		logger.Error("export failed", slog.Any("error", err))
		if notify != nil {
			notify.Notify(ctx, FailureMessage)
		}
	} else {
		e.transition(StateSucceeded)
		logger.Info("export succeeded", slog.Int("bytes", len(result.PDF)), slog.Int("page_breaks", result.Document.PageBreaks))
	}
	if e.recorder != nil {
		e.recorder.ObserveExport(outcome, e.now().Sub(started))
	}
	e.transition(StateIdle)
	result.ID = id
	return result, err
}

func (e *Exporter) run(ctx context.Context, src Source, settings Settings, logger *slog.Logger) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrConversionFailure, err)
	}
	if err := settings.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: invalid settings: %v", shared.ErrConversionFailure, err)
	}
	if e.converter == nil || e.raster == nil {
		return Result{}, fmt.Errorf("%w: exporter not configured", shared.ErrConversionUnavailable)
	}

	snap := src.Snapshot()
	stage := Mount(src.Page())
	defer stage.Teardown()

	assembleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		doc         Document
		assembleErr error
	)
	go func() {
		defer stage.Settle()
		doc, assembleErr = Assemble(assembleCtx, snap, settings, e.raster, e.now())
		if assembleErr == nil && assembleCtx.Err() != nil {
			assembleErr = assembleCtx.Err()
		}
		if assembleErr == nil {
			// Fill settles the stage, so results must be stored first.
			if err := stage.Fill(doc.HTML); err != nil {
				assembleErr = err
			}
		}
	}()

	if err := stage.Await(ctx, e.settleTimeout); err != nil {
		return Result{}, err
	}
	if assembleErr != nil {
		if errors.Is(assembleErr, shared.ErrConversionFailure) {
			return Result{}, assembleErr
		}
		return Result{}, fmt.Errorf("%w: %v", shared.ErrConversionFailure, assembleErr)
	}
	logger.Debug("export document laid out", slog.Any("sections", doc.Sections), slog.Int("assets", len(doc.Assets)))

	if err := e.converter.Ping(ctx); err != nil {
		if errors.Is(err, shared.ErrConversionUnavailable) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", shared.ErrConversionUnavailable, err)
	}

	e.transition(StateConverting)
	pdf, err := e.converter.Convert(ctx, doc.HTML, doc.Assets, settings.PageOptions(SettledExpression))
	if err != nil {
		if errors.Is(err, shared.ErrConversionUnavailable) || errors.Is(err, shared.ErrConversionFailure) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", shared.ErrConversionFailure, err)
	}
	return Result{Filename: settings.Filename, PDF: pdf, Document: doc}, nil
}
