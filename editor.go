package plasticity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shaunstanislauslau/plasticity/geom"
	"github.com/shaunstanislauslau/plasticity/utils"
)

type EditorOptions struct {
	// HistoryDepth bounds how many undo steps are retained; the
	// oldest memento is evicted past it.
	HistoryDepth int
	// SnapCacheSize bounds the cross-point cache.
	SnapCacheSize int
	Logger        utils.Logger
}

func (o *EditorOptions) SetDefaults() {
	if o.HistoryDepth == 0 {
		o.HistoryDepth = 128
	}
	if o.SnapCacheSize == 0 {
		o.SnapCacheSize = 1024
	}
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
}

// Editor owns the document, the derived subsystems, and the command
// machinery, wired together: one serial queue under everything, one
// history over everything.
type Editor struct {
	DB        *geom.DB
	Selection *Selection
	Snaps     *SnapCache
	Curves    *Curves
	Modifiers *ModifierStack

	Originator *EditorOriginator
	History    *History
	Signals    *Signals
	Executor   *Executor

	log utils.Logger
}

func NewEditor(opts EditorOptions) (*Editor, error) {
	opts.SetDefaults()

	db := geom.NewDB(opts.Logger)
	ed := &Editor{
		DB:        db,
		Selection: NewSelection(),
		Snaps:     NewSnapCache(opts.SnapCacheSize),
		Curves:    NewCurves(),
		Modifiers: NewModifierStack(),
		Signals:   NewSignals(),
		log:       opts.Logger,
	}
	ed.Originator = &EditorOriginator{
		db:        db,
		selection: ed.Selection,
		snaps:     ed.Snaps,
		curves:    ed.Curves,
		modifiers: ed.Modifiers,
	}
	baseline, err := ed.Originator.Snapshot(context.Background())
	if err != nil {
		return nil, err
	}
	ed.History = newHistory(ed.Originator, ed.Signals, opts.HistoryDepth, baseline)
	ed.Executor = newExecutor(db.Queue(), ed.Originator, ed.History, ed.Signals, opts.Logger)
	return ed, nil
}

// NewCommand builds a command bound to this editor.
func (ed *Editor) NewCommand(label string, effect Effect) *Command {
	return newCommand(ed, label, effect)
}

// Enqueue submits a command, preempting whatever is in flight. The
// handle settles when the command is terminal (or dropped); it never
// carries an error.
func (ed *Editor) Enqueue(cmd *Command) *utils.Done {
	return ed.Executor.Enqueue(cmd)
}

// Undo rewinds one history entry. Routed through the document queue
// so it serializes with command effects. At the baseline it logs and
// reports ErrNothingToUndo, which callers may treat as a no-op.
func (ed *Editor) Undo(ctx context.Context) error {
	return ed.boundary(ctx, ed.History.Undo, ErrNothingToUndo, "nothing to undo")
}

// Redo replays one history entry forward.
func (ed *Editor) Redo(ctx context.Context) error {
	return ed.boundary(ctx, ed.History.Redo, ErrNothingToRedo, "nothing to redo")
}

func (ed *Editor) boundary(ctx context.Context, move func(context.Context) error, boundaryErr error, msg string) error {
	var moveErr error
	err := ed.DB.Enqueue(ctx, func(ctx context.Context) error {
		moveErr = move(ctx)
		if errors.Is(moveErr, boundaryErr) {
			return nil
		}
		return moveErr
	}).Wait(ctx)
	if err != nil {
		return err
	}
	if errors.Is(moveErr, boundaryErr) {
		ed.log.InfoCtx(ctx, msg)
	}
	return moveErr
}

// Save persists the committed document into store.
func (ed *Editor) Save(ctx context.Context, store *geom.Store) error {
	return store.Save(ctx, ed.DB)
}

// Load replaces the live document from store and makes the loaded
// state the new history baseline.
func (ed *Editor) Load(ctx context.Context, store *geom.Store) error {
	if err := store.Load(ctx, ed.DB); err != nil {
		return err
	}
	ed.Selection.Clear()
	ed.Snaps.restore(&SnapMemento{})
	ed.Curves.restore(&CurvesMemento{})
	ed.Modifiers.Clear()
	baseline, err := ed.Originator.Snapshot(ctx)
	if err != nil {
		return err
	}
	ed.History.Reset(baseline)
	return nil
}

// Close refuses further document operations. In-flight queue entries
// still run.
func (ed *Editor) Close() error {
	ed.Signals.Close()
	return ed.DB.Close()
}
