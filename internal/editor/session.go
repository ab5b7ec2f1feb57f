package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/channel"
	"github.com/bretbouchard/sandbox/internal/filetype"
	"github.com/bretbouchard/sandbox/internal/infrastructure/config"
	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/session"
	"github.com/bretbouchard/sandbox/internal/types"
)

var (
	// ErrNoActiveTab is returned by operations that need an open file
	ErrNoActiveTab = errors.New("no active tab")
	// ErrContentPending is returned when saving a file whose text has not
	// arrived yet
	ErrContentPending = errors.New("file content not loaded")
	// ErrSessionClosed is returned by operations on a closed session
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownFile is returned for an id that is neither open nor in the tree
	ErrUnknownFile = errors.New("unknown file")
)

// InvalidFileName is the notice shown for a rejected rename
const InvalidFileName = "Invalid file name."

// LayoutStore persists the tab layout between sessions
type LayoutStore interface {
	Load(userID, sandboxID string) (*session.Layout, error)
	Save(userID, sandboxID string, layout *session.Layout) error
}

// Options configures a Session
type Options struct {
	UserID    string
	SandboxID string

	SaveKey     Chord
	GenerateKey Chord
	ZoneHeight  int

	// Names validates renames and new nodes; nil applies ValidateName only
	Names *NameValidator
	// Layouts restores and saves tabs; nil disables layout persistence
	Layouts  LayoutStore
	Registry *Registry
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
}

// OptionsFromConfig maps the workspace and editor config sections
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	save, err := ParseChord(cfg.Editor.SaveKey)
	if err != nil {
		return Options{}, fmt.Errorf("save key: %w", err)
	}
	generate, err := ParseChord(cfg.Editor.GenerateKey)
	if err != nil {
		return Options{}, fmt.Errorf("generate key: %w", err)
	}
	names, err := NewNameValidator(cfg.Editor.ProtectedNames)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		UserID:      cfg.Workspace.UserID,
		SandboxID:   cfg.Workspace.SandboxID,
		SaveKey:     save,
		GenerateKey: generate,
		ZoneHeight:  cfg.Editor.ZoneHeight,
		Names:       names,
	}
	if cfg.Editor.LayoutDir != "" {
		opts.Layouts = session.NewManager(cfg.Editor.LayoutDir)
	}
	return opts, nil
}

// Session ties the tab store, content cache, decorations and file tree
// to one remote channel and one widget.
//
// A Session is not safe for concurrent use. Every method, and every
// channel callback, must run on the same execution context; the channel's
// Executor and eventloop.Loop.Do provide that.
type Session struct {
	remote   Remote
	surface  Surface
	keys     KeySource
	observer Observer

	opts    Options
	logger  *logging.Logger
	metrics *monitoring.Metrics
	names   *NameValidator

	store       *Store
	cache       *ContentCache
	tree        *Tree
	decorations *Controller
	dispatcher  *Dispatcher

	subs      []channel.Subscription
	listeners []Disposable

	// drafts holds text typed into a tab before its content arrived
	drafts map[string]string

	started   bool
	closed    bool
	connected bool
	loaded    bool
	applying  bool // set while the session itself replaces the widget text
}

// NewSession creates a session. Nothing is connected until Start.
func NewSession(remote Remote, surface Surface, keys KeySource, observer Observer, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.SaveKey.Key == "" {
		opts.SaveKey = MustParseChord("mod+s")
	}
	if opts.GenerateKey.Key == "" {
		opts.GenerateKey = MustParseChord("mod+g")
	}
	names := opts.Names
	if names == nil {
		names = &NameValidator{}
	}
	logger := opts.Logger.Component("editor").Sandbox(opts.UserID, opts.SandboxID)

	return &Session{
		remote:      remote,
		surface:     surface,
		keys:        keys,
		observer:    observer,
		opts:        opts,
		logger:      logger,
		metrics:     opts.Metrics,
		names:       names,
		drafts:      make(map[string]string),
		store:       NewStore(),
		cache:       NewContentCache(),
		tree:        NewTree(opts.SandboxID, logger),
		decorations: NewController(surface, opts.ZoneHeight, opts.Metrics),
		dispatcher:  NewDispatcher(surface, keys, opts.Registry, opts.SaveKey, opts.GenerateKey),
	}
}

// Start subscribes to the workspace, installs the key bindings and widget
// listeners, and connects the channel.
func (s *Session) Start(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.started {
		return nil
	}

	s.subs = append(s.subs,
		s.remote.On(types.EventLoaded, s.handleLoaded),
		s.remote.On(types.EventConnect, func([]json.RawMessage) { s.connected = true }),
		s.remote.On(types.EventDisconnect, s.handleDisconnect),
	)

	if err := s.dispatcher.Attach(
		func() {
			// the notice already reports the failure to the user
			if err := s.Save(); err != nil {
				s.logger.Debug("Save shortcut failed", zap.Error(err))
			}
		},
		func() { s.ToggleGenerate() },
	); err != nil {
		s.release()
		return err
	}

	s.listeners = append(s.listeners,
		s.surface.OnCursorChange(s.CursorMoved),
		s.surface.OnContentChange(s.Edited),
	)
	s.started = true

	if err := s.remote.Connect(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	s.logger.Info("Editor session started")
	return nil
}

// Close saves the tab layout, releases every binding and subscription, and
// disconnects. Replies that arrive afterwards are ignored.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.saveLayout()
	s.release()
	s.decorations.Dispose()
	s.metrics.SetTabsOpen(0)

	err := s.remote.Disconnect()
	s.logger.Info("Editor session closed")
	return err
}

func (s *Session) release() {
	s.dispatcher.Detach()
	for i := len(s.listeners) - 1; i >= 0; i-- {
		s.listeners[i].Dispose()
	}
	s.listeners = nil
	for _, sub := range s.subs {
		s.remote.Off(sub)
	}
	s.subs = nil
}

// SelectFile opens a file in a tab and shows it. Selecting the active tab
// does nothing; selecting another open tab shows its retained text without
// a fetch.
func (s *Session) SelectFile(id, name string) {
	if s.closed || id == "" || s.store.Active() == id {
		return
	}
	if tab, ok := s.store.Get(id); ok {
		name = tab.Name
	} else if name == "" {
		if node, ok := s.tree.Find(id); ok {
			name = node.Name
		}
	}
	s.switchTo(id, name)
}

// switchTo makes id the active tab, opening it if needed.
func (s *Session) switchTo(id, name string) {
	s.leaveActive()

	s.store.Open(id, name)
	ticket, fetch := s.cache.Activate(id)

	text, ok := s.cache.Text(id)
	if !ok {
		text = s.drafts[id]
	}
	s.show(language(name, text), text)
	s.publishTabs()

	if fetch {
		s.fetch(ticket, name)
	}
}

// leaveActive keeps the widget's text for the tab being left and removes
// overlays tied to it.
func (s *Session) leaveActive() {
	if prev := s.store.Active(); prev != "" {
		s.cache.Retain(prev, s.surface.Value())
	}
	s.decorations.CloseZone()
	s.decorations.Reset()
}

func (s *Session) selectNone() {
	s.leaveActive()
	s.store.SetActive("")
	s.cache.Activate("")
	s.show(filetype.PlainText, "")
}

func (s *Session) show(lang, text string) {
	s.applying = true
	defer func() { s.applying = false }()
	s.surface.SetLanguage(lang)
	s.surface.SetValue(text)
}

func language(name, text string) string {
	return filetype.Detect(name, []byte(text)).Language
}

func (s *Session) fetch(t Ticket, name string) {
	s.logger.Debug("Fetching file", zap.String("file_id", t.FileID))
	s.remote.Request(types.EventGetFile, func(args []json.RawMessage, err error) {
		s.onFetched(t, name, args, err)
	}, t.FileID)
}

func (s *Session) onFetched(t Ticket, name string, args []json.RawMessage, err error) {
	if s.closed {
		return
	}

	var text string
	if err == nil {
		text, err = types.Arg[string](args, 0)
	}
	if err != nil {
		if s.cache.Fail(t) {
			s.logger.Warn("Failed to load file", zap.String("file_id", t.FileID), zap.Error(err))
			s.notify(SeverityError, fmt.Sprintf("Could not load %s.", name), err)
		}
		return
	}

	visible := s.cache.Resolve(t, text)
	if tab, ok := s.store.Get(t.FileID); ok {
		name = tab.Name
	}

	if draft, ok := s.drafts[t.FileID]; ok {
		if _, stored := s.cache.Text(t.FileID); stored {
			delete(s.drafts, t.FileID)
			s.keepDraft(t.FileID, name, draft, visible)
			return
		}
	}

	if !visible {
		s.logger.Debug("Discarding superseded file content", zap.String("file_id", t.FileID))
		s.metrics.IncFetchesSuperseded()
		return
	}
	s.show(language(name, text), text)
	s.decorations.Reset()
	if s.store.SetSaved(t.FileID, true) {
		s.publishTabs()
	}
}

// keepDraft puts text typed during a load in place of the fetched text.
// The tab stays unsaved until the user saves over the remote content.
func (s *Session) keepDraft(id, name, draft string, visible bool) {
	if visible {
		draft = s.surface.Value()
		s.surface.SetLanguage(language(name, draft))
	}
	s.cache.Retain(id, draft)
	s.logger.Info("Kept edits made while loading", zap.String("file_id", id))
	s.notify(SeverityInfo, fmt.Sprintf("Kept edits made while %s was loading. Save to replace the stored file.", name), nil)
}

// CloseTab closes a tab. The successor is fully selected before the tab is
// removed. Closing an unknown tab does nothing.
func (s *Session) CloseTab(id string) {
	if s.closed || s.store.Index(id) < 0 {
		return
	}

	next := s.store.NextActive(id)
	if next != s.store.Active() {
		if next == "" {
			s.selectNone()
		} else {
			tab, _ := s.store.Get(next)
			s.switchTo(tab.ID, tab.Name)
		}
	}

	s.store.Remove(id)
	s.cache.Evict(id)
	delete(s.drafts, id)
	s.publishTabs()
}

// RenameTab renames a file from its tab or from the tree. An invalid name
// is rejected with a warning notice before anything changes or is sent. An
// open tab follows the rename.
func (s *Session) RenameTab(id, newName string) error {
	if s.closed {
		return ErrSessionClosed
	}
	oldName, err := s.fileName(id)
	if err != nil {
		return fmt.Errorf("rename %q: %w", id, err)
	}
	if err := s.names.Validate(newName, oldName, types.NodeFile); err != nil {
		s.notify(SeverityWarning, InvalidFileName, err)
		return err
	}

	if err := s.remote.Emit(types.EventRenameFile, id, newName); err != nil {
		s.notify(SeverityError, fmt.Sprintf("Could not rename %s.", oldName), err)
		return fmt.Errorf("rename %s: %w", oldName, err)
	}

	if s.tree.Rename(id, newName) {
		s.observer.TreeChanged(s.tree.Nodes())
	}
	if !s.store.Rename(id, newName) {
		return nil
	}
	if s.store.Active() == id {
		s.surface.SetLanguage(language(newName, s.surface.Value()))
	}
	s.publishTabs()
	return nil
}

func (s *Session) fileName(id string) (string, error) {
	if tab, ok := s.store.Get(id); ok {
		return tab.Name, nil
	}
	if node, ok := s.tree.Find(id); ok && !node.IsFolder() {
		return node.Name, nil
	}
	return "", ErrUnknownFile
}

// Edited marks the active tab unsaved after a user edit
func (s *Session) Edited() {
	if s.closed || s.applying {
		return
	}
	active := s.store.Active()
	if active == "" {
		return
	}
	if _, loaded := s.cache.Text(active); !loaded {
		s.drafts[active] = s.surface.Value()
	}
	if s.store.SetSaved(active, false) {
		s.publishTabs()
	}
}

// Save sends the widget's full text for the active tab and marks it saved.
// If the message cannot be sent the tab is marked unsaved again.
func (s *Session) Save() error {
	if s.closed {
		return ErrSessionClosed
	}
	tab, ok := s.store.ActiveTab()
	if !ok {
		return ErrNoActiveTab
	}
	if _, loaded := s.cache.Text(tab.ID); !loaded {
		s.notify(SeverityWarning, fmt.Sprintf("%s is still loading.", tab.Name), ErrContentPending)
		return fmt.Errorf("save %s: %w", tab.Name, ErrContentPending)
	}

	content := s.surface.Value()
	s.cache.Retain(tab.ID, content)
	s.store.SetSaved(tab.ID, true)

	if err := s.remote.Emit(types.EventSaveFile, tab.ID, content); err != nil {
		s.store.SetSaved(tab.ID, false)
		s.metrics.RecordSave(monitoring.OutcomeError)
		s.logger.Error("Failed to save file", zap.String("file_id", tab.ID), zap.Error(err))
		s.notify(SeverityError, fmt.Sprintf("Could not save %s.", tab.Name), err)
		s.publishTabs()
		return fmt.Errorf("save %s: %w", tab.Name, err)
	}

	s.metrics.RecordSave(monitoring.OutcomeOK)
	s.publishTabs()
	return nil
}

// DeleteFile asks the workspace to delete a file. Once confirmed the tree
// is replaced with the returned snapshot and the tab is closed; on failure
// both are kept.
func (s *Session) DeleteFile(id string) {
	if s.closed {
		return
	}
	s.remote.Request(types.EventDeleteFile, func(args []json.RawMessage, err error) {
		if s.closed {
			return
		}
		var tree []types.Node
		if err == nil {
			tree, err = types.Arg[[]types.Node](args, 0)
		}
		if err != nil {
			s.logger.Warn("Failed to delete file", zap.String("file_id", id), zap.Error(err))
			s.notify(SeverityError, "Could not delete file.", err)
			return
		}
		s.replaceTree(tree)
		s.CloseTab(id)
	}, id)
}

// DeleteFolder is not supported by the workspace.
func (s *Session) DeleteFolder(id string) error {
	err := s.tree.DeleteFolder(id)
	s.notify(SeverityError, "Deleting folders is not supported.", err)
	return err
}

// AddNew creates a node at the sandbox root. Files appear in the tree
// immediately; folders are not supported.
func (s *Session) AddNew(name string, kind types.NodeType) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.names.Validate(name, "", kind); err != nil {
		s.notify(SeverityWarning, fmt.Sprintf("Invalid %s name.", kind), err)
		return err
	}

	if kind == types.NodeFolder {
		err := s.tree.AddFolder(name)
		s.notify(SeverityError, "Creating folders is not supported.", err)
		return err
	}

	node, err := s.tree.AddFile(name)
	if err != nil {
		s.notify(SeverityWarning, InvalidFileName, err)
		return err
	}
	s.observer.TreeChanged(s.tree.Nodes())

	if err := s.remote.Emit(types.EventCreateFile, name); err != nil {
		s.logger.Warn("Failed to send new file", zap.String("file_id", node.ID), zap.Error(err))
		s.notify(SeverityError, fmt.Sprintf("Could not create %s.", name), err)
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

// CursorMoved updates the end-of-line hint
func (s *Session) CursorMoved(pos Position) {
	if s.closed {
		return
	}
	s.decorations.CursorMoved(pos)
}

// ToggleGenerate opens or closes the generate zone and reports whether it
// is open
func (s *Session) ToggleGenerate() bool {
	if s.closed {
		return false
	}
	return s.decorations.ToggleGenerate()
}

// RunCommand runs a registered command by id
func (s *Session) RunCommand(id string) error {
	return s.dispatcher.Registry().Run(id)
}

func (s *Session) handleLoaded(args []json.RawMessage) {
	if s.closed {
		return
	}
	tree, err := types.Arg[[]types.Node](args, 0)
	if err != nil {
		s.logger.Warn("Ignoring malformed tree snapshot", zap.Error(err))
		return
	}
	s.replaceTree(tree)
	s.logger.Debug("Tree loaded", zap.Int("files", types.CountFiles(tree)))

	if !s.loaded {
		s.loaded = true
		s.restoreLayout()
	}
}

func (s *Session) handleDisconnect(args []json.RawMessage) {
	s.connected = false
	if s.closed {
		return
	}
	reason, _ := types.Arg[string](args, 0)
	if reason == channel.ReasonTransport {
		s.notify(SeverityWarning, "Connection to the workspace was lost. Reconnecting.", nil)
	}
}

func (s *Session) replaceTree(tree []types.Node) {
	s.tree.Replace(tree)
	s.observer.TreeChanged(s.tree.Nodes())
}

func (s *Session) restoreLayout() {
	if s.opts.Layouts == nil || s.store.Len() > 0 {
		return
	}
	layout, err := s.opts.Layouts.Load(s.opts.UserID, s.opts.SandboxID)
	if err != nil {
		s.logger.Warn("Failed to load tab layout", zap.Error(err))
		return
	}
	if layout == nil {
		return
	}

	var active Tab
	for _, ref := range layout.Tabs {
		node, ok := s.tree.Find(ref.ID)
		if !ok || node.IsFolder() {
			continue
		}
		s.store.Open(node.ID, node.Name)
		if active.ID == "" || node.ID == layout.Active {
			active = Tab{ID: node.ID, Name: node.Name}
		}
	}
	if active.ID == "" {
		return
	}

	s.store.SetActive("")
	s.switchTo(active.ID, active.Name)
	s.metrics.IncLayoutsRestored()
	s.logger.Info("Restored tab layout", zap.Int("tabs", s.store.Len()))
}

func (s *Session) saveLayout() {
	if s.opts.Layouts == nil || !s.loaded {
		return
	}
	layout := &session.Layout{Active: s.store.Active()}
	for _, tab := range s.store.Tabs() {
		layout.Tabs = append(layout.Tabs, session.TabRef{ID: tab.ID, Name: tab.Name})
	}
	if err := s.opts.Layouts.Save(s.opts.UserID, s.opts.SandboxID, layout); err != nil {
		s.logger.Warn("Failed to save tab layout", zap.Error(err))
		return
	}
	s.metrics.IncLayoutsSaved()
}

func (s *Session) publishTabs() {
	s.metrics.SetTabsOpen(s.store.Len())
	s.observer.TabsChanged(s.store.Tabs(), s.store.Active())
}

func (s *Session) notify(severity Severity, message string, err error) {
	s.observer.Notify(Notice{Severity: severity, Message: message, Err: err})
}

// Tabs returns the open tabs in order
func (s *Session) Tabs() []Tab { return s.store.Tabs() }

// Active returns the active tab id, or ""
func (s *Session) Active() string { return s.store.Active() }

// Tree returns a copy of the file tree
func (s *Session) Tree() []types.Node { return s.tree.Nodes() }

// Text returns the retained text of an open file
func (s *Session) Text(id string) (string, bool) { return s.cache.Text(id) }

// Zone returns the generate zone state
func (s *Session) Zone() OverlayZone { return s.decorations.Zone() }

// Recomputes returns how often the end-of-line hint was recomputed
func (s *Session) Recomputes() int { return s.decorations.Recomputes() }

// Registry returns the command registry
func (s *Session) Registry() *Registry { return s.dispatcher.Registry() }

// Connected reports whether the channel's last lifecycle event was connect
func (s *Session) Connected() bool { return s.connected }
