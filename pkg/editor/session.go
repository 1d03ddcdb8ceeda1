package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
)

// ErrSessionClosed is returned when a confirmed or cancelled session is used again.
var ErrSessionClosed = errors.New("editor session is closed")

// ErrReadOnly is returned when a read-only session is asked to change a field.
var ErrReadOnly = errors.New("editor is read-only")

// Result is the dialog outcome.
type Result int

const (
	ResultNone Result = iota
	ResultConfirmed
	ResultCancelled
)

func (r Result) String() string {
	switch r {
	case ResultConfirmed:
		return "confirmed"
	case ResultCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// SessionConfig holds the dialog flags fixed at construction.
type SessionConfig struct {
	Title           string
	Modal           bool
	EscapeDismisses bool
	ReadOnly        bool
}

type sessionOptions struct {
	notifier  ports.Notifier
	store     ports.AssertionStore
	storeID   string
	onConfirm []func(context.Context, domain.Assertion)
	logger    *slog.Logger
}

// SessionOption configures optional collaborators of a Session.
type SessionOption func(*sessionOptions)

// WithNotifier sets where validation messages are reported.
func WithNotifier(n ports.Notifier) SessionOption {
	return func(o *sessionOptions) {
		o.notifier = n
	}
}

// WithStore commits the confirmed object to store under id.
func WithStore(store ports.AssertionStore, id string) SessionOption {
	return func(o *sessionOptions) {
		o.store = store
		o.storeID = id
	}
}

// WithOnConfirm registers a callback run after a successful confirm.
func WithOnConfirm(fn func(ctx context.Context, obj domain.Assertion)) SessionOption {
	return func(o *sessionOptions) {
		o.onConfirm = append(o.onConfirm, fn)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// Session runs one PropertyEditor against one domain object.
// It is not safe for concurrent use.
type Session[T domain.Assertion] struct {
	cfg       SessionConfig
	editor    PropertyEditor[T]
	obj       T
	confirmed T
	result    Result
	message   string
	opts      sessionOptions
}

// NewSession binds editor to obj and populates the form.
// A nil obj or editor is a *domain.ConfigurationError.
func NewSession[T domain.Assertion](cfg SessionConfig, editor PropertyEditor[T], obj T, opts ...SessionOption) (*Session[T], error) {
	if isNil(editor) {
		return nil, &domain.ConfigurationError{Component: "editor", Reason: "property editor is nil"}
	}
	if isNil(obj) {
		return nil, &domain.ConfigurationError{Component: "editor", Reason: "domain object is nil"}
	}

	s := &Session[T]{
		cfg:    cfg,
		editor: editor,
		obj:    obj,
		opts: sessionOptions{
			notifier: ports.NopNotifier{},
			logger:   logging.NewNop(),
		},
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	if s.cfg.Title == "" {
		s.cfg.Title = string(obj.Kind())
	}

	editor.SetData(obj)
	return s, nil
}

// Confirm commits the form. It returns false with a nil error when the form
// is invalid or the session is read-only; the session stays open.
func (s *Session[T]) Confirm(ctx context.Context) (bool, error) {
	if s.result != ResultNone {
		return false, ErrSessionClosed
	}
	if s.cfg.ReadOnly {
		return false, nil
	}

	// GetData writes into the bound object; roll it back unless the commit lands.
	rollback := snapshotOf(s.obj)
	updated, err := s.editor.GetData(s.obj)
	if err != nil {
		rollback()
		ve, ok := domain.AsValidation(err)
		if !ok {
			return false, fmt.Errorf("failed to read %s editor: %w", s.obj.Kind(), err)
		}
		s.message = ve.Message
		s.opts.logger.Debug("editor content rejected", "kind", s.obj.Kind(), "field", ve.Field, "err", err)
		s.opts.notifier.NotifyError(s.cfg.Title, ve.Message)
		return false, nil
	}

	if s.opts.store != nil {
		if err := s.opts.store.Save(ctx, s.opts.storeID, updated); err != nil {
			rollback()
			s.opts.logger.Warn("failed to commit assertion", "kind", s.obj.Kind(), "id", s.opts.storeID, "err", err)
			return false, fmt.Errorf("failed to save %s: %w", s.obj.Kind(), err)
		}
	}

	s.message = ""
	s.confirmed = updated
	s.result = ResultConfirmed
	s.opts.logger.Debug("editor confirmed", "kind", s.obj.Kind(), "title", s.cfg.Title)

	for _, fn := range s.opts.onConfirm {
		fn(ctx, updated)
	}
	return true, nil
}

// Cancel closes the dialog without touching the object.
func (s *Session[T]) Cancel(ctx context.Context) {
	if s.result != ResultNone {
		return
	}
	s.result = ResultCancelled
	s.opts.logger.Debug("editor cancelled", "kind", s.obj.Kind(), "title", s.cfg.Title)
}

// Escape cancels when the session was configured to dismiss on escape.
func (s *Session[T]) Escape(ctx context.Context) bool {
	if !s.cfg.EscapeDismisses || s.result != ResultNone {
		return false
	}
	s.Cancel(ctx)
	return true
}

// Rebind points the session at another object and re-syncs the form.
func (s *Session[T]) Rebind(obj T) error {
	if s.cfg.ReadOnly {
		return domain.ErrReadOnlyRebind
	}
	if s.result != ResultNone {
		return ErrSessionClosed
	}
	if isNil(obj) {
		return &domain.ConfigurationError{Component: "editor", Reason: "domain object is nil"}
	}
	s.obj = obj
	s.message = ""
	s.editor.SetData(obj)
	return nil
}

// Data returns the confirmed object.
func (s *Session[T]) Data() (T, bool) {
	return s.confirmed, s.result == ResultConfirmed
}

// Editor returns the bound editor.
func (s *Session[T]) Editor() PropertyEditor[T] { return s.editor }

func (s *Session[T]) Title() string             { return s.cfg.Title }
func (s *Session[T]) Kind() domain.Kind         { return s.obj.Kind() }
func (s *Session[T]) ReadOnly() bool            { return s.cfg.ReadOnly }
func (s *Session[T]) Modal() bool               { return s.cfg.Modal }
func (s *Session[T]) IsConfirmed() bool         { return s.result == ResultConfirmed }
func (s *Session[T]) DialogResult() Result      { return s.result }
func (s *Session[T]) ValidationMessage() string { return s.message }

// ConfirmEnabled reports whether the confirm control should be enabled.
func (s *Session[T]) ConfirmEnabled() bool {
	if s.cfg.ReadOnly || s.result != ResultNone {
		return false
	}
	if c, ok := any(s.editor).(Checker); ok {
		return c.Validate() == nil
	}
	return true
}

// Fields lists the editor's form fields, if it exposes any.
func (s *Session[T]) Fields() []Field {
	if fs, ok := any(s.editor).(FieldSource); ok {
		return fs.Fields()
	}
	return nil
}

// SetField changes one form field.
func (s *Session[T]) SetField(name, value string) error {
	if s.cfg.ReadOnly {
		return ErrReadOnly
	}
	if s.result != ResultNone {
		return ErrSessionClosed
	}
	fs, ok := any(s.editor).(FieldSource)
	if !ok {
		return fmt.Errorf("%s editor has no addressable fields", s.obj.Kind())
	}
	return fs.SetField(name, value)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// snapshotOf copies the value behind a pointer and returns a func that puts
// it back. Non-pointer objects cannot be mutated in place and need no copy.
func snapshotOf(obj any) func() {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return func() {}
	}
	saved := reflect.New(rv.Elem().Type()).Elem()
	saved.Set(rv.Elem())
	return func() { rv.Elem().Set(saved) }
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
