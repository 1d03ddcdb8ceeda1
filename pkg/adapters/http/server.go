package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/session"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// maxBodySize bounds request bodies (wizard definitions and policy trees).
const maxBodySize = 1 << 20

// Server exposes the console over JSON/HTTP.
type Server struct {
	Console *policydesk.Console
	Runs    *session.Manager
	Streams *StreamManager

	codec  assertions.JSONCodec
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// ActionView is the JSON form of a resolved action.
type ActionView struct {
	ID          domain.ActionID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Editing     bool            `json:"editing"`
}

// KindView is the JSON form of a registered assertion kind.
type KindView struct {
	Kind        domain.Kind `json:"kind"`
	ShortName   string      `json:"short_name"`
	Description string      `json:"description,omitempty"`
	Composite   bool        `json:"composite"`
	Editable    bool        `json:"editable"`
}

// PolicyRequest addresses one node of an encoded policy tree.
type PolicyRequest struct {
	Policy json.RawMessage `json:"policy"`
	Path   string          `json:"path"`
	Action domain.ActionID `json:"action,omitempty"`
}

// TransitionEvent is broadcast to run subscribers after every transition.
type TransitionEvent struct {
	RunID   string        `json:"run_id"`
	Action  string        `json:"action"`
	Moved   bool          `json:"moved"`
	Status  wizard.Status `json:"status"`
	Index   int           `json:"index"`
	Changed []string      `json:"changed,omitempty"`
}

// NewHandler creates a new HTTP handler for the console.
func NewHandler(console *policydesk.Console, runs *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Console: console,
		Runs:    runs,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/kinds", s.ListKinds)
	r.Post("/actions", s.ResolveActions)
	r.Post("/actions/invoke", s.InvokeAction)
	r.Route("/wizards", func(r chi.Router) {
		r.Get("/", s.ListWizards)
		r.Post("/", s.StartWizard)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetWizard)
			r.Delete("/", s.DeleteWizard)
			r.Post("/input", s.SetInput)
			r.Post("/{transition}", s.Transition)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "policydesk-http",
		"version": strings.TrimSpace(policydesk.Version),
	})
}

// ListKinds handles the GET /kinds request.
func (s *Server) ListKinds(w http.ResponseWriter, r *http.Request) {
	reg := s.Console.Registry()
	kinds := reg.Kinds()
	out := make([]KindView, 0, len(kinds))
	for _, k := range kinds {
		d := reg.MustLookup(k)
		out = append(out, KindView{
			Kind:        d.Kind,
			ShortName:   d.ShortName,
			Description: d.Description,
			Composite:   d.Composite,
			Editable:    d.EditorFactory != nil,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ResolveActions handles the POST /actions request.
func (s *Server) ResolveActions(w http.ResponseWriter, r *http.Request) {
	_, node, ok := s.decodePolicy(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, actionViews(s.Console.Actions(node)))
}

// InvokeAction handles the POST /actions/invoke request. Only structural
// actions offered for the node are accepted; the edited policy is returned.
func (s *Server) InvokeAction(w http.ResponseWriter, r *http.Request) {
	req, tree, node, ok := s.decodeTree(w, r)
	if !ok {
		return
	}

	offered := slices.ContainsFunc(s.Console.Actions(node), func(a domain.Action) bool {
		return a.ID == req.Action
	})
	if !offered {
		http.Error(w, fmt.Sprintf("Action '%s' is not available on '%s'", req.Action, req.Path), http.StatusUnprocessableEntity)
		return
	}

	if err := tree.Apply(r.Context(), node, req.Action); err != nil {
		http.Error(w, fmt.Sprintf("Invoke error: %v", err), http.StatusUnprocessableEntity)
		s.logger.Warn("InvokeAction failed", "action", req.Action, "path", req.Path, "error", err)
		return
	}

	data, err := s.codec.Encode(tree.Root().Assertion())
	if err != nil {
		http.Error(w, fmt.Sprintf("Encode error: %v", err), http.StatusInternalServerError)
		s.logger.Error("InvokeAction encode failed", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) decodePolicy(w http.ResponseWriter, r *http.Request) (PolicyRequest, domain.Node, bool) {
	req, _, node, ok := s.decodeTree(w, r)
	return req, node, ok
}

func (s *Server) decodeTree(w http.ResponseWriter, r *http.Request) (PolicyRequest, *assertions.Tree, *assertions.TreeNode, bool) {
	var req PolicyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid policy request body", "error", err)
		return req, nil, nil, false
	}

	a, err := s.codec.Decode(req.Policy)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid policy: %v", err), http.StatusBadRequest)
		return req, nil, nil, false
	}
	root, ok := a.(domain.Composite)
	if !ok {
		http.Error(w, fmt.Sprintf("Policy root must be a composite, got '%s'", a.Kind()), http.StatusBadRequest)
		return req, nil, nil, false
	}

	tree := assertions.NewTree(root)
	node, err := tree.Find(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return req, nil, nil, false
	}
	return req, tree, node, true
}

// ListWizards handles the GET /wizards request.
func (s *Server) ListWizards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Runs.List())
}

// StartWizard handles the POST /wizards request. The body is a wizard
// definition in YAML or JSON.
func (s *Server) StartWizard(w http.ResponseWriter, r *http.Request) {
	b, err := dsl.LoadYAML(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Warn("StartWizard: invalid definition", "error", err)
		return
	}
	root, err := b.Chain()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	notes := &ports.RecordingNotifier{}
	help := &session.HelpRecorder{}
	engine, err := s.Console.NewWizard(root,
		wizard.WithTitle(b.Title()),
		wizard.WithNotifier(notes),
		wizard.WithHelp(help, ""),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	run := s.Runs.Start(engine, notes, session.WithHelp(help))
	s.logger.Info("Wizard started", "run_id", run.ID, "wizard", engine.Title())

	s.writeJSON(w, http.StatusCreated, run.View())
}

// GetWizard handles the GET /wizards/{id} request.
func (s *Server) GetWizard(w http.ResponseWriter, r *http.Request) {
	s.withRun(w, r, func(ctx context.Context, run *session.Run) (int, error) {
		return http.StatusOK, nil
	})
}

// DeleteWizard handles the DELETE /wizards/{id} request.
func (s *Server) DeleteWizard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Runs.Remove(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// SetInput handles the POST /wizards/{id}/input request: a JSON object of
// field name to value for the current step.
func (s *Server) SetInput(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&values); err != nil {
		http.Error(w, "Invalid input format: expected an object of strings", http.StatusBadRequest)
		s.logger.Warn("SetInput: invalid request body", "error", err)
		return
	}

	s.withRun(w, r, func(ctx context.Context, run *session.Run) (int, error) {
		if run.Engine.Status() != wizard.StatusActive {
			return http.StatusConflict, domain.ErrWizardTerminated
		}
		fs, ok := run.FormStep()
		if !ok {
			return http.StatusUnprocessableEntity, errors.New("current step has no form fields")
		}
		if err := fs.SetInputs(values); err != nil {
			return http.StatusUnprocessableEntity, err
		}
		return http.StatusOK, nil
	})
}

// Transition handles POST /wizards/{id}/{next|back|finish|cancel}.
// A refused move still answers 200; the view carries the reason.
func (s *Server) Transition(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "transition")

	s.withRun(w, r, func(ctx context.Context, run *session.Run) (int, error) {
		before := domain.NewSettings(nil)
		if cur := run.Engine.Settings(); cur != nil {
			before = cur.Clone()
		}

		var (
			moved bool
			err   error
		)
		switch action {
		case "next":
			moved, err = run.Engine.Next(ctx)
		case "back":
			moved = run.Engine.Back(ctx)
		case "finish":
			moved, err = run.Engine.Finish(ctx)
		case "cancel":
			moved = run.Engine.Status() == wizard.StatusActive
			run.Engine.Cancel(ctx)
		case "help":
			run.Engine.Help()
		default:
			return http.StatusNotFound, fmt.Errorf("unknown transition '%s'", action)
		}

		s.broadcast(run, action, moved, before)

		var completion *wizard.CompletionError
		switch {
		case errors.Is(err, domain.ErrWizardTerminated):
			return http.StatusConflict, err
		case errors.As(err, &completion):
			return http.StatusUnprocessableEntity, nil
		case err != nil:
			return http.StatusInternalServerError, err
		}
		return http.StatusOK, nil
	})
}

func (s *Server) broadcast(run *session.Run, action string, moved bool, before *domain.Settings) {
	ev := TransitionEvent{
		RunID:  run.ID,
		Action: action,
		Moved:  moved,
		Status: run.Engine.Status(),
		Index:  run.Engine.Index(),
	}
	if after := run.Engine.Settings(); after != nil {
		for k := range domain.Diff(before, after) {
			ev.Changed = append(ev.Changed, k)
		}
		slices.Sort(ev.Changed)
	}
	s.Streams.Broadcast(ev)
}

// withRun locks the run named in the URL, applies fn and answers with the
// run's view. fn returns the status to answer with; a non-nil error turns
// the answer into a plain error message.
func (s *Server) withRun(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, run *session.Run) (int, error)) {
	id := chi.URLParam(r, "id")

	var (
		status int
		view   session.View
	)
	err := s.Runs.WithLock(r.Context(), id, func(ctx context.Context, run *session.Run) error {
		code, err := fn(ctx, run)
		status = code
		if err != nil {
			return err
		}
		view = run.View()
		return nil
	})

	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		http.Error(w, fmt.Sprintf("Wizard run '%s' not found", id), http.StatusNotFound)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), status)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Wizard request failed", "run_id", id, "error", err)
		}
		return
	}
	s.writeJSON(w, status, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

func actionViews(list []domain.Action) []ActionView {
	out := make([]ActionView, len(list))
	for i, a := range list {
		out[i] = ActionView{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Editing:     a.Editing,
		}
	}
	return out
}
