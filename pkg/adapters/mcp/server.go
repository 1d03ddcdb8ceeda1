package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/session"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// Kind describes a registered assertion kind.
type Kind struct {
	Kind      string `json:"kind"`
	ShortName string `json:"short_name"`
	Composite bool   `json:"composite"`
	Editable  bool   `json:"editable"`
}

// KindsResponse lists the registered kinds.
type KindsResponse struct {
	Kinds []Kind `json:"kinds" jsonschema_description:"Registered assertion kinds, sorted"`
}

// Action is one resolved action of a node.
type Action struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Editing     bool   `json:"editing"`
}

// ActionsResponse lists the actions of a node, preferred action first.
type ActionsResponse struct {
	Path    string   `json:"path" jsonschema_description:"The node the actions apply to"`
	Actions []Action `json:"actions" jsonschema_description:"Resolved actions, preferred first"`
}

// PolicyResponse carries an encoded policy tree.
type PolicyResponse struct {
	Policy json.RawMessage `json:"policy" jsonschema_description:"The edited policy tree"`
}

// PolicyArgs addresses a node of an encoded policy.
type PolicyArgs struct {
	Policy string `json:"policy"`
	Path   string `json:"path"`
	Action string `json:"action,omitempty"`
}

// WizardArgs addresses a wizard run.
type WizardArgs struct {
	ID         string `json:"id"`
	Definition string `json:"definition,omitempty"`
	Action     string `json:"action,omitempty"`
	Values     string `json:"values,omitempty"`
}

// Server wraps the Console and exposes it as an MCP Server.
type Server struct {
	console   *policydesk.Console
	runs      *session.Manager
	codec     assertions.JSONCodec
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(console *policydesk.Console, runs *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		console:   console,
		runs:      runs,
		logger:    logger,
		mcpServer: server.NewMCPServer("policydesk-mcp", strings.TrimSpace(policydesk.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the assertion kinds known to the console."),
		mcp.WithOutputSchema[KindsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListKinds))

	s.mcpServer.AddTool(mcp.NewTool("resolve_actions",
		mcp.WithDescription("Resolve the actions offered on one node of a policy tree."),
		mcp.WithString("policy", mcp.Required(), mcp.Description("JSON policy tree ({kind, data, children})")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Node path such as 0.2.1")),
		mcp.WithOutputSchema[ActionsResponse](),
	), mcp.NewStructuredToolHandler(s.handleResolveActions))

	s.mcpServer.AddTool(mcp.NewTool("invoke_action",
		mcp.WithDescription("Apply a structural action (delete, move-up, add-all, ...) to a node and return the edited policy."),
		mcp.WithString("policy", mcp.Required(), mcp.Description("JSON policy tree")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Node path")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action id")),
		mcp.WithOutputSchema[PolicyResponse](),
	), mcp.NewStructuredToolHandler(s.handleInvokeAction))

	s.mcpServer.AddTool(mcp.NewTool("start_wizard",
		mcp.WithDescription("Start a wizard from a YAML or JSON definition."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Wizard definition")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleStartWizard))

	s.mcpServer.AddTool(mcp.NewTool("wizard_input",
		mcp.WithDescription("Set field values on the current step of a wizard run."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run id")),
		mcp.WithString("values", mcp.Required(), mcp.Description("JSON object of field name to value")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleInput))

	s.mcpServer.AddTool(mcp.NewTool("wizard_transition",
		mcp.WithDescription("Move a wizard run (next, back, finish, cancel) or ask for help on the current step."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run id")),
		mcp.WithString("action", mcp.Required(), mcp.Enum("next", "back", "finish", "cancel", "help")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleTransition))

	s.mcpServer.AddTool(mcp.NewTool("get_wizard",
		mcp.WithDescription("Render the current view of a wizard run."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run id")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleGetWizard))
}

// Handler methods for structured tools

func (s *Server) handleListKinds(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (KindsResponse, error) {
	reg := s.console.Registry()
	var resp KindsResponse
	for _, k := range reg.Kinds() {
		d := reg.MustLookup(k)
		resp.Kinds = append(resp.Kinds, Kind{
			Kind:      string(d.Kind),
			ShortName: d.ShortName,
			Composite: d.Composite,
			Editable:  d.EditorFactory != nil,
		})
	}
	return resp, nil
}

func (s *Server) handleResolveActions(ctx context.Context, request mcp.CallToolRequest, args PolicyArgs) (ActionsResponse, error) {
	_, node, err := s.find(args)
	if err != nil {
		return ActionsResponse{}, err
	}
	resp := ActionsResponse{Path: node.Path()}
	for _, a := range s.console.Actions(node) {
		resp.Actions = append(resp.Actions, Action{
			ID:          string(a.ID),
			Name:        a.Name,
			Description: a.Description,
			Editing:     a.Editing,
		})
	}
	return resp, nil
}

func (s *Server) handleInvokeAction(ctx context.Context, request mcp.CallToolRequest, args PolicyArgs) (PolicyResponse, error) {
	tree, node, err := s.find(args)
	if err != nil {
		return PolicyResponse{}, err
	}

	id := domain.ActionID(args.Action)
	offered := false
	for _, a := range s.console.Actions(node) {
		if a.ID == id {
			offered = true
			break
		}
	}
	if !offered {
		return PolicyResponse{}, fmt.Errorf("action '%s' is not available on '%s'", id, node.Path())
	}

	if err := tree.Apply(ctx, node, id); err != nil {
		s.logger.Warn("MCP InvokeAction failed", "action", id, "path", node.Path(), "error", err)
		return PolicyResponse{}, fmt.Errorf("invoke failed: %w", err)
	}
	data, err := s.codec.Encode(tree.Root().Assertion())
	if err != nil {
		return PolicyResponse{}, err
	}
	return PolicyResponse{Policy: data}, nil
}

func (s *Server) find(args PolicyArgs) (*assertions.Tree, *assertions.TreeNode, error) {
	a, err := s.codec.Decode([]byte(args.Policy))
	if err != nil {
		return nil, nil, err
	}
	root, ok := a.(domain.Composite)
	if !ok {
		return nil, nil, fmt.Errorf("policy root must be a composite, got '%s'", a.Kind())
	}
	tree := assertions.NewTree(root)
	node, err := tree.Find(args.Path)
	if err != nil {
		return nil, nil, err
	}
	return tree, node, nil
}

func (s *Server) handleStartWizard(ctx context.Context, request mcp.CallToolRequest, args WizardArgs) (session.View, error) {
	b, err := dsl.LoadYAML(strings.NewReader(args.Definition))
	if err != nil {
		return session.View{}, err
	}
	root, err := b.Chain()
	if err != nil {
		return session.View{}, err
	}

	notes := &ports.RecordingNotifier{}
	help := &session.HelpRecorder{}
	engine, err := s.console.NewWizard(root,
		wizard.WithTitle(b.Title()),
		wizard.WithNotifier(notes),
		wizard.WithHelp(help, ""),
	)
	if err != nil {
		return session.View{}, err
	}
	run := s.runs.Start(engine, notes, session.WithHelp(help))
	s.logger.Info("MCP wizard started", "run_id", run.ID, "wizard", engine.Title())
	return run.View(), nil
}

func (s *Server) handleInput(ctx context.Context, request mcp.CallToolRequest, args WizardArgs) (session.View, error) {
	var values map[string]string
	if err := json.Unmarshal([]byte(args.Values), &values); err != nil {
		return session.View{}, fmt.Errorf("values must be a JSON object of strings: %w", err)
	}
	return s.withRun(ctx, args.ID, func(ctx context.Context, run *session.Run) error {
		if run.Engine.Status() != wizard.StatusActive {
			return domain.ErrWizardTerminated
		}
		fs, ok := run.FormStep()
		if !ok {
			return errors.New("current step has no form fields")
		}
		return fs.SetInputs(values)
	})
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest, args WizardArgs) (session.View, error) {
	return s.withRun(ctx, args.ID, func(ctx context.Context, run *session.Run) error {
		var err error
		switch args.Action {
		case "next":
			_, err = run.Engine.Next(ctx)
		case "back":
			run.Engine.Back(ctx)
		case "finish":
			_, err = run.Engine.Finish(ctx)
		case "cancel":
			run.Engine.Cancel(ctx)
		case "help":
			run.Engine.Help()
		default:
			return fmt.Errorf("unknown transition '%s'", args.Action)
		}

		// The failed completion was reported through the run's notifier.
		var completion *wizard.CompletionError
		if errors.As(err, &completion) {
			return nil
		}
		return err
	})
}

func (s *Server) handleGetWizard(ctx context.Context, request mcp.CallToolRequest, args WizardArgs) (session.View, error) {
	return s.withRun(ctx, args.ID, func(ctx context.Context, run *session.Run) error { return nil })
}

func (s *Server) withRun(ctx context.Context, id string, fn func(ctx context.Context, run *session.Run) error) (session.View, error) {
	var view session.View
	err := s.runs.WithLock(ctx, id, func(ctx context.Context, run *session.Run) error {
		if err := fn(ctx, run); err != nil {
			return err
		}
		view = run.View()
		return nil
	})
	return view, err
}

func (s *Server) registerResources() {
	// EXPOSE: policydesk://kinds
	s.mcpServer.AddResource(mcp.NewResource("policydesk://kinds", "Registered assertion kinds",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		kinds, _ := s.handleListKinds(ctx, mcp.CallToolRequest{}, nil)
		jsonBytes, err := json.Marshal(kinds)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "policydesk://kinds",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
