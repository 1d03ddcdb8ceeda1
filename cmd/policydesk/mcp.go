package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/policydesk/pkg/adapters/mcp"
	"github.com/aretw0/policydesk/pkg/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the console to AI agents as MCP tools: list kinds, resolve and
invoke actions, and drive wizard runs.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("transport") {
			a.cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
		}
		if cmd.Flags().Changed("port") {
			a.cfg.MCP.Port, _ = cmd.Flags().GetInt("port")
		}

		console, err := a.console()
		if err != nil {
			return err
		}
		srv := mcp.NewServer(console, session.NewManager(session.WithLogger(a.logger)), a.logger)

		switch a.cfg.MCP.Transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			a.logger.Info("starting policydesk MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			a.logger.Info("starting policydesk MCP server (sse)", "port", a.cfg.MCP.Port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, a.cfg.MCP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", a.cfg.MCP.Transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse' (overrides mcp.transport)")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
