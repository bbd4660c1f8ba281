package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	shmcp "github.com/deixis/shellcap/internal/mcp"
)

func (a *app) mcpCommand() *cobra.Command {
	var (
		httpAddr     string
		instructions bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the MCP server on stdio, or on HTTP with --http.

The server exposes sh_run and sh_inspect. When the client reports a file root
with a .shellcap file, its settings replace the local ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(cmd.OutOrStdout(), shmcp.Instructions)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.serve(ctx, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "Start HTTP server on address (e.g. :9090)")
	cmd.Flags().BoolVar(&instructions, "instructions", false, "Print model instructions and exit")
	return cmd
}

func (a *app) serve(ctx context.Context, httpAddr string) error {
	server := shmcp.NewServer(a.newRunner(), a.newStore(),
		shmcp.WithLogger(a.logger),
		shmcp.WithRoots(),
	)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	if err := detachStdin(); err != nil {
		return err
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// detachStdin moves the stdio transport off fd 0 and points fd 0 at
// /dev/null, so commands started by sh_run cannot consume protocol input.
func detachStdin() error {
	fd, err := unix.FcntlInt(os.Stdin.Fd(), unix.F_DUPFD_CLOEXEC, 3)
	if err != nil {
		return fmt.Errorf("duplicating stdin: %w", err)
	}
	null, err := unix.Open(os.DevNull, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer unix.Close(null)
	if err := unix.Dup2(null, unix.Stdin); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("replacing stdin: %w", err)
	}
	os.Stdin = os.NewFile(uintptr(fd), "/dev/stdin")
	return nil
}
