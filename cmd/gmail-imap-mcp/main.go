// Gmail IMAP MCP server exposes a mailbox to MCP clients through four email tools.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/config"
	"github.com/hal9000y/gmail-imap-mcp/internal/logging"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/tool"
)

func main() {
	configFile := flag.String("config", "./config.json", "Path to JSON or YAML config file")
	envFileParam := flag.String("env-file", "", "Path to env file")
	enableStdio := flag.Bool("stdio", true, "Enable stdio transport for MCP")
	httpAddr := flag.String("http-addr", "", "HTTP server listen addr for streamable MCP on /mcp, empty to disable")
	logFile := flag.String("log-file", "", "Path to log file (stderr with stdio transport, otherwise stdout)")
	logLevel := flag.String("log-level", "", "Log level, overrides config")

	flag.Parse()

	if *envFileParam != "" {
		if err := config.LoadEnvFile(*envFileParam); err != nil {
			panic(fmt.Errorf("config.LoadEnvFile failed: %w", err))
		}
	}

	cfg, found, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Errorf("config.Load failed: %w", err))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log, persistLogs := setupLogger(*enableStdio, *logFile, cfg.LogLevel)
	defer persistLogs()

	if !found {
		log.Warn().Str("path", *configFile).Msg("config file not found, using defaults and environment")
	}
	if err := cfg.CheckCredentials(); err != nil {
		log.Warn().Err(err).Msg("tool calls will fail until credentials are configured")
	}
	if !*enableStdio && *httpAddr == "" {
		panic("at least one of -stdio or -http-addr must be enabled")
	}

	sess := mailbox.NewSession(cfg, log)
	defer func() {
		if err := sess.Close(); err != nil {
			log.Error().Err(err).Msg("sess.Close failed")
		}
	}()

	mailT := tool.NewServer(tool.NewGateway(sess, cfg.TrashMailbox, log))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	var errHTTPCh <-chan error
	if *httpAddr != "" {
		ln := mustListen(*httpAddr)

		mux := http.NewServeMux()
		mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mailT }, nil))

		var stopHTTP func()
		stopHTTP, errHTTPCh = serveHTTP(&http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}, ln, log)
		defer stopHTTP()
	}

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(mailT, log)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Error().Err(err).Msg("HTTP server failed")
	case err, ok := <-errStdioCh:
		if ok {
			log.Error().Err(err).Msg("stdio transport failed")
		} else {
			log.Info().Msg("stdio transport closed")
		}
	case <-shutdown:
		log.Info().Msg("Shutdown signal received")
	}
}

func serveStdio(srv *mcp.Server, log zerolog.Logger) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Info().Msg("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			errStdioCh <- fmt.Errorf("srv.Run failed: %w", err)
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Info().Msg("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener, log zerolog.Logger) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Info().Str("addr", ln.Addr().String()).Msg("Starting http server")

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errHTTPCh <- fmt.Errorf("srv.Serve failed: %w", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("srv.Shutdown failed")
		}

		<-errHTTPCh
		log.Info().Msg("HTTP server stopped")
	}, errHTTPCh
}

func mustListen(httpAddr string) net.Listener {
	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

// setupLogger keeps stdout free for the stdio transport.
func setupLogger(enableStdio bool, logFile, level string) (zerolog.Logger, func()) {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log := logging.New(f, level)

		return log, func() {
			if err := f.Close(); err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	var w io.Writer = os.Stdout
	if enableStdio {
		w = os.Stderr
	}

	return logging.New(w, level), func() {}
}
