// Command rebootcmds replays deferred commands on boot and exposes their
// status to host-management agents.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/deixis/rebootcmds"
	"github.com/deixis/rebootcmds/internal/config"
	"github.com/deixis/rebootcmds/internal/logging"
	rbmcp "github.com/deixis/rebootcmds/internal/mcp"
	"github.com/deixis/rebootcmds/internal/reboot"
	"github.com/deixis/rebootcmds/internal/report"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(reboot.ExitConfig)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var code int
	switch cmd {
	case "run":
		code = runMain(args, os.Stdout)
	case "status":
		code = statusMain(args, os.Stdout)
	case "mcp":
		code = mcpMain(args)
	case "schema":
		code = schemaMain(os.Stdout)
	case "version":
		fmt.Println(rebootcmds.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "rebootcmds: unknown command %q\n", cmd)
		usage()
		code = reboot.ExitConfig
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: rebootcmds <command> [flags]

Commands:
  run         Replay deferred commands if the marker is present
  status      Show the marker state and the configured commands
  mcp         Start the MCP server
  schema      Print the JSON schema of the configuration file
  version     Print the version
  help        Show this help

Use "rebootcmds <command> -h" for command-specific flags.`)
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "rebootcmds: %v\n", err)
	return reboot.ExitStatus(err)
}

// --- run ---

func runMain(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "configuration file")
	jsonFlag := fs.Bool("json", false, "print the run report as JSON")
	verboseFlag := fs.Bool("v", false, "print the captured output of every command")
	_ = fs.Parse(args)

	cfg, log, closer, err := setup(*cfgPath)
	if err != nil {
		return fail(err)
	}
	defer closer.Close()

	// Not cancellable: each deferred command runs to natural completion.
	run, err := reboot.New(cfg, log).Process(context.Background())

	if *jsonFlag {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(run); encErr != nil {
			log.Error().Err(encErr).Msg("encoding run report")
		}
	} else if run.Pending || *verboseFlag {
		fmt.Fprint(stdout, report.Format(run, *verboseFlag))
	}

	return reboot.ExitStatus(err)
}

// --- status ---

func statusMain(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "configuration file")
	jsonFlag := fs.Bool("json", false, "print the status as JSON")
	_ = fs.Parse(args)

	cfg, log, closer, err := setup(*cfgPath)
	if err != nil {
		return fail(err)
	}
	defer closer.Close()

	st := reboot.New(cfg, log).Status()
	if *jsonFlag {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return fail(err)
		}
		return reboot.ExitOK
	}
	fmt.Fprint(stdout, st.Format())
	return reboot.ExitOK
}

// --- mcp ---

func mcpMain(args []string) int {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "configuration file")
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	runDir := fs.String("run-dir", "", "directory for stored run reports (default: a fresh temp dir)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(rbmcp.Instructions)
		return reboot.ExitOK
	}

	cfg, log, closer, err := setup(*cfgPath)
	if err != nil {
		return fail(err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := rbmcp.NewServer(cfg, log, report.NewDiskStore(*runDir))

	if *httpAddr != "" {
		err = serveHTTP(ctx, server, *httpAddr, log)
	} else {
		err = server.Run(ctx, &mcpsdk.StdioTransport{})
	}
	if err != nil {
		return fail(err)
	}
	return reboot.ExitOK
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, log zerolog.Logger) error {
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

	log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- schema ---

func schemaMain(stdout io.Writer) int {
	data, err := config.Schema()
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, string(data))
	return reboot.ExitOK
}

// --- shared ---

// setup loads the configuration and builds the logger every subcommand
// shares. Environment overrides win over the file.
func setup(path string) (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("loading config: %w", err)
	}

	opts := cfg.LogOptions()
	logging.ApplyEnv(&opts)
	log, closer, err := logging.New(opts)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return cfg, log, closer, nil
}
