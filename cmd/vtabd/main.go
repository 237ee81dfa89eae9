// Command vtabd serves the built-in tables to DuckDB through the Airport extension.
//
//	vtabd --listen 127.0.0.1:50051 --table processes --table environment
//
// and in DuckDB:
//
//	INSTALL airport FROM community; LOAD airport;
//	ATTACH '' AS host (TYPE airport, LOCATION 'grpc://127.0.0.1:50051');
//	SELECT pid, name FROM host.main.processes WHERE pid = 1;
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	vtable "github.com/hugr-lab/airport-vtable"
	"github.com/hugr-lab/airport-vtable/catalog"
	"github.com/hugr-lab/airport-vtable/plugins"
	"github.com/hugr-lab/airport-vtable/registry"
)

const (
	defaultListen = "127.0.0.1:50051"
	defaultSchema = "main"
)

type options struct {
	Config         string            `short:"f" long:"config" env:"VTABD_CONFIG" description:"yaml config file"`
	Listen         string            `short:"l" long:"listen" env:"VTABD_LISTEN" description:"listen address (default: 127.0.0.1:50051)"`
	Address        string            `long:"address" env:"VTABD_ADDRESS" description:"public address advertised in flight endpoints"`
	Schema         string            `long:"schema" env:"VTABD_SCHEMA" description:"schema name tables are served under (default: main)"`
	MaxMessageSize int               `long:"max-message-size" env:"VTABD_MAX_MESSAGE_SIZE" description:"max grpc message size in bytes"`
	RowID          bool              `long:"rowid" description:"add a rowid column to every table"`
	Tables         []string          `short:"t" long:"table" env:"VTABD_TABLES" env-delim:"," description:"table to serve, all built-in tables if not set"`
	Tokens         map[string]string `long:"token" description:"bearer token and identity, token:identity"`

	Version bool `long:"version" description:"show version"`
	Dbg     bool `long:"dbg" env:"VTABD_DEBUG" description:"debug mode"`
}

var revision = "latest"

func main() {
	fmt.Printf("vtabd %s\n", revision)

	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	if opts.Version {
		os.Exit(0) // already printed
	}

	logger := setupLog(opts.Dbg)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("vtabd failed", "error", err)
		os.Exit(1)
	}
}

func setupLog(dbg bool) *slog.Logger {
	level := slog.LevelInfo
	if dbg {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// run serves until ctx is cancelled.
func run(ctx context.Context, opts options, logger *slog.Logger) error {
	conf := &fileConfig{}
	if opts.Config != "" {
		var err error
		if conf, err = loadConfig(opts.Config); err != nil {
			return err
		}
	}
	conf.merge(opts)

	r := registry.New()
	if err := enableTables(r, conf.Tables); err != nil {
		return fmt.Errorf("can't register tables: %w", err)
	}

	cat, err := vtable.NewCatalog(r, catalog.AttacherConfig{
		Schema: conf.Schema,
		RowID:  conf.RowID,
		Logger: logger,
	})
	var attachErr *registry.AttachError
	if errors.As(err, &attachErr) {
		logger.Warn("Some tables are unavailable", "tables", attachErr.Tables())
	} else if err != nil {
		return fmt.Errorf("can't build catalog: %w", err)
	}

	lis, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return fmt.Errorf("can't listen on %s: %w", conf.Listen, err)
	}

	config := vtable.ServerConfig{
		Catalog:        cat,
		Logger:         logger,
		MaxMessageSize: conf.MaxMessageSize,
		Address:        conf.Address,
	}
	if len(conf.Tokens) > 0 {
		config.Auth = vtable.StaticTokens(conf.Tokens)
	}

	grpcServer := grpc.NewServer(vtable.ServerOptions(config)...)
	if err := vtable.NewServer(grpcServer, config); err != nil {
		lis.Close()
		return err
	}

	logger.Info("Serving", "listen", lis.Addr().String(), "schema", conf.Schema, "tables", r.Names())
	return serve(ctx, grpcServer, lis, logger)
}

// serve runs grpcServer on lis until ctx is cancelled or Serve fails.
func serve(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		grpcServer.GracefulStop()
		return nil
	})
	return g.Wait()
}

func enableTables(r *registry.Registry, names []string) error {
	if len(names) == 0 {
		return plugins.Register(r)
	}
	return plugins.Enable(r, names...)
}
