// Command zephyra-archived serves the content-addressed audit archive over
// gRPC. Proof documents and rollup commit records land here; anything
// holding a CID can fetch and re-verify the bytes later.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"zephyra.io/zephyra/archive"
	"zephyra.io/zephyra/archive/grpcarchive"
)

func main() {
	fs := flag.NewFlagSet("zephyra-archived", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	listen := fs.String("listen", "", "listen address (overrides config)")
	backend := fs.String("backend", "", "archive backend: mem or localfs (overrides config)")
	root := fs.String("root", "", "localfs archive root (overrides config)")
	metricsListen := fs.String("metrics-listen", "", "Prometheus /metrics address (overrides config)")

	_ = fs.Parse(os.Args[1:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *metricsListen != "" {
		cfg.MetricsListen = *metricsListen
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal("open archive backend", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	if cfg.MetricsListen != "" {
		go func() {
			if err := serveMetrics(cfg.MetricsListen, reg); err != nil {
				logger.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
	defer lis.Close()

	s := grpc.NewServer(grpc.UnaryInterceptor(m.unaryInterceptor))
	grpcarchive.RegisterArchiveServer(s, &grpcarchive.Server{Store: store})

	logger.Info("zephyra-archived listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("backend", cfg.Backend))
	if err := s.Serve(lis); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

func openStore(cfg Config) (archive.Store, error) {
	switch cfg.Backend {
	case "mem":
		return archive.NewMemoryStore(), nil
	case "localfs":
		return archive.NewLocalStore(cfg.Root)
	default:
		return nil, fmt.Errorf("unknown backend %q (want mem or localfs)", cfg.Backend)
	}
}
