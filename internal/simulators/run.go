package simulators

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
)

// Config selects where the simulators listen.
type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	AppcRequestTopic  string
	AppcResponseTopic string
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns the addresses policy-sim uses when none are given.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:          ":6680",
		GRPCAddr:          ":9111",
		AppcRequestTopic:  AppcRequestTopic,
		AppcResponseTopic: AppcResponseTopic,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Run serves every simulator until ctx is done. The APPC simulator uses bus.
func Run(ctx context.Context, cfg Config, bus topic.Bus) error {
	log := logging.NewLogger(logging.ComponentSimulator)

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	appc := NewAppc(bus, cfg.AppcRequestTopic, cfg.AppcResponseTopic)
	if err := appc.Start(ctx); err != nil {
		_ = httpLis.Close()
		_ = grpcLis.Close()
		return err
	}
	defer func() { _ = appc.Stop() }()

	httpServer := &http.Server{Handler: NewHTTP(), ReadHeaderTimeout: 10 * time.Second}
	grpcServer := NewCdsServer()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoEvent("HTTP simulators listening", "addr", httpLis.Addr().String())
		if err := httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.InfoEvent("CDS simulator listening", "addr", grpcLis.Addr().String())
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.InfoEvent("Shutting down simulators")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
