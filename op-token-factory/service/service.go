// Package service runs the token factory and its deployment index behind a JSON-RPC API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/mantle-token-factory/op-service/httputil"
	opmetrics "github.com/mantlenetworkio/mantle-token-factory/op-service/metrics"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/chain"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/config"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/indexer"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/metrics"
)

type Service struct {
	log log.Logger
	cfg *config.Config
	m   metrics.Metricer

	chain      *chain.Chain
	deployment *factory.Deployment
	l2Client   *ethclient.Client

	idx *indexer.Indexer

	rpcServer  *rpc.Server
	httpServer *httputil.HTTPServer
	metricsSrv *httputil.HTTPServer

	stopped atomic.Bool
}

// FromConfig builds every component of the service. Nothing is started yet.
func FromConfig(ctx context.Context, cfg *config.Config, logger log.Logger) (*Service, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Service{
		log: logger,
		cfg: cfg,
	}
	s.initMetrics()
	if err := s.init(ctx); err != nil {
		return nil, errors.Join(err, s.Stop(ctx))
	}
	return s, nil
}

func (s *Service) initMetrics() {
	if s.cfg.MetricsConfig.Enabled {
		s.m = metrics.NewMetrics("default")
	} else {
		s.m = metrics.NoopMetrics{}
	}
}

func (s *Service) init(ctx context.Context) error {
	var src indexer.LogSource
	api := &TokenFactoryAPI{
		log:         s.log.New("api", Namespace),
		m:           s.m,
		factoryAddr: s.cfg.FactoryAddress,
	}
	if s.cfg.LocalMode() {
		s.chain = chain.New(s.log.New("module", "chain"))
		f := factory.New(s.log.New("module", "factory"), s.cfg.BridgeAddress)
		d, err := factory.Deploy(s.chain, s.cfg.FactoryAddress, f)
		if err != nil {
			return err
		}
		s.deployment = d
		api.deployment = d
		src = s.chain
		s.log.Info("Running local factory", "factory", s.cfg.FactoryAddress, "bridge", s.cfg.BridgeAddress)
	} else {
		client, err := ethclient.DialContext(ctx, s.cfg.L2RPC)
		if err != nil {
			return fmt.Errorf("failed to dial L2 RPC %q: %w", s.cfg.L2RPC, err)
		}
		s.l2Client = client
		api.l2 = client
		src = client
		s.log.Info("Indexing remote factory", "factory", s.cfg.FactoryAddress, "rpc", s.cfg.L2RPC)
	}

	idx, err := indexer.New(s.log.New("module", "indexer"), s.m, indexer.Config{
		Factory:       s.cfg.FactoryAddress,
		DataDir:       s.cfg.Indexer.DataDir,
		StartBlock:    s.cfg.Indexer.StartBlock,
		MaxBlockRange: s.cfg.Indexer.MaxBlockRange,
		PollInterval:  s.cfg.Indexer.PollInterval,

		RequestsPerSecond: s.cfg.Indexer.RequestsPerSecond,
	}, src)
	if err != nil {
		return fmt.Errorf("failed to open indexer: %w", err)
	}
	s.idx = idx
	api.idx = idx

	s.rpcServer = rpc.NewServer()
	if err := s.rpcServer.RegisterName(Namespace, api); err != nil {
		return fmt.Errorf("failed to register %s API: %w", Namespace, err)
	}
	return nil
}

func (s *Service) Start(ctx context.Context) error {
	s.idx.Start()

	addr := net.JoinHostPort(s.cfg.RPC.ListenAddr, strconv.Itoa(s.cfg.RPC.ListenPort))
	srv, err := httputil.StartHTTPServer(addr, s.rpcServer)
	if err != nil {
		return fmt.Errorf("failed to start RPC server: %w", err)
	}
	s.httpServer = srv
	s.log.Info("Started RPC server", "endpoint", srv.HTTPEndpoint())

	if s.cfg.MetricsConfig.Enabled {
		rm, ok := s.m.(opmetrics.RegistryMetricer)
		if !ok {
			return fmt.Errorf("metrics were enabled, but metricer %T does not expose a registry", s.m)
		}
		msrv, err := opmetrics.StartServer(rm.Registry(), s.cfg.MetricsConfig.ListenAddr, s.cfg.MetricsConfig.ListenPort)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		s.metricsSrv = msrv
		s.log.Info("Started metrics server", "endpoint", msrv.HTTPEndpoint())
	}

	s.m.RecordInfo(s.cfg.Version)
	s.m.RecordUp()
	return nil
}

// Stop shuts the servers down, then the indexer and the L2 client.
func (s *Service) Stop(ctx context.Context) error {
	if s.stopped.Swap(true) {
		return nil
	}
	var g errgroup.Group
	for _, srv := range []*httputil.HTTPServer{s.httpServer, s.metricsSrv} {
		if srv == nil {
			continue
		}
		g.Go(func() error {
			return srv.Stop(ctx)
		})
	}
	result := g.Wait()
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	if s.idx != nil {
		result = errors.Join(result, s.idx.Stop())
	}
	if s.l2Client != nil {
		s.l2Client.Close()
	}
	s.log.Info("Stopped token factory service")
	return result
}

func (s *Service) Stopped() bool {
	return s.stopped.Load()
}

// RPCEndpoint returns the http endpoint of the JSON-RPC server, empty when not running.
func (s *Service) RPCEndpoint() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.HTTPEndpoint()
}

// MetricsEndpoint returns the http endpoint of the metrics server, empty when disabled.
func (s *Service) MetricsEndpoint() string {
	if s.metricsSrv == nil {
		return ""
	}
	return s.metricsSrv.HTTPEndpoint()
}

// RPCServer exposes the registered RPC handlers, e.g. for in-process clients.
func (s *Service) RPCServer() *rpc.Server {
	return s.rpcServer
}

func (s *Service) Metrics() metrics.Metricer {
	return s.m
}
