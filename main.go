package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"
	"go.opencensus.io/plugin/ochttp"

	"github.com/ipfs-force-community/metrics"

	"github.com/ipfs-force-community/sophon-connect/api"
	"github.com/ipfs-force-community/sophon-connect/bridge"
	"github.com/ipfs-force-community/sophon-connect/cmds"
	"github.com/ipfs-force-community/sophon-connect/config"
	"github.com/ipfs-force-community/sophon-connect/connect"
	connectMetrics "github.com/ipfs-force-community/sophon-connect/metrics"
	"github.com/ipfs-force-community/sophon-connect/providerevent"
	"github.com/ipfs-force-community/sophon-connect/registry"
	"github.com/ipfs-force-community/sophon-connect/storage"
	"github.com/ipfs-force-community/sophon-connect/utils"
	"github.com/ipfs-force-community/sophon-connect/version"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var log = logging.Logger("main")

func main() {
	_ = logging.SetLogLevel("*", "INFO")

	app := &cli.App{
		Name:  "sophon-connect",
		Usage: "discover the wallets of a container and keep one connected",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "host address and port the api will listen on",
				Value: "/ip4/127.0.0.1/tcp/45133",
			},
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "directory of the config, token and datastore",
				EnvVars: []string{"SOPHON_CONNECT_REPO"},
				Value:   config.DefaultRepo,
			},
		},
		Commands: []*cli.Command{
			initCmd, runCmd, cmds.WalletCmds, cmds.ProviderCmds,
		},
	}
	app.Version = version.UserVersion
	if err := app.Run(os.Args); err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write the default config into the repo",
	Action: func(cctx *cli.Context) error {
		repo, err := config.ExpandRepo(cctx.String("repo"))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(repo, 0755); err != nil {
			return err
		}
		cfgPath := config.ResolvePath(repo, config.ConfigFile)
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("config %s already exists", cfgPath)
		}

		cfg := config.DefaultConfig()
		if cctx.IsSet("listen") {
			cfg.API.ListenAddress = cctx.String("listen")
		}
		if err := config.WriteConfig(cfgPath, cfg); err != nil {
			return err
		}
		log.Infof("write config to %s", cfgPath)
		return nil
	},
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start sophon-connect daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "jaeger-proxy", EnvVars: []string{"SOPHON_CONNECT_JAEGER_PROXY"}},
		&cli.Float64Flag{Name: "trace-sampler", EnvVars: []string{"SOPHON_CONNECT_TRACE_SAMPLER"}, Value: 1.0},
		&cli.StringFlag{Name: "trace-node-name", Value: "sophon-connect"},
		&cli.StringFlag{Name: "registry", Usage: "yaml file of the known wallets"},
	},
	Action: func(cctx *cli.Context) error {
		repo, err := config.ExpandRepo(cctx.String("repo"))
		if err != nil {
			return err
		}
		cfg := config.DefaultConfig()
		cfgPath := config.ResolvePath(repo, config.ConfigFile)
		if _, err := os.Stat(cfgPath); err == nil {
			if cfg, err = config.ReadConfig(cfgPath); err != nil {
				return fmt.Errorf("read config %s: %w", cfgPath, err)
			}
		} else if err := os.MkdirAll(repo, 0755); err != nil {
			return err
		}

		if cctx.IsSet("listen") {
			cfg.API.ListenAddress = cctx.String("listen")
		}
		if cctx.IsSet("registry") {
			cfg.Registry.Path = cctx.String("registry")
		}
		if proxy := cctx.String("jaeger-proxy"); len(proxy) != 0 {
			cfg.Trace.JaegerTracingEnabled = true
			cfg.Trace.JaegerEndpoint = proxy
			cfg.Trace.ProbabilitySampler = cctx.Float64("trace-sampler")
			cfg.Trace.ServerName = cctx.String("trace-node-name")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return RunMain(cctx.Context, repo, cfg)
	},
}

func openStore(repo string, cfg *config.StorageConfig) (storage.Factory, func() error, error) {
	if cfg.Backend == config.StorageMemory {
		return storage.MemFactory(), func() error { return nil }, nil
	}
	db, err := storage.OpenLevelDB(config.ResolvePath(repo, cfg.Path))
	if err != nil {
		return nil, nil, err
	}
	return db.Factory(), db.Close, nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.Load(path)
}

func RunMain(ctx context.Context, repo string, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Infof("sophon-connect current version %s, listen %s", version.UserVersion, cfg.API.ListenAddress)

	storeFactory, closeStore, err := openStore(repo, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage failed: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Errorf("close storage failed: %s", err)
		}
	}()

	reg, err := loadRegistry(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("load wallet registry failed: %w", err)
	}

	host := window.New()
	providerStream, err := providerevent.NewProviderEventStream(ctx, host, providerevent.RPCDialer, cfg.RequestConfig())
	if err != nil {
		return err
	}

	metaMask := bridge.MetaMaskSpec()
	metaMask.Detect = cfg.DetectConfig()
	conn, err := connect.New(ctx, connect.Options{
		Host:         host,
		Registry:     reg,
		StoreFactory: storeFactory,
		Bridges:      []bridge.Spec{metaMask},
	})
	if err != nil {
		return err
	}

	connectAPIImpl := api.NewConnectAPIImpl(conn, providerStream)

	log.Info("Setting up control endpoint at " + cfg.API.ListenAddress)

	var connectAPI api.ConnectStruct
	api.PermissionProxy(connectAPIImpl, &connectAPI)

	if err := connectMetrics.SetupMetrics(ctx, cfg.Metrics, connectAPIImpl); err != nil {
		return err
	}

	mux := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register(api.Namespace, &connectAPI)
	mux.Handle("/rpc/v0", rpcServer)
	mux.Handle("/healthcheck", healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("connector", healthcheck.CheckerFunc(func(ctx context.Context) error {
			return conn.WaitReady(ctx)
		})),
	))
	mux.PathPrefix("/").Handler(http.DefaultServeMux)

	localJwt, err := utils.NewLocalJwtClient(repo)
	if err != nil {
		return fmt.Errorf("make token failed:%s", err.Error())
	}
	if err = localJwt.SaveToken(); err != nil {
		return err
	}

	handler := (http.Handler)(&AuthHandler{Verify: localJwt.Verify, Next: mux.ServeHTTP})

	if repoter, err := metrics.RegisterJaeger(cfg.Trace.ServerName, cfg.Trace); err != nil {
		return fmt.Errorf("register %s JaegerRepoter to %s failed:%s", cfg.Trace.ServerName, cfg.Trace.JaegerEndpoint, err)
	} else if repoter != nil {
		log.Infof("register jaeger-tracing exporter to %s, with node-name:%s", cfg.Trace.JaegerEndpoint, cfg.Trace.ServerName)
		defer metrics.UnregisterJaeger(repoter)
		handler = &ochttp.Handler{Handler: handler}
	}
	srv := &http.Server{Handler: handler}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-ctx.Done():
			log.Warn("received shutdown")
		}

		log.Info("Shutting down...")
		cancel()
		if err := srv.Shutdown(context.TODO()); err != nil {
			log.Errorf("shutting down RPC server failed: %s", err)
		}
	}()
	addr, err := multiaddr.NewMultiaddr(cfg.API.ListenAddress)
	if err != nil {
		return err
	}

	nl, err := manet.Listen(addr)
	if err != nil {
		return err
	}

	log.Infof("start to rpc listen %s", nl.Addr())
	if err = srv.Serve(manet.NetListener(nl)); err != nil && err != http.ErrServerClosed {
		return err
	}

	log.Info("Graceful shutdown successful")
	return nil
}
