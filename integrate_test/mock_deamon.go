package integrate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gorilla/mux"
	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/plugin/ochttp"

	"github.com/ipfs-force-community/sophon-connect/api"
	"github.com/ipfs-force-community/sophon-connect/bridge"
	"github.com/ipfs-force-community/sophon-connect/config"
	"github.com/ipfs-force-community/sophon-connect/connect"
	"github.com/ipfs-force-community/sophon-connect/providerevent"
	"github.com/ipfs-force-community/sophon-connect/registry"
	"github.com/ipfs-force-community/sophon-connect/storage"
	"github.com/ipfs-force-community/sophon-connect/utils"
	"github.com/ipfs-force-community/sophon-connect/version"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var log = logging.Logger("mock main")

type mockDaemon struct {
	url   string
	token []byte
	jwt   *utils.LocalJwtClient
}

// authHandler only accepts requests carrying a token signed by jwt.
func authHandler(jwt *utils.LocalJwtClient, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perms, err := jwt.Verify(r.Context(), strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPerm(r.Context(), perms)))
	})
}

func MockMain(ctx context.Context, repoPath string, cfg *config.Config) (*mockDaemon, error) {
	log.Infof("sophon-connect current version %s", version.UserVersion)

	db, err := storage.OpenLevelDB(config.ResolvePath(repoPath, cfg.Storage.Path))
	if err != nil {
		return nil, fmt.Errorf("open storage failed: %v", err)
	}

	host := window.New()
	providerStream, err := providerevent.NewProviderEventStream(ctx, host, providerevent.RPCDialer, cfg.RequestConfig())
	if err != nil {
		return nil, err
	}

	metaMask := bridge.MetaMaskSpec()
	metaMask.Detect = cfg.DetectConfig()
	conn, err := connect.New(ctx, connect.Options{
		Host:         host,
		Registry:     registry.Default(),
		StoreFactory: db.Factory(),
		Bridges:      []bridge.Spec{metaMask},
	})
	if err != nil {
		return nil, err
	}

	connectAPIImpl := api.NewConnectAPIImpl(conn, providerStream)

	var connectAPI api.ConnectStruct
	api.PermissionProxy(connectAPIImpl, &connectAPI)

	mux := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register(api.Namespace, &connectAPI)
	mux.Handle("/rpc/v0", rpcServer)

	localJwt, err := utils.NewLocalJwtClient(repoPath)
	if err != nil {
		return nil, err
	}

	handler := authHandler(localJwt, mux)

	log.Infof("trace config %v", cfg.Trace)
	repoter, err := metrics.RegisterJaeger(cfg.Trace.ServerName, cfg.Trace)
	if err != nil {
		return nil, fmt.Errorf("register jaeger exporter failed %v", cfg.Trace)
	}
	if repoter != nil {
		log.Info("register jaeger exporter success!")
		handler = &ochttp.Handler{Handler: handler}
	}

	srv := httptest.NewServer(handler)
	go func() {
		<-ctx.Done()
		srv.Close()
		if repoter != nil {
			metrics.UnregisterJaeger(repoter)
		}
		_ = db.Close()
	}()
	return &mockDaemon{url: srv.URL, token: localJwt.Token, jwt: localJwt}, nil
}
