package metrics

import (
	"time"

	rpcMetrics "github.com/filecoin-project/go-jsonrpc/metrics"
	"github.com/ipfs-force-community/metrics"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	WalletIDKey, _  = tag.NewKey("wallet_id")
	OperationKey, _ = tag.NewKey("operation")
	ResultKey, _    = tag.NewKey("result")
	RDNSKey, _      = tag.NewKey("rdns")
	IPKey, _        = tag.NewKey("ip")
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	// scan
	ScanWallets = stats.Int64("scan/wallets", "Wallet handles found by one scan", stats.UnitDimensionless)

	// detection
	DetectAttempt  = stats.Int64("detect/attempt", "Provider detection attempt", stats.UnitDimensionless)
	DetectDuration = stats.Float64("detect/duration", "Provider detection spent time", stats.UnitMilliseconds)
	BridgeInject   = stats.Int64("bridge/inject", "Bridged wallet injected", stats.UnitDimensionless)

	// connection
	Enable          = stats.Float64("wallet/enable", "Call Enable spent time", stats.UnitMilliseconds)
	LastWalletClean = stats.Int64("wallet/last_clean", "Remembered wallet forgotten because it lost its authorization", stats.UnitDimensionless)

	// provider
	ProviderRegister   = stats.Int64("provider/register", "Provider register", stats.UnitDimensionless)
	ProviderUnregister = stats.Int64("provider/unregister", "Provider unregister", stats.UnitDimensionless)
	ProviderNum        = metrics.NewInt64("provider/num", "Provider count", stats.UnitDimensionless)
	ProviderConnNum    = metrics.NewInt64("provider/conn_num", "Provider connection count", stats.UnitDimensionless)
	AvailableNum       = metrics.NewInt64("wallet/available_num", "Wallet handles available in the container", stats.UnitDimensionless)

	ApiState = metrics.NewInt64("api/state", "api service state. 0: down, 1: up", "")
)

var (
	scanWalletsView = &view.View{
		Measure:     ScanWallets,
		Aggregation: view.LastValue(),
	}

	detectAttemptView = &view.View{
		Measure:     DetectAttempt,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ResultKey},
	}
	detectDurationView = &view.View{
		Measure:     DetectDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{ResultKey},
	}
	bridgeInjectView = &view.View{
		Measure:     BridgeInject,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletIDKey},
	}

	enableView = &view.View{
		Measure:     Enable,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{WalletIDKey, ResultKey},
	}
	lastWalletCleanView = &view.View{
		Measure:     LastWalletClean,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletIDKey},
	}

	providerRegisterView = &view.View{
		Measure:     ProviderRegister,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{RDNSKey, IPKey},
	}
	providerUnregisterView = &view.View{
		Measure:     ProviderUnregister,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{RDNSKey, IPKey},
	}
)

var views = append([]*view.View{
	scanWalletsView,
	detectAttemptView,
	detectDurationView,
	bridgeInjectView,
	enableView,
	lastWalletCleanView,
	providerRegisterView,
	providerUnregisterView,
}, rpcMetrics.DefaultViews...)

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

// ResultTag is the value of ResultKey for err.
func ResultTag(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func init() {
	// register metrics
	_ = view.Register(views...)
}
