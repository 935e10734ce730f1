package scanner

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"

	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var log = logging.Logger("scanner")

// Classifier decides whether a property value is a wallet handle.
type Classifier func(v any) bool

// IsWalletHandle accepts non nil values implementing types.WalletHandle with a non empty id.
func IsWalletHandle(v any) bool {
	if v == nil || reflect2.IsNil(v) {
		return false
	}
	wallet, ok := v.(types.WalletHandle)
	if !ok {
		return false
	}
	return wallet.ID() != ""
}

// Scan collects the own enumerable property values of c accepted by classify,
// in enumeration order, keeping the first handle seen for each wallet id.
// Properties whose getter or classification fails are skipped.
func Scan(c window.Container, classify Classifier) []types.WalletHandle {
	wallets := make([]types.WalletHandle, 0)
	if c == nil || reflect2.IsNil(c) {
		return wallets
	}
	if classify == nil {
		classify = IsWalletHandle
	}

	seen := make(map[string]struct{})
	for _, key := range c.OwnKeys() {
		wallet, ok := inspect(c, key, classify)
		if !ok {
			continue
		}
		id, ok := walletID(wallet)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		wallets = append(wallets, wallet)
	}
	return wallets
}

func inspect(c window.Container, key string, classify Classifier) (wallet types.WalletHandle, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("skip property %s: %v", key, r)
			wallet, ok = nil, false
		}
	}()

	v, err := c.Get(key)
	if err != nil {
		log.Warnf("skip property %s: %v", key, err)
		return nil, false
	}
	if !classify(v) {
		return nil, false
	}
	wallet, ok = v.(types.WalletHandle)
	return wallet, ok
}

func walletID(wallet types.WalletHandle) (id string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			id, ok = "", false
		}
	}()
	return wallet.ID(), true
}
