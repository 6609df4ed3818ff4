package domain

import "net/url"

// ChainMode selects the ledger backing the transaction engine.
// The mode is fixed at process start and injected at construction.
type ChainMode string

const (
	ChainModeSimulated ChainMode = "simulated"
	ChainModeSepolia   ChainMode = "sepolia"
)

// ParseChainMode maps a configuration string to a ChainMode,
// defaulting to the simulated ledger for unknown values.
func ParseChainMode(s string) ChainMode {
	if s == string(ChainModeSepolia) {
		return ChainModeSepolia
	}
	return ChainModeSimulated
}

// OnChain reports whether the mode delegates to a live blockchain.
func (m ChainMode) OnChain() bool {
	return m == ChainModeSepolia
}

// ChainInfo describes the active ledger mode and its capabilities.
type ChainInfo struct {
	Mode           ChainMode `json:"mode"`
	Label          string    `json:"label"`
	DepositEnabled bool      `json:"deposit_enabled"`
	RPCHost        string    `json:"rpc_host,omitempty"`
}

// NewChainInfo builds the capability view for a mode. Deposits are a
// simulated-ledger convenience only. RPCHost is the hostname of the
// configured endpoint when on-chain; a malformed URL yields an empty host.
func NewChainInfo(mode ChainMode, rpcURL string) ChainInfo {
	info := ChainInfo{
		Mode:           mode,
		DepositEnabled: !mode.OnChain(),
	}
	if mode.OnChain() {
		info.Label = "Sepolia Testnet"
		if u, err := url.Parse(rpcURL); err == nil {
			info.RPCHost = u.Hostname()
		}
	} else {
		info.Label = "Simulated Ledger"
	}
	return info
}
