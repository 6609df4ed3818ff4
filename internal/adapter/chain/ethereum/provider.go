package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"custody-wallet/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// sepoliaChainID is the Sepolia testnet chain id.
var sepoliaChainID = big.NewInt(11155111)

// transferGasLimit is the fixed gas cost of a plain value transfer.
const transferGasLimit = 21000

// Provider implements ports.ChainProvider over a JSON-RPC endpoint.
// The underlying client is dialed lazily on first use and cached for the
// process lifetime. Calls block on network I/O; the provider applies no
// timeout of its own and surfaces RPC errors as-is.
type Provider struct {
	rpcURL  string
	chainID *big.Int
	log     zerolog.Logger

	once    sync.Once
	client  *ethclient.Client
	dialErr error
}

// NewProvider creates a Provider for the configured endpoint. Constructing
// one in simulated mode is a programming error: there is no endpoint to
// speak to, so it fails loudly instead of deferring the mistake.
func NewProvider(mode domain.ChainMode, rpcURL string, log zerolog.Logger) *Provider {
	if !mode.OnChain() {
		panic("ethereum: provider constructed in simulated mode")
	}
	return &Provider{
		rpcURL:  rpcURL,
		chainID: sepoliaChainID,
		log:     log,
	}
}

func (p *Provider) dial(ctx context.Context) (*ethclient.Client, error) {
	p.once.Do(func() {
		p.client, p.dialErr = ethclient.DialContext(ctx, p.rpcURL)
		if p.dialErr == nil {
			p.log.Info().Str("rpc_url", p.rpcURL).Msg("chain RPC client connected")
		}
	})
	if p.dialErr != nil {
		return nil, fmt.Errorf("dialing rpc endpoint: %w", p.dialErr)
	}
	return p.client, nil
}

// BalanceOf returns the live balance of an address in wei.
func (p *Provider) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("querying balance of %s: %w", address, err)
	}
	return balance, nil
}

// Transfer signs a plain value transfer with the given private key and
// submits it, returning the chain-assigned transaction hash. Failures are
// never retried here: a blind resubmit of a value transfer risks a
// duplicate spend.
func (p *Provider) Transfer(ctx context.Context, privKey []byte, to string, amountWei *big.Int) (string, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return "", err
	}

	key, err := crypto.ToECDSA(privKey)
	if err != nil {
		return "", fmt.Errorf("loading signer key: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("fetching nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(to), amountWei, transferGasLimit, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), key)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("submitting transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	p.log.Info().
		Str("tx_hash", hash).
		Str("to", to).
		Msg("transfer submitted")

	return hash, nil
}
