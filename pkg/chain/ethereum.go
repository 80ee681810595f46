package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	submitUpdateMethod = "submitUpdate"
	defTimeout         = 3 * time.Second
)

// DefaultABIPaths are the Hardhat artifact locations probed for the
// JobManager ABI.
var DefaultABIPaths = []string{
	"artifacts/contracts/JobManager.sol/JobManager.json",
	"../artifacts/contracts/JobManager.sol/JobManager.json",
	"/app/artifacts/contracts/JobManager.sol/JobManager.json",
}

type Config struct {
	ProviderURL     string
	ContractAddress string
	ABIPaths        []string
	Timeout         time.Duration
}

type ethereumClient struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	rpc      *ethclient.Client
	abi      *abi.ABI
	contract common.Address
}

// NewClient returns a client that dials the RPC node lazily and retries on
// every call until a connection succeeds.
func NewClient(cfg Config, logger *slog.Logger) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defTimeout
	}
	if len(cfg.ABIPaths) == 0 {
		cfg.ABIPaths = DefaultABIPaths
	}

	return &ethereumClient{
		cfg:    cfg,
		logger: logger,
	}
}

func (c *ethereumClient) IsConnected(ctx context.Context) bool {
	rpc := c.connect(ctx)
	if rpc == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	_, err := rpc.ChainID(ctx)

	return err == nil
}

func (c *ethereumClient) ContractReady(ctx context.Context) bool {
	_, _, ok := c.contractABI(ctx)

	return ok
}

func (c *ethereumClient) BuildSubmitUpdate(ctx context.Context, jobID uint64, updateHash, from string) (Transaction, error) {
	rpc, parsed, ok := c.contractABI(ctx)
	if !ok {
		return Transaction{}, ErrNotReady
	}
	if !IsAddress(from) {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}

	data, err := PackSubmitUpdate(parsed, jobID, updateHash)
	if err != nil {
		return Transaction{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	nonce, err := rpc.NonceAt(ctx, common.HexToAddress(from), nil)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	return Transaction{
		To:    c.contract.Hex(),
		Gas:   SubmitUpdateGas,
		Nonce: nonce,
		Data:  hexutil.Encode(data),
	}, nil
}

func (c *ethereumClient) connect(ctx context.Context) *ethclient.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpc != nil {
		return c.rpc
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	rpc, err := ethclient.DialContext(ctx, c.cfg.ProviderURL)
	if err != nil {
		c.logger.Warn("web3 init error", slog.String("provider_url", c.cfg.ProviderURL), slog.Any("error", err))

		return nil
	}
	if _, err := rpc.ChainID(ctx); err != nil {
		rpc.Close()
		c.logger.Warn("web3 not connected", slog.String("provider_url", c.cfg.ProviderURL), slog.Any("error", err))

		return nil
	}

	c.logger.Info("web3 connected", slog.String("provider_url", c.cfg.ProviderURL))
	c.rpc = rpc

	return rpc
}

func (c *ethereumClient) contractABI(ctx context.Context) (*ethclient.Client, *abi.ABI, bool) {
	rpc := c.connect(ctx)
	if rpc == nil {
		return nil, nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.abi != nil {
		return rpc, c.abi, true
	}

	if !IsAddress(c.cfg.ContractAddress) {
		c.logger.Warn("contract init error", slog.String("contract_address", c.cfg.ContractAddress), slog.Any("error", ErrInvalidAddress))

		return nil, nil, false
	}

	parsed, path, err := LoadABI(c.cfg.ABIPaths, c.logger)
	if err != nil {
		c.logger.Warn("contract ABI not found, on-chain features disabled")

		return nil, nil, false
	}

	c.abi = &parsed
	c.contract = common.HexToAddress(c.cfg.ContractAddress)
	c.logger.Info("contract initialized", slog.String("address", c.contract.Hex()), slog.String("abi_path", path))

	return rpc, c.abi, true
}

// LoadABI returns the ABI of the first readable artifact in paths together
// with the path it was read from. Artifacts that fail to parse are logged
// and skipped.
func LoadABI(paths []string, logger *slog.Logger) (abi.ABI, string, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			logger.Warn("ABI read error", slog.String("path", path), slog.Any("error", err))

			continue
		}

		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			logger.Warn("ABI parse error", slog.String("path", path), slog.Any("error", err))

			continue
		}

		parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
		if err != nil {
			logger.Warn("ABI parse error", slog.String("path", path), slog.Any("error", err))

			continue
		}

		return parsed, path, nil
	}

	return abi.ABI{}, "", ErrABINotFound
}

// PackSubmitUpdate encodes the submitUpdate call data. The update hash
// string is committed on chain as its keccak256 digest.
func PackSubmitUpdate(parsed *abi.ABI, jobID uint64, updateHash string) ([]byte, error) {
	digest := crypto.Keccak256Hash([]byte(updateHash))

	data, err := parsed.Pack(submitUpdateMethod, new(big.Int).SetUint64(jobID), [32]byte(digest))
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", submitUpdateMethod, err)
	}

	return data, nil
}
