package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"provenant/internal/domain"
	"provenant/internal/usecase"
)

const registryABIJSON = `[
  {"name":"getContent","type":"function","stateMutability":"view",
   "inputs":[{"name":"contentHash","type":"bytes32"}],
   "outputs":[{"name":"creator","type":"address"},{"name":"contentHash","type":"bytes32"},{"name":"manifestURI","type":"string"},{"name":"timestamp","type":"uint64"}]},
  {"name":"getPlatformBinding","type":"function","stateMutability":"view",
   "inputs":[{"name":"platform","type":"string"},{"name":"platformId","type":"string"}],
   "outputs":[{"name":"creator","type":"address"},{"name":"contentHash","type":"bytes32"},{"name":"manifestURI","type":"string"},{"name":"timestamp","type":"uint64"}]},
  {"name":"ContentRegistered","type":"event",
   "inputs":[{"name":"contentHash","type":"bytes32","indexed":true},{"name":"creator","type":"address","indexed":true},{"name":"manifestURI","type":"string","indexed":false},{"name":"timestamp","type":"uint64","indexed":false}]}
]`

const defaultCallTimeout = 10 * time.Second

// backend is the JSON-RPC surface the client needs. *ethclient.Client
// satisfies it; tests substitute a stub.
type backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client reads the on-chain registry. Connections are shared, read-only
// resources reused across concurrent workers; every call carries its own
// timeout so an unresponsive provider cannot pin a worker.
type Client struct {
	DefaultRPCURL string
	CallTimeout   time.Duration

	registryABI abi.ABI
	dial        func(url string) (backend, error)

	mu    sync.Mutex
	conns map[string]backend
}

func NewClient(defaultRPCURL string, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		// Static ABI string; failure here is a programming error.
		panic(fmt.Sprintf("parse registry abi: %v", err))
	}
	return &Client{
		DefaultRPCURL: defaultRPCURL,
		CallTimeout:   callTimeout,
		registryABI:   parsed,
		dial: func(url string) (backend, error) {
			return ethclient.Dial(url)
		},
		conns: make(map[string]backend),
	}
}

func (c *Client) GetEntry(ctx context.Context, rpcURL, registryAddress, contentHash string) (domain.RegistryEntry, error) {
	hash, err := parseDigest(contentHash)
	if err != nil {
		return domain.RegistryEntry{}, err
	}
	return c.callEntry(ctx, rpcURL, registryAddress, "getContent", hash)
}

func (c *Client) GetBinding(ctx context.Context, rpcURL, registryAddress, platform, platformID string) (domain.RegistryEntry, error) {
	return c.callEntry(ctx, rpcURL, registryAddress, "getPlatformBinding", platform, platformID)
}

// FindRegistrationTx scans ContentRegistered logs for the content hash and
// returns the most recent match. Best-effort: providers that restrict log
// ranges simply yield ok=false.
func (c *Client) FindRegistrationTx(ctx context.Context, rpcURL, registryAddress, contentHash string) (string, bool) {
	hash, err := parseDigest(contentHash)
	if err != nil {
		return "", false
	}
	conn, err := c.conn(rpcURL)
	if err != nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, c.CallTimeout)
	defer cancel()

	event := c.registryABI.Events["ContentRegistered"]
	logs, err := conn.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(registryAddress)},
		Topics:    [][]common.Hash{{event.ID}, {common.Hash(hash)}},
	})
	if err != nil || len(logs) == 0 {
		return "", false
	}
	return logs[len(logs)-1].TxHash.Hex(), true
}

func (c *Client) ChainID(ctx context.Context, rpcURL string) (int64, error) {
	conn, err := c.conn(rpcURL)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.CallTimeout)
	defer cancel()
	id, err := conn.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: chain id: %v", domain.ErrRPC, err)
	}
	return id.Int64(), nil
}

func (c *Client) callEntry(ctx context.Context, rpcURL, registryAddress, method string, args ...any) (domain.RegistryEntry, error) {
	if registryAddress == "" {
		return domain.RegistryEntry{}, fmt.Errorf("%w: registry address is required", domain.ErrInvalidRequest)
	}
	conn, err := c.conn(rpcURL)
	if err != nil {
		return domain.RegistryEntry{}, err
	}
	input, err := c.registryABI.Pack(method, args...)
	if err != nil {
		return domain.RegistryEntry{}, fmt.Errorf("%w: pack %s: %v", domain.ErrRPC, method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.CallTimeout)
	defer cancel()

	to := common.HexToAddress(registryAddress)
	output, err := conn.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return domain.RegistryEntry{}, fmt.Errorf("%w: %s: %v", domain.ErrRPC, method, err)
	}

	values, err := c.registryABI.Unpack(method, output)
	if err != nil || len(values) != 4 {
		return domain.RegistryEntry{}, fmt.Errorf("%w: unpack %s: %v", domain.ErrRPC, method, err)
	}
	creator, ok0 := values[0].(common.Address)
	storedHash, ok1 := values[1].([32]byte)
	manifestURI, ok2 := values[2].(string)
	timestamp, ok3 := values[3].(uint64)
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return domain.RegistryEntry{}, fmt.Errorf("%w: malformed %s response", domain.ErrRPC, method)
	}
	return domain.RegistryEntry{
		Creator:     creator.Hex(),
		ContentHash: "0x" + common.Bytes2Hex(storedHash[:]),
		ManifestURI: manifestURI,
		Timestamp:   timestamp,
	}, nil
}

func (c *Client) conn(rpcURL string) (backend, error) {
	if rpcURL == "" {
		rpcURL = c.DefaultRPCURL
	}
	if rpcURL == "" {
		return nil, fmt.Errorf("%w: no rpc endpoint configured", domain.ErrInvalidRequest)
	}
	c.mu.Lock()
	if conn, ok := c.conns[rpcURL]; ok {
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	// Dial without holding the lock so a slow endpoint cannot stall
	// lookups against endpoints that are already connected.
	conn, err := c.dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrRPC, rpcURL, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.conns[rpcURL]; ok {
		// A concurrent dial for the same endpoint won; keep its
		// connection and let ours be collected.
		return existing, nil
	}
	c.conns[rpcURL] = conn
	return conn, nil
}

func parseDigest(contentHash string) ([32]byte, error) {
	var out [32]byte
	if !domain.ValidDigest(contentHash) {
		return out, fmt.Errorf("%w: malformed content hash %q", domain.ErrInvalidRequest, contentHash)
	}
	copy(out[:], common.FromHex(contentHash))
	return out, nil
}

var _ usecase.RegistryReader = (*Client)(nil)
