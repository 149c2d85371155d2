package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// alchemyHosts maps numeric chain ids to Alchemy RPC hosts.
var alchemyHosts = map[string]string{
	"1":        "eth-mainnet.g.alchemy.com",
	"11155111": "eth-sepolia.g.alchemy.com",
	"137":      "polygon-mainnet.g.alchemy.com",
	"8453":     "base-mainnet.g.alchemy.com",
	"42161":    "arb-mainnet.g.alchemy.com",
}

// erc20BalanceOfSelector is the 4-byte selector of balanceOf(address).
var erc20BalanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// AlchemyClient implements QueryAdapter against Alchemy endpoints.
// Standard reads (balances, logs) go through ethclient; transfer history
// uses Alchemy's alchemy_getAssetTransfers extension, which is not part of
// the standard RPC surface, so that one is a plain JSON-RPC POST.
type AlchemyClient struct {
	APIKey     string
	HTTPClient *http.Client

	// Endpoints overrides the Alchemy host table per chain id (tests, local
	// nodes). Keys are chain ids, values full RPC URLs.
	Endpoints map[string]string

	mu   sync.Mutex
	eths map[string]*ethclient.Client
}

func NewAlchemyClient(apiKey string) *AlchemyClient {
	return &AlchemyClient{
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		eths: make(map[string]*ethclient.Client),
	}
}

// NewAlchemyClientFromEnv builds the client from ALCHEMY_API_KEY.
func NewAlchemyClientFromEnv() *AlchemyClient {
	apiKey := os.Getenv("ALCHEMY_API_KEY")
	if apiKey == "" {
		log.Fatal("❌ ALCHEMY_API_KEY is not set — chain verification cannot run")
	}
	return NewAlchemyClient(apiKey)
}

func (c *AlchemyClient) rpcURL(chainID string) (string, error) {
	if c.Endpoints != nil {
		if url, ok := c.Endpoints[chainID]; ok {
			return url, nil
		}
	}
	host, ok := alchemyHosts[chainID]
	if !ok {
		return "", fmt.Errorf("unsupported chain id %q", chainID)
	}
	return fmt.Sprintf("https://%s/v2/%s", host, c.APIKey), nil
}

// ethClient returns a cached ethclient for the chain, dialing lazily.
func (c *AlchemyClient) ethClient(chainID string) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eths == nil {
		c.eths = make(map[string]*ethclient.Client)
	}
	if client, ok := c.eths[chainID]; ok {
		return client, nil
	}
	url, err := c.rpcURL(chainID)
	if err != nil {
		return nil, err
	}
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain %s: %w", chainID, err)
	}
	c.eths[chainID] = client
	return client, nil
}

func (c *AlchemyClient) GetBalance(ctx context.Context, chainID, address, currency string) (*big.Int, error) {
	client, err := c.ethClient(chainID)
	if err != nil {
		return nil, err
	}

	wallet := common.HexToAddress(address)

	// ERC-20: currency carries the token contract address.
	if strings.HasPrefix(currency, "0x") {
		token := common.HexToAddress(currency)
		data := append(append([]byte{}, erc20BalanceOfSelector...), common.LeftPadBytes(wallet.Bytes(), 32)...)
		out, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("balanceOf call failed on chain %s: %w", chainID, err)
		}
		return new(big.Int).SetBytes(out), nil
	}

	bal, err := client.BalanceAt(ctx, wallet, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed on chain %s: %w", chainID, err)
	}
	return bal, nil
}

func (c *AlchemyClient) GetEventLogs(ctx context.Context, chainID, contractAddress, eventSignature string, filter EventFilter) ([]EventLog, error) {
	client, err := c.ethClient(chainID)
	if err != nil {
		return nil, err
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(contractAddress)},
		Topics:    [][]common.Hash{{crypto.Keccak256Hash([]byte(eventSignature))}},
	}
	if filter.LookbackBlocks > 0 {
		latest, err := client.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("eth_blockNumber failed on chain %s: %w", chainID, err)
		}
		from := int64(latest) - filter.LookbackBlocks
		if from < 0 {
			from = 0
		}
		query.FromBlock = big.NewInt(from)
	}

	logs, err := client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs failed on chain %s: %w", chainID, err)
	}

	out := make([]EventLog, 0, len(logs))
	for _, l := range logs {
		topics := make([]string, 0, len(l.Topics))
		for _, t := range l.Topics {
			topics = append(topics, t.Hex())
		}
		out = append(out, EventLog{
			Address:     l.Address.Hex(),
			TxHash:      l.TxHash.Hex(),
			Topics:      topics,
			Data:        l.Data,
			BlockNumber: l.BlockNumber,
		})
	}
	return out, nil
}

// --- alchemy_getAssetTransfers (non-standard RPC) ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type assetTransfersParams struct {
	FromAddress  string   `json:"fromAddress,omitempty"`
	ToAddress    string   `json:"toAddress,omitempty"`
	Category     []string `json:"category"`
	MaxCount     string   `json:"maxCount"`
	Order        string   `json:"order"`
	WithMetadata bool     `json:"withMetadata"`
}

type assetTransfersResult struct {
	Transfers []struct {
		Hash     string  `json:"hash"`
		From     string  `json:"from"`
		To       string  `json:"to"`
		Asset    string  `json:"asset"`
		Category string  `json:"category"`
		RawContract struct {
			Value   string `json:"value"`   // hex base units
			Decimal string `json:"decimal"` // hex
		} `json:"rawContract"`
		Metadata struct {
			BlockTimestamp string `json:"blockTimestamp"`
		} `json:"metadata"`
	} `json:"transfers"`
}

var defaultTransferCategories = []string{"external", "erc20", "erc721", "erc1155"}

func (c *AlchemyClient) GetTransfers(ctx context.Context, chainID, address string, filter TransferFilter) ([]Transfer, error) {
	categories := filter.Categories
	if len(categories) == 0 {
		categories = defaultTransferCategories
	}
	maxCount := filter.MaxCount
	if maxCount <= 0 || maxCount > 1000 {
		maxCount = 100
	}

	base := assetTransfersParams{
		Category:     categories,
		MaxCount:     fmt.Sprintf("0x%x", maxCount),
		Order:        "desc",
		WithMetadata: true,
	}

	var calls []assetTransfersParams
	switch filter.Direction {
	case "sent":
		p := base
		p.FromAddress = address
		calls = append(calls, p)
	case "received":
		p := base
		p.ToAddress = address
		calls = append(calls, p)
	default:
		// Alchemy rejects fromAddress+toAddress as an AND filter, so both
		// directions means two calls.
		sent := base
		sent.FromAddress = address
		recv := base
		recv.ToAddress = address
		calls = append(calls, sent, recv)
	}

	var transfers []Transfer
	for _, p := range calls {
		var result assetTransfersResult
		if err := c.call(ctx, chainID, "alchemy_getAssetTransfers", []any{p}, &result); err != nil {
			return nil, err
		}
		for _, t := range result.Transfers {
			value := new(big.Int)
			if t.RawContract.Value != "" {
				if _, ok := value.SetString(strings.TrimPrefix(t.RawContract.Value, "0x"), 16); !ok {
					return nil, fmt.Errorf("malformed transfer value %q in tx %s", t.RawContract.Value, t.Hash)
				}
			}
			decimals := NativeDecimals
			if t.RawContract.Decimal != "" {
				d, err := strconv.ParseInt(strings.TrimPrefix(t.RawContract.Decimal, "0x"), 16, 32)
				if err != nil {
					return nil, fmt.Errorf("malformed decimal %q in tx %s", t.RawContract.Decimal, t.Hash)
				}
				decimals = int(d)
			}
			ts, _ := time.Parse(time.RFC3339, t.Metadata.BlockTimestamp)
			if !filter.Since.IsZero() && !ts.IsZero() && ts.Before(filter.Since) {
				continue
			}
			transfers = append(transfers, Transfer{
				Hash:      t.Hash,
				From:      t.From,
				To:        t.To,
				Asset:     t.Asset,
				Category:  t.Category,
				Value:     value,
				Decimals:  decimals,
				Timestamp: ts,
			})
		}
	}
	return transfers, nil
}

// call performs one JSON-RPC request against the chain's endpoint.
func (c *AlchemyClient) call(ctx context.Context, chainID, method string, params any, result any) error {
	url, err := c.rpcURL(chainID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}
