package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcStub answers JSON-RPC requests with whatever the handler returns,
// echoing the request id so ethclient accepts the response.
func rpcStub(t *testing.T, handler func(method string, params json.RawMessage) (any, error)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("malformed RPC request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		result, err := handler(req.Method, req.Params)
		if err != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]any{"code": -32000, "message": err.Error()},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID, "result": result,
		})
	}))
}

func testClient(srv *httptest.Server) *AlchemyClient {
	client := NewAlchemyClient("test-key")
	client.Endpoints = map[string]string{"1": srv.URL}
	return client
}

func TestGetBalanceNative(t *testing.T) {
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		assert.Equal(t, "eth_getBalance", method)
		return "0x2386f26fc10000", nil // 0.01 ETH
	})
	defer srv.Close()

	bal, err := testClient(srv).GetBalance(context.Background(), "1",
		"0x1111111111111111111111111111111111111111", "ETH")
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1e16).Cmp(bal))
}

func TestGetBalanceERC20(t *testing.T) {
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		assert.Equal(t, "eth_call", method)
		return "0x0000000000000000000000000000000000000000000000000000000005f5e100", nil // 1e8
	})
	defer srv.Close()

	bal, err := testClient(srv).GetBalance(context.Background(), "1",
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1e8).Cmp(bal))
}

func TestGetBalanceUnsupportedChain(t *testing.T) {
	_, err := NewAlchemyClient("test-key").GetBalance(context.Background(), "999999", "0x11", "ETH")
	assert.Error(t, err)
}

func TestGetTransfersSent(t *testing.T) {
	var gotParams assetTransfersParams
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		assert.Equal(t, "alchemy_getAssetTransfers", method)
		var list []assetTransfersParams
		if err := json.Unmarshal(params, &list); err != nil || len(list) != 1 {
			t.Errorf("unexpected params payload: %s", params)
			return nil, assert.AnError
		}
		gotParams = list[0]
		return map[string]any{
			"transfers": []map[string]any{
				{
					"hash": "0xaa", "from": "0x11", "to": "0x22",
					"asset": "ETH", "category": "external",
					"rawContract": map[string]any{"value": "0x2386f26fc10000", "decimal": "0x12"},
					"metadata":    map[string]any{"blockTimestamp": "2026-08-30T12:00:00Z"},
				},
			},
		}, nil
	})
	defer srv.Close()

	transfers, err := testClient(srv).GetTransfers(context.Background(), "1", "0x11", TransferFilter{
		Direction: "sent",
		MaxCount:  50,
	})
	require.NoError(t, err)

	assert.Equal(t, "0x11", gotParams.FromAddress)
	assert.Empty(t, gotParams.ToAddress)
	assert.Equal(t, "0x32", gotParams.MaxCount)

	require.Len(t, transfers, 1)
	assert.Equal(t, "0xaa", transfers[0].Hash)
	assert.Zero(t, big.NewInt(1e16).Cmp(transfers[0].Value))
	assert.Equal(t, 18, transfers[0].Decimals)
	assert.Equal(t, 2026, transfers[0].Timestamp.Year())
}

func TestGetTransfersBothDirectionsMakesTwoCalls(t *testing.T) {
	var calls atomic.Int32
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		calls.Add(1)
		return map[string]any{"transfers": []any{}}, nil
	})
	defer srv.Close()

	_, err := testClient(srv).GetTransfers(context.Background(), "1", "0x11", TransferFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetTransfersSinceFilter(t *testing.T) {
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		return map[string]any{
			"transfers": []map[string]any{
				{
					"hash": "0xold", "from": "0x11", "to": "0x22",
					"rawContract": map[string]any{"value": "0x1", "decimal": "0x12"},
					"metadata":    map[string]any{"blockTimestamp": "2020-01-01T00:00:00Z"},
				},
				{
					"hash": "0xnew", "from": "0x11", "to": "0x22",
					"rawContract": map[string]any{"value": "0x1", "decimal": "0x12"},
					"metadata":    map[string]any{"blockTimestamp": "2026-08-30T00:00:00Z"},
				},
			},
		}, nil
	})
	defer srv.Close()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers, err := testClient(srv).GetTransfers(context.Background(), "1", "0x11", TransferFilter{
		Direction: "sent",
		Since:     since,
	})
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "0xnew", transfers[0].Hash)
}

func TestGetTransfersRPCError(t *testing.T) {
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		return nil, assert.AnError
	})
	defer srv.Close()

	_, err := testClient(srv).GetTransfers(context.Background(), "1", "0x11", TransferFilter{Direction: "sent"})
	assert.Error(t, err)
}

func TestGetEventLogs(t *testing.T) {
	srv := rpcStub(t, func(method string, params json.RawMessage) (any, error) {
		switch method {
		case "eth_blockNumber":
			return "0x100", nil
		case "eth_getLogs":
			return []map[string]any{
				{
					"address":          "0x4444444444444444444444444444444444444444",
					"topics":           []string{"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"},
					"data":             "0x000000000000000000000000000000000000000000000000002386f26fc10000",
					"blockNumber":      "0xff",
					"transactionHash":  "0xbb00000000000000000000000000000000000000000000000000000000000000",
					"transactionIndex": "0x0",
					"blockHash":        "0xcc00000000000000000000000000000000000000000000000000000000000000",
					"logIndex":         "0x0",
					"removed":          false,
				},
			}, nil
		default:
			t.Errorf("unexpected RPC method %s", method)
			return nil, assert.AnError
		}
	})
	defer srv.Close()

	logs, err := testClient(srv).GetEventLogs(context.Background(), "1",
		"0x4444444444444444444444444444444444444444",
		"Transfer(address,address,uint256)",
		EventFilter{LookbackBlocks: 50})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint64(0xff), logs[0].BlockNumber)
	assert.Len(t, logs[0].Topics, 1)
	assert.Len(t, logs[0].Data, 32)
}
