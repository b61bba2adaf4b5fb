package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// viewQuery is the call_function request shape understood by the contract
// RPC node.
type viewQuery struct {
	RequestType string `json:"request_type"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name"`
	ArgsBase64  string `json:"args_base64"`
	Finality    string `json:"finality"`
}

// viewResult carries the raw byte response of a view method.
type viewResult struct {
	Result      []byte `json:"result"`
	BlockHeight uint64 `json:"block_height"`
}

// ViewFunction calls a read-only contract method. Arguments are JSON-encoded
// and base64-wrapped on the way in; the byte response is JSON-decoded on the
// way out. Each call is independent: no retries, no caching.
func (c *Client) ViewFunction(ctx context.Context, contractID, method string, args interface{}) (json.RawMessage, error) {
	if args == nil {
		args = map[string]interface{}{}
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view args: %w", err)
	}

	resp, err := c.rpcCall(ctx, "query", viewQuery{
		RequestType: "call_function",
		AccountID:   contractID,
		MethodName:  method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(argsJSON),
		Finality:    "final",
	})
	if err != nil {
		return nil, fmt.Errorf("view call %s.%s failed: %w", contractID, method, err)
	}

	var result viewResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode view result: %w", err)
	}

	if !json.Valid(result.Result) {
		return nil, fmt.Errorf("view call %s.%s returned non-JSON payload", contractID, method)
	}

	return json.RawMessage(result.Result), nil
}
