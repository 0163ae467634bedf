// Package sui talks to a Sui full node over JSON-RPC: object reads and
// dev-inspect simulation of programmable transactions.
package sui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrNotShared        = errors.New("object is not shared")
	ErrSimulationAbort  = errors.New("dev-inspect execution failed")
	ErrEmptyTransaction = errors.New("transaction has no commands")
)

// Client wraps a JSON-RPC connection to a Sui node.
type Client struct {
	rpcClient *rpc.Client
	sender    string

	// initial shared versions never change, so they are cached for the process
	mu       sync.RWMutex
	versions map[string]uint64
}

// Dial connects to the node. sender is the address dev-inspect runs as.
func Dial(ctx context.Context, url, sender string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial sui rpc: %w", err)
	}
	return NewClient(rpcClient, sender)
}

func NewClient(rpcClient *rpc.Client, sender string) (*Client, error) {
	norm, err := domain.NormalizeAddress(sender)
	if err != nil {
		return nil, fmt.Errorf("simulate sender: %w", err)
	}
	return &Client{
		rpcClient: rpcClient,
		sender:    norm,
		versions:  make(map[string]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) call(ctx context.Context, kind string, out interface{}, method string, args ...interface{}) error {
	start := time.Now()
	var raw json.RawMessage
	err := c.rpcClient.CallContext(ctx, &raw, method, args...)
	metrics.OracleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleCalls.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		metrics.OracleCalls.WithLabelValues(kind, "decode_error").Inc()
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	metrics.OracleCalls.WithLabelValues(kind, "ok").Inc()
	return nil
}

type objectOptions struct {
	ShowType    bool `json:"showType"`
	ShowOwner   bool `json:"showOwner"`
	ShowContent bool `json:"showContent"`
}

type objectOwner struct {
	Shared *struct {
		InitialSharedVersion bigNum `json:"initial_shared_version"`
	} `json:"Shared"`
}

// ObjectData is the subset of sui_getObject's data the adapters read.
type ObjectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Type     string          `json:"type"`
	Owner    json.RawMessage `json:"owner"`
	Content  *struct {
		DataType string          `json:"dataType"`
		Type     string          `json:"type"`
		Fields   json.RawMessage `json:"fields"`
	} `json:"content"`
}

type objectResponse struct {
	Data  *ObjectData `json:"data"`
	Error *struct {
		Code     string `json:"code"`
		ObjectID string `json:"object_id"`
	} `json:"error"`
}

// GetObject reads one object with type, owner and content.
func (c *Client) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var resp objectResponse
	opts := objectOptions{ShowType: true, ShowOwner: true, ShowContent: true}
	if err := c.call(ctx, "object", &resp, "sui_getObject", id, opts); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	// owned objects have no shared version
	_, _ = c.rememberVersion(resp.Data)
	return resp.Data, nil
}

// SharedVersions resolves the initial shared version of each object id,
// fetching only ids not seen before in one batched call.
func (c *Client) SharedVersions(ctx context.Context, ids []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ids))
	var unknown []string
	c.mu.RLock()
	for _, id := range ids {
		key, err := domain.NormalizeAddress(id)
		if err != nil {
			c.mu.RUnlock()
			return nil, err
		}
		if v, ok := c.versions[key]; ok {
			out[id] = v
		} else {
			unknown = append(unknown, id)
		}
	}
	c.mu.RUnlock()
	if len(unknown) == 0 {
		return out, nil
	}

	var resp []objectResponse
	if err := c.call(ctx, "object", &resp, "sui_multiGetObjects", unknown, objectOptions{ShowOwner: true}); err != nil {
		return nil, err
	}
	for i, r := range resp {
		if r.Data == nil {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, unknown[i])
		}
		v, err := c.rememberVersion(r.Data)
		if err != nil {
			return nil, err
		}
		out[unknown[i]] = v
	}
	for _, id := range unknown {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
		}
	}
	return out, nil
}

func (c *Client) rememberVersion(d *ObjectData) (uint64, error) {
	var owner objectOwner
	if len(d.Owner) == 0 || sonic.Unmarshal(d.Owner, &owner) != nil || owner.Shared == nil {
		return 0, fmt.Errorf("%w: %s", ErrNotShared, d.ObjectID)
	}
	version := owner.Shared.InitialSharedVersion.big()
	if !version.IsUint64() {
		return 0, fmt.Errorf("%w: %s: version %s", ErrNotShared, d.ObjectID, version)
	}
	v := version.Uint64()
	id, err := domain.NormalizeAddress(d.ObjectID)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.versions[id] = v
	c.mu.Unlock()
	return v, nil
}

type devInspectResponse struct {
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
		GasUsed struct {
			ComputationCost string `json:"computationCost"`
		} `json:"gasUsed"`
	} `json:"effects"`
	Events []domain.SimulationEvent `json:"events"`
	Error  string                   `json:"error"`
}

// DevInspect runs tx without committing it and returns its events. A failed
// execution is an error; a successful one may still carry IsExceed results.
func (c *Client) DevInspect(ctx context.Context, tx *ProgrammableTx) (*domain.SimulationResult, error) {
	if tx.CommandCount() == 0 {
		return nil, fmt.Errorf("dev inspect: %w", ErrEmptyTransaction)
	}
	raw, err := tx.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	var resp devInspectResponse
	err = c.call(ctx, "dev_inspect", &resp, "sui_devInspectTransactionBlock",
		c.sender, base64.StdEncoding.EncodeToString(raw), nil, nil)
	if err != nil {
		return nil, err
	}

	res := &domain.SimulationResult{
		Success: resp.Effects.Status.Status == "success" && resp.Error == "",
		Error:   resp.Effects.Status.Error,
		Events:  resp.Events,
	}
	if res.Error == "" {
		res.Error = resp.Error
	}
	if gas, err := strconv.ParseUint(resp.Effects.GasUsed.ComputationCost, 10, 64); err == nil {
		res.GasUsed = gas
	}
	if !res.Success {
		return res, fmt.Errorf("%w: %s", ErrSimulationAbort, res.Error)
	}
	return res, nil
}
