package sui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// fakeNode is a minimal Sui JSON-RPC node.
type fakeNode struct {
	mu       sync.Mutex
	calls    map[string]int
	versions map[string]uint64
	objects  map[string]json.RawMessage
	// inspect returns the events of a dev-inspected transaction, or a
	// non-empty abort message.
	inspect func(tx []byte) ([]domain.SimulationEvent, string)
	lastTx  []byte
}

func newFakeNode(t *testing.T) (*fakeNode, *Client) {
	t.Helper()
	n := &fakeNode{
		calls:    make(map[string]int),
		versions: make(map[string]uint64),
		objects:  make(map[string]json.RawMessage),
	}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)

	client, err := Dial(context.Background(), srv.URL, "0x1")
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return n, client
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	n.calls[req.Method]++
	n.mu.Unlock()

	var result interface{}
	switch req.Method {
	case "sui_multiGetObjects":
		var ids []string
		_ = json.Unmarshal(req.Params[0], &ids)
		out := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			out = append(out, n.sharedObject(id))
		}
		result = out
	case "sui_getObject":
		var id string
		_ = json.Unmarshal(req.Params[0], &id)
		norm, _ := domain.NormalizeAddress(id)
		if obj, ok := n.objects[norm]; ok {
			result = map[string]interface{}{"data": obj}
		} else {
			result = map[string]interface{}{"error": map[string]string{"code": "notExists", "object_id": id}}
		}
	case "sui_devInspectTransactionBlock":
		var encoded string
		_ = json.Unmarshal(req.Params[1], &encoded)
		raw, _ := base64.StdEncoding.DecodeString(encoded)
		n.mu.Lock()
		n.lastTx = raw
		n.mu.Unlock()
		events, abort := n.inspect(raw)
		status := map[string]string{"status": "success"}
		if abort != "" {
			status = map[string]string{"status": "failure", "error": abort}
		}
		result = map[string]interface{}{
			"effects": map[string]interface{}{
				"status":  status,
				"gasUsed": map[string]string{"computationCost": "1000"},
			},
			"events": events,
		}
	default:
		result = nil
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func (n *fakeNode) sharedObject(id string) interface{} {
	norm, _ := domain.NormalizeAddress(id)
	v, ok := n.versions[norm]
	if !ok {
		return map[string]interface{}{"error": map[string]string{"code": "notExists", "object_id": id}}
	}
	return map[string]interface{}{"data": map[string]interface{}{
		"objectId": norm,
		"version":  "99",
		"owner":    map[string]interface{}{"Shared": map[string]uint64{"initial_shared_version": v}},
	}}
}

func (n *fakeNode) share(id string, version uint64) {
	norm, _ := domain.NormalizeAddress(id)
	n.versions[norm] = version
}
