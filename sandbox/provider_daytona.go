package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// DaytonaProvider creates backends that execute commands inside a remote
// Daytona sandbox workspace over a websocket exec channel, instead of a
// local bwrap/seatbelt child process. The wire shape here (REST create +
// websocket exec) mirrors the remote-sandbox-provider pattern used
// elsewhere in the ecosystem for agent sandboxes.
type DaytonaProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu       sync.Mutex
	backends map[string]*daytonaBackend
}

func NewDaytonaProvider() *DaytonaProvider {
	return &DaytonaProvider{
		baseURL:  envOr("DAYTONA_API_URL", "https://app.daytona.io/api"),
		apiKey:   os.Getenv("DAYTONA_API_KEY"),
		client:   &http.Client{Timeout: 30 * time.Second},
		backends: make(map[string]*daytonaBackend),
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func (p *DaytonaProvider) Type() string { return "daytona" }

type daytonaCreateRequest struct {
	Whitelist []string `json:"whitelist"`
	Blacklist []string `json:"blacklist"`
}

type daytonaCreateResponse struct {
	WorkspaceId string `json:"workspaceId"`
	ExecWSURL   string `json:"execWsUrl"`
}

func (p *DaytonaProvider) Create(opts CreateOptions) (Backend, error) {
	if p.apiKey == "" {
		return nil, opErrorf(ErrPlatformUnavailable, "DaytonaProvider.Create", "DAYTONA_API_KEY is not set")
	}

	reqBody, err := json.Marshal(daytonaCreateRequest{
		Whitelist: opts.Policy.Filesystem.Whitelist,
		Blacklist: opts.Policy.Filesystem.Blacklist,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/workspaces", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, opErrorf(ErrSessionFailure, "DaytonaProvider.Create", "creating remote workspace: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, opErrorf(ErrSessionFailure, "DaytonaProvider.Create", "remote workspace create returned status %d", resp.StatusCode)
	}

	var created daytonaCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, opErrorf(ErrSessionFailure, "DaytonaProvider.Create", "decoding create response: %v", err)
	}

	wsCtx, wsCancel := context.WithCancel(context.Background())
	conn, _, err := websocket.Dial(wsCtx, created.ExecWSURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + p.apiKey}},
	})
	if err != nil {
		wsCancel()
		return nil, opErrorf(ErrSessionFailure, "DaytonaProvider.Create", "dialing exec websocket: %v", err)
	}

	backend := &daytonaBackend{
		id:          NewBackendId("daytona"),
		workspaceId: created.WorkspaceId,
		conn:        conn,
		cancel:      wsCancel,
	}

	p.mu.Lock()
	p.backends[backend.id] = backend
	p.mu.Unlock()

	return backend, nil
}

func (p *DaytonaProvider) Destroy(backendId string) error {
	p.mu.Lock()
	backend, ok := p.backends[backendId]
	delete(p.backends, backendId)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return backend.Dispose()
}

func (p *DaytonaProvider) List() []BackendStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]BackendStatus, 0, len(p.backends))
	for id, b := range p.backends {
		out = append(out, BackendStatus{Id: id, Status: b.workspaceId})
	}
	return out
}

// daytonaBackend runs commands inside a remote workspace's exec websocket.
// It never runs a pre-check: blacklist enforcement for remote workspaces is
// the remote workspace's own responsibility, configured at Create time via
// daytonaCreateRequest.
type daytonaBackend struct {
	id          string
	workspaceId string
	conn        *websocket.Conn
	cancel      context.CancelFunc
}

type daytonaExecRequest struct {
	Command string `json:"command"`
}

type daytonaExecResponse struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	Blocked  bool   `json:"blocked"`
	Reason   string `json:"blockedReason"`
	Resource string `json:"blockedResource"`
}

func (b *daytonaBackend) Id() string { return b.id }

func (b *daytonaBackend) Execute(command string) (ExecuteResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reqBody, err := json.Marshal(daytonaExecRequest{Command: command})
	if err != nil {
		return ExecuteResult{}, err
	}

	if err := b.conn.Write(ctx, websocket.MessageText, reqBody); err != nil {
		return ExecuteResult{}, opErrorf(ErrSessionFailure, "daytonaBackend.Execute", "writing exec request: %v", err)
	}

	_, data, err := b.conn.Read(ctx)
	if err != nil {
		return ExecuteResult{}, opErrorf(ErrSessionFailure, "daytonaBackend.Execute", "reading exec response: %v", err)
	}

	var resp daytonaExecResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ExecuteResult{}, opErrorf(ErrSessionFailure, "daytonaBackend.Execute", "decoding exec response: %v", err)
	}

	return ExecuteResult{
		Stdout:          resp.Stdout,
		Stderr:          resp.Stderr,
		ExitCode:        resp.ExitCode,
		Blocked:         resp.Blocked,
		BlockedReason:   resp.Reason,
		BlockedResource: resp.Resource,
	}, nil
}

func (b *daytonaBackend) Dispose() error {
	defer b.cancel()
	return b.conn.Close(websocket.StatusNormalClosure, "")
}
