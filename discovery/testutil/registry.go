package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/svcreg/component"
	"github.com/kbukum/svcreg/discovery"
	"github.com/kbukum/svcreg/testutil"
)

// Registry operations that can be made to fail.
const (
	OpRegister   = "register"
	OpDeregister = "deregister"
	OpHealth     = "health"
)

// CheckPayload is the Check object of a register request.
type CheckPayload struct {
	Name                           string `json:"Name,omitempty"`
	HTTP                           string `json:"HTTP,omitempty"`
	Interval                       string `json:"Interval,omitempty"`
	Timeout                        string `json:"Timeout,omitempty"`
	Status                         string `json:"Status,omitempty"`
	TLSSkipVerify                  bool   `json:"TLSSkipVerify,omitempty"`
	DeregisterCriticalServiceAfter string `json:"DeregisterCriticalServiceAfter,omitempty"`
}

// RegisterPayload is the body of a register request.
type RegisterPayload struct {
	ID      string            `json:"ID"`
	Name    string            `json:"Name"`
	Address string            `json:"Address"`
	Port    int               `json:"Port"`
	Tags    []string          `json:"Tags,omitempty"`
	Meta    map[string]string `json:"Meta,omitempty"`
	Check   *CheckPayload     `json:"Check,omitempty"`
}

// Request is one request received by the stub.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

type serviceJSON struct {
	ID      string            `json:"ID"`
	Service string            `json:"Service"`
	Address string            `json:"Address"`
	Port    int               `json:"Port"`
	Tags    []string          `json:"Tags"`
	Meta    map[string]string `json:"Meta"`
}

type entryJSON struct {
	Service serviceJSON `json:"Service"`
}

type failure struct {
	status int
	body   string
}

// Registry is an in-process registry agent that speaks the subset of the
// Consul HTTP API the discovery client uses. It records every request.
//
// Registered services are stored but are only returned by health queries
// once marked passing with SetPassing. Instances added with AddHealthy are
// always returned.
type Registry struct {
	mu         sync.RWMutex
	server     *httptest.Server
	requests   []Request
	registered map[string]RegisterPayload
	passing    map[string]bool
	healthy    map[string][]discovery.Instance
	failures   map[string]failure
	rawHealth  map[string]string
	delay      time.Duration
}

var (
	_ component.Component    = (*Registry)(nil)
	_ testutil.TestComponent = (*Registry)(nil)
)

// NewRegistry creates a stopped stub registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.resetLocked()
	return r
}

func (r *Registry) resetLocked() {
	r.requests = nil
	r.registered = make(map[string]RegisterPayload)
	r.passing = make(map[string]bool)
	r.healthy = make(map[string][]discovery.Instance)
	r.failures = make(map[string]failure)
	r.rawHealth = make(map[string]string)
	r.delay = 0
}

// --- component.Component ---

// Name returns the component name.
func (r *Registry) Name() string { return "registry-stub" }

// Start begins serving on a loopback port.
func (r *Registry) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.server != nil {
		return fmt.Errorf("registry stub already started")
	}
	r.server = httptest.NewServer(r.routes())
	return nil
}

// Stop shuts the server down.
func (r *Registry) Stop(_ context.Context) error {
	r.mu.Lock()
	srv := r.server
	r.server = nil
	r.mu.Unlock()
	if srv != nil {
		srv.Close()
	}
	return nil
}

// Health reports whether the server is running.
func (r *Registry) Health(_ context.Context) component.Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.server == nil {
		return component.Health{Name: r.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: r.Name(), Status: component.StatusHealthy}
}

// --- testutil.TestComponent ---

// Reset clears recorded requests, registrations, and injected failures.
func (r *Registry) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	return nil
}

type snapshot struct {
	registered map[string]RegisterPayload
	passing    map[string]bool
	healthy    map[string][]discovery.Instance
}

// Snapshot captures registrations and healthy instances.
func (r *Registry) Snapshot(_ context.Context) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := &snapshot{
		registered: make(map[string]RegisterPayload, len(r.registered)),
		passing:    make(map[string]bool, len(r.passing)),
		healthy:    make(map[string][]discovery.Instance, len(r.healthy)),
	}
	for k, v := range r.registered {
		snap.registered[k] = v
	}
	for k, v := range r.passing {
		snap.passing[k] = v
	}
	for k, v := range r.healthy {
		snap.healthy[k] = append([]discovery.Instance(nil), v...)
	}
	return snap, nil
}

// Restore rewinds to a Snapshot.
func (r *Registry) Restore(_ context.Context, s interface{}) error {
	snap, ok := s.(*snapshot)
	if !ok {
		return fmt.Errorf("invalid snapshot type: expected *snapshot, got %T", s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = snap.registered
	r.passing = snap.passing
	r.healthy = snap.healthy
	return nil
}

// --- configuration ---

// URL returns the base URL of the running server.
func (r *Registry) URL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.server == nil {
		return ""
	}
	return r.server.URL
}

// Endpoint returns a discovery.Endpoint pointing at the running server.
func (r *Registry) Endpoint() discovery.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.server == nil {
		return discovery.Endpoint{}
	}
	host, port, _ := net.SplitHostPort(r.server.Listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return discovery.Endpoint{Host: host, Port: p, RequestTimeout: 2 * time.Second}
}

// AddHealthy adds passing instances returned for name.
func (r *Registry) AddHealthy(name string, instances ...discovery.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthy[name] = append(r.healthy[name], instances...)
}

// SetPassing marks a registered instance as passing or not.
func (r *Registry) SetPassing(instanceID string, passing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passing[instanceID] = passing
}

// SetHealthBody makes health queries for name return body verbatim.
func (r *Registry) SetHealthBody(name, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawHealth[name] = body
}

// Fail makes every request for op answer with status and body until
// cleared with Fail(op, 0, "").
func (r *Registry) Fail(op string, status int, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status == 0 {
		delete(r.failures, op)
		return
	}
	r.failures[op] = failure{status: status, body: body}
}

// SetDelay delays every response by d.
func (r *Registry) SetDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = d
}

// --- inspection ---

// Requests returns every request received so far.
func (r *Registry) Requests() []Request {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Request(nil), r.requests...)
}

// RequestCount returns the number of requests received so far.
func (r *Registry) RequestCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.requests)
}

// Registrations returns the register payloads received, in order.
func (r *Registry) Registrations() []RegisterPayload {
	var out []RegisterPayload
	for _, req := range r.Requests() {
		if req.Method != http.MethodPut || req.Path != "/v1/agent/service/register" {
			continue
		}
		var p RegisterPayload
		if err := json.Unmarshal(req.Body, &p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Registered returns the currently registered payload for instanceID.
func (r *Registry) Registered(instanceID string) (RegisterPayload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.registered[instanceID]
	return p, ok
}

// --- HTTP ---

func (r *Registry) routes() http.Handler {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(r.record)

	engine.PUT("/v1/agent/service/register", r.handleRegister)
	engine.PUT("/v1/agent/service/deregister/:id", r.handleDeregister)
	engine.GET("/v1/health/service/:name", r.handleHealth)
	return engine
}

func (r *Registry) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	r.mu.Lock()
	r.requests = append(r.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Body:   body,
	})
	delay := r.delay
	r.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	c.Set(bodyKey, body)
	c.Next()
}

const bodyKey = "registry.body"

func requestBody(c *gin.Context) []byte {
	b, _ := c.MustGet(bodyKey).([]byte)
	return b
}

func (r *Registry) failed(c *gin.Context, op string) bool {
	r.mu.RLock()
	f, ok := r.failures[op]
	r.mu.RUnlock()
	if ok {
		c.String(f.status, f.body)
	}
	return ok
}

func (r *Registry) handleRegister(c *gin.Context) {
	if r.failed(c, OpRegister) {
		return
	}
	var p RegisterPayload
	if err := json.Unmarshal(requestBody(c), &p); err != nil {
		c.String(http.StatusBadRequest, "Request decode failed: %v", err)
		return
	}
	if p.Name == "" {
		c.String(http.StatusBadRequest, "Missing service name")
		return
	}
	if p.ID == "" {
		p.ID = p.Name
	}
	r.mu.Lock()
	r.registered[p.ID] = p
	r.mu.Unlock()
	c.Status(http.StatusOK)
}

func (r *Registry) handleDeregister(c *gin.Context) {
	if r.failed(c, OpDeregister) {
		return
	}
	id := c.Param("id")
	r.mu.Lock()
	_, ok := r.registered[id]
	delete(r.registered, id)
	delete(r.passing, id)
	r.mu.Unlock()
	if !ok {
		c.String(http.StatusNotFound, "Unknown service ID %q. Ensure that the service ID is passed, not the service name.", id)
		return
	}
	c.Status(http.StatusOK)
}

func (r *Registry) handleHealth(c *gin.Context) {
	if r.failed(c, OpHealth) {
		return
	}
	name := c.Param("name")

	r.mu.RLock()
	raw, hasRaw := r.rawHealth[name]
	entries := make([]entryJSON, 0)
	for _, inst := range r.healthy[name] {
		entries = append(entries, entryJSON{Service: serviceJSON{
			ID: inst.ID, Service: name, Address: inst.Address, Port: inst.Port,
			Tags: inst.Tags, Meta: inst.Metadata,
		}})
	}
	for id, p := range r.registered {
		if p.Name != name || !r.passing[id] {
			continue
		}
		entries = append(entries, entryJSON{Service: serviceJSON{
			ID: p.ID, Service: p.Name, Address: p.Address, Port: p.Port,
			Tags: p.Tags, Meta: p.Meta,
		}})
	}
	r.mu.RUnlock()

	if hasRaw {
		c.Data(http.StatusOK, "application/json", []byte(raw))
		return
	}
	c.JSON(http.StatusOK, entries)
}
