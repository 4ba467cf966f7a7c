package discovery

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/svcreg/errors"
	"github.com/kbukum/svcreg/logger"
)

const tracerName = "github.com/kbukum/svcreg/discovery"

// DeregisterHookName is the name under which the exit-time deregistration
// hook is installed.
const DeregisterHookName = "discovery.deregister"

// State is the registration state of a Client.
type State string

const (
	StateUnregistered State = "unregistered"
	StateRegistered   State = "registered"
)

// RegisterRequest describes the instance to advertise.
type RegisterRequest struct {
	ServiceName string
	// Address is resolved from the local host when empty.
	Address string
	Port    int

	HealthPath      string
	HealthScheme    string
	Interval        time.Duration
	Timeout         time.Duration
	DeregisterAfter time.Duration
	TLSSkipVerify   bool

	Tags     []string
	Metadata map[string]string
}

// ShutdownRegistrar accepts teardown callbacks for the owning process.
// bootstrap.App implements it.
type ShutdownRegistrar interface {
	AddShutdownHook(name string, fn func(ctx context.Context) error)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver sets the sink that receives an Event per registry call.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithSelector replaces the uniform random selector.
func WithSelector(s Selector) Option {
	return func(c *Client) {
		if s != nil {
			c.selector = s
		}
	}
}

// WithTracerProvider sets the tracer provider used for registry spans.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithShutdownRegistrar sets where the exit-time deregistration hook is
// installed after the first successful Register.
func WithShutdownRegistrar(r ShutdownRegistrar) Option {
	return func(c *Client) { c.shutdown = r }
}

// WithHostID fixes the host part of the instance ID.
func WithHostID(id string) Option {
	return func(c *Client) { c.hostID = id }
}

// WithAddressResolver sets how the advertised address is found when a
// RegisterRequest leaves it empty.
func WithAddressResolver(r AddressResolver) Option {
	return func(c *Client) {
		if r != nil {
			c.resolveAddr = r
		}
	}
}

// Client registers this process with a registry, withdraws it on shutdown,
// and finds healthy instances of other services.
//
// Register and Deregister never return errors and Discover reports only
// whether an instance was found. Failures are logged and reported to the
// Observer. Lookup exposes the typed outcome.
//
// Discover and Lookup are safe for concurrent use. Register and Deregister
// are serialized internally.
type Client struct {
	provider    Provider
	endpoint    Endpoint
	log         *logger.Logger
	observer    Observer
	selector    Selector
	tracer      trace.Tracer
	shutdown    ShutdownRegistrar
	hostID      string
	resolveAddr AddressResolver

	opMu          sync.Mutex
	mu            sync.RWMutex
	identity      *Identity
	hookInstalled bool
}

// NewClient creates a Client that talks to the registry through p.
// ep.RequestTimeout bounds every call; DefaultRequestTimeout is used when
// it is not positive.
func NewClient(p Provider, ep Endpoint, opts ...Option) *Client {
	if ep.RequestTimeout <= 0 {
		ep.RequestTimeout = DefaultRequestTimeout
	}
	c := &Client{
		provider:    p,
		endpoint:    ep,
		log:         logger.Get("discovery"),
		observer:    nopObserver{},
		selector:    NewRandomSelector(),
		tracer:      otel.Tracer(tracerName),
		resolveAddr: LocalIP,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the registry endpoint the client was built with.
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Identity returns the registered identity, if any.
func (c *Client) Identity() (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return Identity{}, false
	}
	return *c.identity, true
}

// State reports whether an identity is currently registered.
func (c *Client) State() State {
	if _, ok := c.Identity(); ok {
		return StateRegistered
	}
	return StateUnregistered
}

// Register advertises the instance described by req. On success the
// identity is remembered, replacing any previous one, and the exit-time
// deregistration hook is installed once. On failure the previous state is
// kept.
func (c *Client) Register(ctx context.Context, req RegisterRequest) {
	_ = c.register(ctx, req)
}

// register is Register with the failure returned, for in-package retry
// loops.
func (c *Client) register(ctx context.Context, req RegisterRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "discovery.register", trace.WithAttributes(
		attribute.String("service.name", req.ServiceName),
		attribute.Int("service.port", req.Port),
	))
	defer span.End()
	log := c.log.WithContext(ctx)

	reg, err := c.buildRegistration(req)
	if err == nil {
		span.SetAttributes(attribute.String("service.instance_id", reg.ID))
		err = c.withTimeout(ctx, func(ctx context.Context) error {
			return c.provider.Register(ctx, reg)
		})
		err = asRegistryError(OpRegister, req.ServiceName, err)
	}
	c.finish(ctx, span, OpRegister, req.ServiceName, err, start)

	if err != nil {
		log.Error("service registration failed", failureFields(req.ServiceName, err))
		return err
	}

	c.mu.Lock()
	c.identity = &Identity{
		ServiceName: reg.Name,
		InstanceID:  reg.ID,
		Address:     reg.Address,
		Port:        reg.Port,
	}
	installHook := !c.hookInstalled && c.shutdown != nil
	if installHook {
		c.hookInstalled = true
	}
	c.mu.Unlock()

	if installHook {
		c.shutdown.AddShutdownHook(DeregisterHookName, func(ctx context.Context) error {
			c.Deregister(ctx)
			return nil
		})
	}

	log.Info("service registered", map[string]interface{}{
		logger.FieldServiceName: reg.Name,
		logger.FieldInstanceID:  reg.ID,
		logger.FieldAddress:     reg.Address,
		logger.FieldPort:        reg.Port,
		"check_url":             reg.Check.URL,
		logger.FieldDuration:    time.Since(start).Milliseconds(),
	})
	return nil
}

// Deregister withdraws the registered identity. It makes no registry call
// when nothing is registered. The identity is cleared even if the registry
// call fails.
func (c *Client) Deregister(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	id, ok := c.Identity()
	if !ok {
		c.log.Debug("deregister skipped, nothing registered")
		return
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "discovery.deregister", trace.WithAttributes(
		attribute.String("service.name", id.ServiceName),
		attribute.String("service.instance_id", id.InstanceID),
	))
	defer span.End()

	err := c.withTimeout(ctx, func(ctx context.Context) error {
		return c.provider.Deregister(ctx, id.InstanceID)
	})
	err = asRegistryError(OpDeregister, id.InstanceID, err)

	c.mu.Lock()
	c.identity = nil
	c.mu.Unlock()

	c.finish(ctx, span, OpDeregister, id.ServiceName, err, start)

	log := c.log.WithContext(ctx)
	if err != nil {
		fields := failureFields(id.ServiceName, err)
		fields[logger.FieldInstanceID] = id.InstanceID
		log.Warn("service deregistration failed", fields)
		return
	}
	log.Info("service deregistered", map[string]interface{}{
		logger.FieldServiceName: id.ServiceName,
		logger.FieldInstanceID:  id.InstanceID,
	})
}

// Discover returns one passing instance of serviceName chosen uniformly at
// random. It returns false both when nothing is healthy and when the query
// failed; use Lookup to tell those apart.
func (c *Client) Discover(ctx context.Context, serviceName string) (Instance, bool) {
	inst, err := c.Lookup(ctx, serviceName)
	return inst, err == nil
}

// Lookup is Discover with a typed outcome. The error is an EMPTY_RESULT
// AppError wrapping ErrNoHealthyInstances when the query succeeded with no
// passing instances, and a TRANSPORT_FAILURE or PROTOCOL_FAILURE AppError
// when the query itself failed.
func (c *Client) Lookup(ctx context.Context, serviceName string) (Instance, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "discovery.discover", trace.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	defer span.End()

	var (
		instances []Instance
		err       error
	)
	if serviceName == "" {
		err = errors.MissingField("service_name")
	} else {
		err = c.withTimeout(ctx, func(ctx context.Context) error {
			var derr error
			instances, derr = c.provider.Discover(ctx, serviceName)
			return derr
		})
		err = asRegistryError(OpDiscover, serviceName, err)
	}
	if err == nil && len(instances) == 0 {
		err = errors.EmptyResult(serviceName).WithCause(ErrNoHealthyInstances)
	}
	c.finish(ctx, span, OpDiscover, serviceName, err, start)

	log := c.log.WithContext(ctx)
	switch {
	case err == nil:
	case errors.IsEmptyResult(err):
		log.Debug("no healthy instances", map[string]interface{}{
			logger.FieldServiceName: serviceName,
		})
		return Instance{}, err
	default:
		log.Error("service discovery failed", failureFields(serviceName, err))
		return Instance{}, err
	}

	inst := c.selector.Select(instances)
	span.SetAttributes(
		attribute.Int("discovery.candidates", len(instances)),
		attribute.String("discovery.selected", inst.ID),
	)
	return inst, nil
}

// Close releases the provider.
func (c *Client) Close() error {
	return c.provider.Close()
}

func (c *Client) buildRegistration(req RegisterRequest) (*Registration, error) {
	if req.ServiceName == "" {
		return nil, errors.MissingField("service_name")
	}
	if req.Port < 1 || req.Port > 65535 {
		return nil, errors.InvalidInput("port", "must be between 1 and 65535")
	}

	address := req.Address
	if address == "" {
		resolved, err := c.resolveAddr()
		if err != nil || resolved == "" {
			return nil, errors.InvalidInput("address", "local address could not be resolved").WithCause(err)
		}
		address = resolved
	}

	hostID := c.hostID
	if hostID == "" {
		hostID = HostIdentifier(address)
	}

	return &Registration{
		ID:       InstanceID(req.ServiceName, hostID),
		Name:     req.ServiceName,
		Address:  address,
		Port:     req.Port,
		Tags:     req.Tags,
		Metadata: req.Metadata,
		Check: BuildHealthCheck(HealthCheckInput{
			ServiceName:     req.ServiceName,
			Address:         address,
			Port:            req.Port,
			Path:            req.HealthPath,
			Interval:        req.Interval,
			Timeout:         req.Timeout,
			DeregisterAfter: req.DeregisterAfter,
			Scheme:          req.HealthScheme,
			TLSSkipVerify:   req.TLSSkipVerify,
		}),
	}, nil
}

func (c *Client) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.endpoint.RequestTimeout)
	defer cancel()
	return fn(ctx)
}

func (c *Client) finish(ctx context.Context, span trace.Span, op Operation, service string, err error, start time.Time) {
	outcome := OutcomeOf(err)
	span.SetAttributes(attribute.String("discovery.outcome", string(outcome)))
	if outcome.IsFailure() {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(outcome))
	}
	c.observer.Observe(ctx, Event{
		Operation: op,
		Service:   service,
		Outcome:   outcome,
		Err:       err,
		Duration:  time.Since(start),
	})
}

// asRegistryError treats provider errors that carry no code as transport
// failures.
func asRegistryError(op Operation, service string, err error) error {
	if err == nil || errors.IsAppError(err) {
		return err
	}
	return errors.TransportFailure(string(op), service, err)
}

func failureFields(service string, err error) map[string]interface{} {
	fields := map[string]interface{}{
		logger.FieldServiceName: service,
		logger.FieldFailureKind: string(OutcomeOf(err)),
		logger.FieldError:       err.Error(),
	}
	if status := errors.StatusCode(err); status != 0 {
		fields[logger.FieldStatusCode] = status
	}
	return fields
}
