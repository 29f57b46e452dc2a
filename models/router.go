package models

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/format"
)

type route struct {
	backend Backend
	format  format.Format
}

// Router implements agentdoc.Model and agentdoc.Flattener over named backends. It owns the
// per-attempt timeout and the retry loop, so backends only perform a single request.
//
// Example usage:
//
//	router := models.NewRouter().
//	    WithBackend("openai", backend, format.NewXML()).
//	    WithDefault("openai").
//	    WithRetry(3, time.Second)
//
//	reply, err := router.Call(ctx, "", router.Flatten("", content))
type Router struct {
	routes          map[string]route
	defaultProvider string
	timeout         time.Duration
	maxAttempts     int
	backoff         time.Duration
	sleep           func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	usage map[string]Usage
}

// NewRouter creates a router without backends. Calls are attempted once with no timeout
// until configured otherwise.
func NewRouter() *Router {
	return &Router{
		routes:      map[string]route{},
		maxAttempts: 1,
		sleep:       sleepContext,
		usage:       map[string]Usage{},
	}
}

// WithBackend registers backend under name. A nil format selects XML.
func (r *Router) WithBackend(name string, backend Backend, f format.Format) *Router {
	if f == nil {
		f = format.NewXML()
	}
	r.routes[name] = route{backend: backend, format: f}
	return r
}

// WithDefault selects the provider used when a call names none.
func (r *Router) WithDefault(name string) *Router {
	r.defaultProvider = name
	return r
}

// WithTimeout bounds every attempt. Zero disables the bound.
func (r *Router) WithTimeout(timeout time.Duration) *Router {
	r.timeout = timeout
	return r
}

// WithRetry retries transient failures up to maxAttempts in total, sleeping an exponential
// backoff with jitter between attempts.
func (r *Router) WithRetry(maxAttempts int, backoff time.Duration) *Router {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	r.maxAttempts = maxAttempts
	r.backoff = backoff
	return r
}

// Providers returns the registered provider names, sorted.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the default provider name.
func (r *Router) Default() string {
	return r.defaultProvider
}

// Flatten implements agentdoc.Flattener with the format of provider.
func (r *Router) Flatten(provider string, content agentdoc.ModelContent) string {
	if rt, ok := r.routes[r.resolve(provider)]; ok {
		return rt.format.Flatten(content)
	}
	return format.NewXML().Flatten(content)
}

// Call implements agentdoc.Model.
func (r *Router) Call(ctx context.Context, provider string, query string) (string, error) {
	name := r.resolve(provider)
	rt, ok := r.routes[name]
	if !ok {
		return "", &ModelError{
			Provider:    name,
			QueryDigest: QueryDigest(query),
			Err:         fmt.Errorf("%w %q", ErrUnknownProvider, name),
		}
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := r.sleep(ctx, r.delay(attempt)); err != nil {
				return "", agentdoc.Canceled(ctx)
			}
		}

		reply, err := r.attempt(ctx, rt.backend, query)
		if err == nil {
			r.record(name, reply.Usage)
			return reply.Text, nil
		}
		if ctx.Err() != nil {
			return "", agentdoc.Canceled(ctx)
		}
		lastErr = err
		if !IsTransient(err) {
			return "", &ModelError{Provider: name, QueryDigest: QueryDigest(query), Attempts: attempt, Err: err}
		}
	}
	return "", &ModelError{Provider: name, QueryDigest: QueryDigest(query), Attempts: r.maxAttempts, Err: lastErr}
}

func (r *Router) attempt(ctx context.Context, backend Backend, query string) (*Reply, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	reply, err := backend.Generate(ctx, query)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, fmt.Errorf("backend returned no reply")
	}
	return reply, nil
}

// Usage returns the accumulated usage per provider.
func (r *Router) Usage() map[string]Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Usage, len(r.usage))
	for k, v := range r.usage {
		out[k] = v
	}
	return out
}

func (r *Router) record(provider string, usage Usage) {
	if usage.Calls == 0 {
		usage.Calls = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[provider] = r.usage[provider].Add(usage)
}

func (r *Router) resolve(provider string) string {
	if provider == "" {
		return r.defaultProvider
	}
	return provider
}

// delay returns backoff * 2^(attempt-2) plus up to 50% jitter.
func (r *Router) delay(attempt int) time.Duration {
	if r.backoff <= 0 {
		return 0
	}
	d := r.backoff << (attempt - 2)
	return d + time.Duration(rand.Int64N(int64(d)/2+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var (
	_ agentdoc.Model     = (*Router)(nil)
	_ agentdoc.Flattener = (*Router)(nil)
)
