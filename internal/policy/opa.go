// Package policy decides, through OPA, which tenant may call which Google API.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/af-corp/googleapi/internal/config"
	"github.com/open-policy-agent/opa/v1/rego"
)

const query = "[data.googleapi.policy.allow, data.googleapi.policy.reason]"

// ErrDenied is matched by every policy denial.
var ErrDenied = errors.New("denied by policy")

// DeniedError carries the reason the policy gave.
type DeniedError struct {
	API    string
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: request denied by policy", e.API)
	}
	return fmt.Sprintf("%s: request denied by policy: %s", e.API, e.Reason)
}

func (e *DeniedError) Is(target error) bool { return target == ErrDenied }

// Input is the document OPA evaluates.
type Input struct {
	Tenant  TenantInput  `json:"tenant"`
	Request RequestInput `json:"request"`
	Time    TimeInput    `json:"time"`
}

type TenantInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AllowedAPIs []string `json:"allowed_apis"`
}

type RequestInput struct {
	API    string `json:"api"`
	Signed bool   `json:"signed"`
}

type TimeInput struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator holds the compiled policy. It is safe for concurrent use and
// can be reloaded while requests are in flight.
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	cfg      func() config.PolicyConfig
	now      func() time.Time
}

// NewEvaluator creates a policy evaluator. Call Load() to compile policies.
func NewEvaluator(cfg func() config.PolicyConfig) *Evaluator {
	return &Evaluator{cfg: cfg, now: time.Now}
}

func (e *Evaluator) Enabled() bool { return e.cfg().Enabled }

// Load compiles Rego modules from the bundle path.
func (e *Evaluator) Load() error {
	cfg := e.cfg()
	modules, err := LoadRegoFiles(cfg.BundlePath)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		slog.Warn("no rego files found", "path", cfg.BundlePath)
		return nil
	}
	if err := e.LoadFromModules(modules); err != nil {
		return err
	}
	slog.Info("opa policies loaded", "path", cfg.BundlePath, "modules", moduleNames(modules))
	return nil
}

// LoadFromModules compiles policies from provided module sources.
func (e *Evaluator) LoadFromModules(modules map[string]string) error {
	opts := []func(*rego.Rego){rego.Query(query)}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()
	return nil
}

// Evaluate runs the policy against the given input.
func (e *Evaluator) Evaluate(ctx context.Context, input Input) (bool, string, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		// fail closed
		return false, "no policies loaded", nil
	}

	timeout := e.cfg().EvaluationTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}
	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, "", fmt.Errorf("evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, "no policy result", nil
	}

	arr, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(arr) < 2 {
		return false, "unexpected policy result format", nil
	}
	allowed, _ := arr[0].(bool)
	reason, _ := arr[1].(string)
	return allowed, reason, nil
}

// Check returns nil when the policy is disabled or allows the call, and a
// *DeniedError otherwise. Evaluation errors deny.
func (e *Evaluator) Check(ctx context.Context, tenant TenantInput, api string, signed bool) error {
	if e == nil || !e.Enabled() {
		return nil
	}

	now := e.now().UTC()
	input := Input{
		Tenant:  tenant,
		Request: RequestInput{API: api, Signed: signed},
		Time:    TimeInput{Hour: now.Hour(), Day: now.Weekday().String()},
	}

	allowed, reason, err := e.Evaluate(ctx, input)
	if err != nil {
		slog.Error("policy evaluation failed", "api", api, "tenant_id", tenant.ID, "error", err)
		return &DeniedError{API: api, Reason: "policy evaluation failed"}
	}
	if !allowed {
		return &DeniedError{API: api, Reason: reason}
	}
	return nil
}
