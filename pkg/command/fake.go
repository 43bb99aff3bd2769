package command

import (
	"context"
	"strings"
	"sync"

	"github.com/mendhq/mend/pkg/types"
)

// Fake is an in-memory Runner for tests. Responses are matched by
// command prefix; unmatched commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string]types.CommandResult
	errs      map[string]error
	calls     []string
}

// NewFake creates an empty fake runner
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]types.CommandResult),
		errs:      make(map[string]error),
	}
}

// Respond registers a canned result for commands starting with prefix
func (f *Fake) Respond(prefix string, result types.CommandResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = result
}

// Fail registers an execution error for commands starting with prefix
func (f *Fake) Fail(prefix string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[prefix] = err
}

// Run implements Runner
func (f *Fake) Run(_ context.Context, name string, args ...string) (types.CommandResult, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)

	for prefix, err := range f.errs {
		if strings.HasPrefix(line, prefix) {
			return types.CommandResult{ExitCode: -1}, err
		}
	}
	for prefix, result := range f.responses {
		if strings.HasPrefix(line, prefix) {
			return result, nil
		}
	}
	return types.CommandResult{}, nil
}

// Calls returns every command line the fake has seen
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CalledWith reports whether any call starts with prefix
func (f *Fake) CalledWith(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}
