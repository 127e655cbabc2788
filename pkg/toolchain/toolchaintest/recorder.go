// Package toolchaintest provides toolchain.Runner fakes for tests
package toolchaintest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/arthur-debert/fwprov/pkg/toolchain"
)

// Recorder records every command it is asked to run
type Recorder struct {
	Calls []toolchain.Command

	// FailAt makes the call with the given zero-based index fail
	FailAt map[int]error

	// Hook runs after a call is recorded and may simulate side effects,
	// such as a build writing its artifacts.
	Hook func(cmd toolchain.Command) error
}

// Run implements toolchain.Runner
func (r *Recorder) Run(_ context.Context, cmd toolchain.Command) error {
	r.Calls = append(r.Calls, cmd)
	if err, ok := r.FailAt[len(r.Calls)-1]; ok {
		return err
	}
	if r.Hook != nil {
		return r.Hook(cmd)
	}
	return nil
}

// Actions returns the Action of every recorded call, in order
func (r *Recorder) Actions() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Action
	}
	return out
}

// Lines returns every recorded command line
func (r *Recorder) Lines() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}

// MockRunner is a testify mock for expectation-style tests
type MockRunner struct {
	mock.Mock
}

// Run implements toolchain.Runner
func (m *MockRunner) Run(ctx context.Context, cmd toolchain.Command) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}
