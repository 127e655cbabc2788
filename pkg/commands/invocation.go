package commands

import (
	"sort"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/config"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// validMethods lists the methods each command accepts. read takes a
// partition name instead and is handled separately.
var validMethods = map[types.Command][]types.Method{
	types.CommandBuild:   {types.MethodApp, types.MethodData, types.MethodUpdate, types.MethodClean, types.MethodFullClean},
	types.CommandFlash:   {types.MethodApp, types.MethodData, types.MethodUpdate, types.MethodErase},
	types.CommandPrepare: {types.MethodEncryptChip, types.MethodMenuconfig},
	types.CommandDebug:   {types.MethodMonitor, types.MethodOpenOCD},
	types.CommandPublish: {types.MethodUpdate},
}

// Invocation is one resolved pipeline request. It is built once from the
// command line and never modified.
type Invocation struct {
	Command types.Command
	Method  types.Method
	Variant types.Variant

	// Partition is the read target; empty for other commands
	Partition string

	ProjectDir string
	Config     *config.BuildConfig
}

// NewInvocation validates a command/method pair against the configuration.
// Unknown pairs are usage errors.
func NewInvocation(command, method string, cfg *config.BuildConfig) (*Invocation, error) {
	cmd := types.Command(strings.ToLower(command))
	inv := &Invocation{
		Command:    cmd,
		Variant:    cfg.Target,
		ProjectDir: cfg.ProjectDir,
		Config:     cfg,
	}

	if cmd == types.CommandRead {
		if strings.TrimSpace(method) == "" {
			return nil, errors.New(errors.ErrInvalidInput, "read needs a partition name")
		}
		inv.Method = types.Method(method)
		inv.Partition = method
		return inv, nil
	}

	methods, ok := validMethods[cmd]
	if !ok {
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown command %q (want one of %s)", command, strings.Join(Commands(), ", ")).
			WithDetail("command", command)
	}
	m := types.Method(strings.ToLower(method))
	for _, valid := range methods {
		if m == valid {
			inv.Method = m
			return inv, nil
		}
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "%s does not support %q (want one of %s)", cmd, method, joinMethods(methods)).
		WithDetail("command", string(cmd)).
		WithDetail("method", method)
}

// Commands lists the pipeline commands in sorted order
func Commands() []string {
	out := []string{string(types.CommandRead)}
	for c := range validMethods {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Methods lists the methods accepted by a command
func Methods(cmd types.Command) []types.Method {
	return validMethods[cmd]
}

func joinMethods(ms []types.Method) string {
	s := make([]string, len(ms))
	for i, m := range ms {
		s[i] = string(m)
	}
	return strings.Join(s, ", ")
}
