package interp

import (
	"fmt"
	"io"
	"strings"

	"github.com/mna/adeptc/lang/types"
)

// BuildHandler is the SyscallHandler a real build-script evaluation
// uses (as opposed to NopSyscallHandler, reserved for tests that don't
// exercise the syscall surface): it prints to Stdout and records the
// build-graph side effects (added projects, link inputs, imported
// namespaces, declared dependencies) the prelude's builtins produce,
// routing Print through its own Stdout rather than directly to
// os.Stdout.
type BuildHandler struct {
	Stdout io.Writer

	AddedProjects    []string
	LinkFilenames    []string
	ImportedNames    []string
	Dependencies     []string
	ExperimentalUsed bool
	DontAssumeInt32Min bool
}

var _ SyscallHandler = (*BuildHandler)(nil)

func (h *BuildHandler) writer() io.Writer {
	if h.Stdout != nil {
		return h.Stdout
	}
	return io.Discard
}

func (h *BuildHandler) Println(args []types.Value) (types.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Fprintln(h.writer(), strings.Join(parts, " "))
	return types.NewUndefined(), nil
}

func stringArg(args []types.Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("interp: syscall expects at least %d argument(s)", i+1)
	}
	s, ok := args[i].(types.String)
	if !ok {
		return "", fmt.Errorf("interp: syscall argument %d must be a string, got %s", i, args[i].Type())
	}
	return s.V, nil
}

func (h *BuildHandler) BuildAddProject(args []types.Value) (types.Value, error) {
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	h.AddedProjects = append(h.AddedProjects, name)
	return types.NewUndefined(), nil
}

func (h *BuildHandler) BuildLinkFilename(args []types.Value) (types.Value, error) {
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	h.LinkFilenames = append(h.LinkFilenames, name)
	return types.NewUndefined(), nil
}

func (h *BuildHandler) ImportNamespace(args []types.Value) (types.Value, error) {
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	h.ImportedNames = append(h.ImportedNames, name)
	return types.NewUndefined(), nil
}

func (h *BuildHandler) UseDependency(args []types.Value) (types.Value, error) {
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	h.Dependencies = append(h.Dependencies, name)
	return types.NewUndefined(), nil
}

func (h *BuildHandler) Experimental(args []types.Value) (types.Value, error) {
	h.ExperimentalUsed = true
	return types.NewUndefined(), nil
}

func (h *BuildHandler) DontAssumeIntAtLeast32Bits(args []types.Value) (types.Value, error) {
	h.DontAssumeInt32Min = true
	return types.NewUndefined(), nil
}

// Exit implements the exit() build-script builtin (ir.SyscallKind.Exit),
// distinct from the EXIT bytecode instruction (ir.ExitInterpreter):
// this one is an ordinary syscall a script calls explicitly and whose
// result flows back like any other call, while EXIT is the terminator
// a `Computed(value)` CFG node lowers to and unwinds the whole
// Interpreter.Run immediately.
func (h *BuildHandler) Exit(args []types.Value) (types.Value, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return types.NewUndefined(), nil
}
