package ink

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	registered Compiler
)

// RegisterCompiler installs the interpreter binding the daemon compiles
// stories with. Deployments call this from an init function in their
// interpreter integration, the same way database drivers register
// themselves. Registering twice panics: two bindings in one binary is a
// build mistake, not a runtime condition.
func RegisterCompiler(c Compiler) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if c == nil {
		panic("ink: RegisterCompiler with nil compiler")
	}
	if registered != nil {
		panic("ink: compiler already registered")
	}
	registered = c
}

// Compile builds a Runtime from story content using the registered
// interpreter binding.
func Compile(content string) (Runtime, error) {
	registryMu.RLock()
	c := registered
	registryMu.RUnlock()
	if c == nil {
		return nil, fmt.Errorf("ink: no interpreter registered")
	}
	return c(content)
}
