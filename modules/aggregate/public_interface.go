package aggregate

import "github.com/chebyrash/promise"

// Plugin is the unit of composition for the node. Plugins are initialized in
// the order they are passed to New, started concurrently, and stopped in
// order during shutdown.
type Plugin interface {
	// Runs initialization in order of how they are passed in to `Aggregate`
	Init() error
	// Runs startup and should be non blocking
	Start() *promise.Promise[any]
	// Runs cleanup once the `Aggregate` is finished
	Stop() error
}
