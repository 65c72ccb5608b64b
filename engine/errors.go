package engine

import "fmt"

// ConfigurationError reports invalid engine configuration. It is fatal at
// construction: the engine refuses to start rather than normalize bad values.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("engine config: %s: %s", e.Field, e.Reason)
}

// InvalidRequestError reports a transition request that cannot be admitted
// (unknown or empty target scene). Surfaced synchronously to the caller of
// Request, never swallowed into the queue.
type InvalidRequestError struct {
	SceneID string
	Reason  string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("transition request %q: %s", e.SceneID, e.Reason)
}
