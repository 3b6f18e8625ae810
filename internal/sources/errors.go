package sources

import "fmt"

// ConfigError reports a missing or placeholder credential. It is raised
// before any network call and is never retried; the HTTP layer maps it to a
// client error instead of a server failure.
type ConfigError struct {
	Service string
	Hint    string
}

func (e *ConfigError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s not configured: %s", e.Service, e.Hint)
	}
	return fmt.Sprintf("%s not configured", e.Service)
}
