package data

import "fmt"

// ConfigurationError reports a selector that cannot be resolved: a field name
// without a collection to look it up in, a missing or mistyped field, or a
// rate list that does not match the trial count.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: field %q: %s", e.Field, e.Reason)
}
