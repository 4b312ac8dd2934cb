package driven

// ConfigStore holds settings under dotted keys such as "retrieval.top_k".
// Typed getters return the zero value for missing or unconvertible values,
// so callers layer their own defaults on top.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores value and persists it immediately.
	Set(key string, value any) error

	// Save persists every value.
	Save() error

	// Path names where values are persisted, for display.
	Path() string
}
