package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + model name and optional fields via key/values.
type Event struct {
	Name    string         `json:"name"`
	ModelID string         `json:"model"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Event names.
const (
	EventDownload       = "download"
	EventModelLoaded    = "model_loaded"
	EventLoadFailed     = "load_failed"
	EventModelUnloaded  = "model_unloaded"
	EventModelDeleted   = "model_deleted"
	EventRegistryLoaded = "registry_loaded"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
