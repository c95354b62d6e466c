package speech

import "github.com/KamoLovesCode/news/internal/pubsub"

// Events bundles the manager's broadcast topics. Delivery is synchronous and
// serialized with the manager's own state changes, so a handler always
// observes a status that is already backed by the underlying resources.
// Handlers must not call back into the Manager.
type Events struct {
	StatusChanged pubsub.Topic[Status]
	VolumeChanged pubsub.Topic[float64]
	ConfigChanged pubsub.Topic[SynthesisConfig]
	Error         pubsub.Topic[error]
}
