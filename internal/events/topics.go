package events

// Topic constants for domain events emitted by the storefront API.
const (
	TopicOrderCreated          = "order.created"
	TopicCheckoutIntentCreated = "checkout.intent_created"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicCheckoutIntentCreated,
	}
}
