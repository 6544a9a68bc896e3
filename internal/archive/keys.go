package archive

// Keyspace helpers for archive keys.
//
// Layout (byte-wise, lexicographically sortable):
// - lt/{tenant}/{origin}/{topic}/e/{event_id_hex}
//
// Event IDs embed the creation time in their upper bytes, so iterating a
// topic prefix yields events in store order.

var (
	sep      = byte('/')
	prefix   = []byte("lt/")
	entrySeg = []byte("/e/")
)

// KeyEntry builds the key for one archived event.
func KeyEntry(tenant, origin, topic, eventID string) []byte {
	k := KeyTopicPrefix(tenant, origin, topic)
	k = append(k, eventID...)
	return k
}

// KeyTopicPrefix returns the range prefix covering every event of a topic.
func KeyTopicPrefix(tenant, origin, topic string) []byte {
	k := make([]byte, 0, len(prefix)+len(tenant)+len(origin)+len(topic)+len(entrySeg)+2+32)
	k = append(k, prefix...)
	k = append(k, tenant...)
	k = append(k, sep)
	k = append(k, origin...)
	k = append(k, sep)
	k = append(k, topic...)
	k = append(k, entrySeg...)
	return k
}
