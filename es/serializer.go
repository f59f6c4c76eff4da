package es

// Serializer converts commits to and from opaque byte payloads.
// Implementations must satisfy Deserialize(Serialize(c)) == c for every commit.
type Serializer interface {
	Serialize(commit AggregateCommit) ([]byte, error)
	Deserialize(data []byte) (AggregateCommit, error)
}
