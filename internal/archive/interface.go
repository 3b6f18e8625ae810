package archive

// Archive keeps raw JSON snapshots of collected batches, outside the
// deduplicated store, so a collection run can be replayed or audited.
type Archive interface {
	Store(name string, data []byte) error
	Retrieve(name string) ([]byte, error)
	List(prefix string) ([]string, error)
}
