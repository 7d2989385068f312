package user

// NewMemStore exposes the in-memory store to the external test package
func NewMemStore() Store {
	return newMemStore()
}
