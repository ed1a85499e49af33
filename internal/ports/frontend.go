package ports

// Frontend is a long-running surface that feeds mail into the concierge
type Frontend interface {
	// Start starts serving; it returns once the listener is up
	Start() error

	// Stop stops serving and releases the listener
	Stop() error
}
