package ports

// Frontend defines the interface for a network surface that feeds records to the classifier
type Frontend interface {
	// Name identifies the frontend in logs
	Name() string

	// Start starts serving in the background
	Start() error

	// Stop stops serving
	Stop() error
}
