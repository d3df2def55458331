package ports

// Server is a long-running transport that exposes the generator
type Server interface {
	// Start begins serving in the background
	Start() error

	// Stop gracefully shuts the server down
	Stop() error
}
