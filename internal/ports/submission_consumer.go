package ports

// SubmissionConsumer defines the interface for inbound submission transports
type SubmissionConsumer interface {
	// Start starts consuming submissions
	Start() error

	// Stop stops consuming and releases transport resources
	Stop() error
}
