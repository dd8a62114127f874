package exitcodes

// Exit codes for mdclean
// These codes form the contract with scripts and operators
const (
	Success      = 0   // Normal completion, including declined and dry runs
	RuntimeError = 1   // Unexpected error, invalid flags or configuration
	Interrupted  = 130 // Cancelled by SIGINT or SIGTERM (128 + SIGINT)
)
