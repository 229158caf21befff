package main

// Exit codes used across toil commands.
const (
	// ExitSuccess indicates the command completed without issues.
	ExitSuccess = 0

	// ExitError indicates a general failure (I/O, database, network).
	ExitError = 1

	// ExitConfigError indicates no registry was found or config is unusable.
	ExitConfigError = 2

	// ExitValidationError indicates the registry data failed validation,
	// including index parse errors.
	ExitValidationError = 3

	// ExitDriftError indicates the JSON exports have drifted from the index.
	ExitDriftError = 4
)
