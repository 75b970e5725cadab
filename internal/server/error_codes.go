package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidQuery    = 1003
	ErrCodeMissingRequired = 1009
	ErrCodeInvalidName     = 1015
	ErrCodeInvalidUpload   = 1016

	// Domain state (2xxx)
	ErrCodeFileNotFound      = 2001
	ErrCodeNamespaceNotFound = 2002
	ErrCodeJournalDisabled   = 2003

	// Internal/system (4xxx)
	ErrCodeInternal           = 4001
	ErrCodeStorageUnavailable = 4002
	ErrCodeJournalFailure     = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 404:
		return ErrCodeFileNotFound
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
