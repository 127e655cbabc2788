package errors

// Process exit statuses, one per failure class.
const (
	ExitOK               = 0
	ExitGeneric          = 1
	ExitConfig           = 2
	ExitUnknownPartition = 3
	ExitSourceMissing    = 4
	ExitExternalTool     = 5
	ExitProvisioning     = 6
	ExitIO               = 7
	ExitCanceled         = 130
)

var exitCodes = map[ErrorCode]int{
	ErrConfigLoad:           ExitConfig,
	ErrConfigParse:          ExitConfig,
	ErrConfigValid:          ExitConfig,
	ErrPartitionInvalid:     ExitConfig,
	ErrPartitionUnknown:     ExitUnknownPartition,
	ErrPartitionSize:        ExitUnknownPartition,
	ErrSourceMissing:        ExitSourceMissing,
	ErrToolFailed:           ExitExternalTool,
	ErrToolNotFound:         ExitExternalTool,
	ErrProvisioning:         ExitProvisioning,
	ErrProvisioningDeclined: ExitProvisioning,
	ErrFileAccess:           ExitIO,
	ErrFileCreate:           ExitIO,
	ErrFileWrite:            ExitIO,
	ErrImageCorrupt:         ExitIO,
	ErrPublish:              ExitIO,
	ErrCanceled:             ExitCanceled,
}

// ExitCode maps an error to the process exit status for its class.
// The outermost FwprovError decides, so a provisioning failure caused by a
// tool failure still exits with ExitProvisioning.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if code, ok := exitCodes[GetErrorCode(err)]; ok {
		return code
	}
	return ExitGeneric
}
