package model

// Version constants for persisted formats.
const (
	// BackupVersion is written into every exported backup file.
	BackupVersion = 4

	// AppVersion is the QuickBill build version.
	AppVersion = "0.4.0"
)
