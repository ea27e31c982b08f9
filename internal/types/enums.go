package types

// Merge type values
const (
	MergeTemporary = "TEMPORARY"
	MergePermanent = "PERMANENT"
)

// Privacy mode values
const (
	PrivacyPublic    = "PUBLIC"
	PrivacyAnonymous = "ANONYMOUS"
)

// Merge request status values
const (
	RequestPending  = "PENDING"
	RequestAccepted = "ACCEPTED"
	RequestRejected = "REJECTED"
)

// Valid values for validation
var ValidMergeTypes = []string{MergeTemporary, MergePermanent}

var ValidPrivacyModes = []string{PrivacyPublic, PrivacyAnonymous}

var ValidRequestStatuses = []string{RequestPending, RequestAccepted, RequestRejected}

// Helper functions for validation
func IsValidMergeType(mergeType string) bool {
	for _, t := range ValidMergeTypes {
		if t == mergeType {
			return true
		}
	}
	return false
}

func IsValidPrivacyMode(mode string) bool {
	for _, m := range ValidPrivacyModes {
		if m == mode {
			return true
		}
	}
	return false
}

func IsValidRequestStatus(status string) bool {
	for _, s := range ValidRequestStatuses {
		if s == status {
			return true
		}
	}
	return false
}
