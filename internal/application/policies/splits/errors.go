package splits

import "errors"

var (
	ErrPublishingLocked        = errors.New("Publishing splits are locked. Unlock publishing before editing")
	ErrPublishingAlreadyLocked = errors.New("Publishing splits are already locked")
	ErrPublishingNotLocked     = errors.New("Publishing splits must be locked before master splits can be edited or locked")
	ErrMasterLocked            = errors.New("Master splits are locked. Unlock master before editing")
	ErrMasterAlreadyLocked     = errors.New("Master splits are already locked")
)

// Validation codes returned in Issue.Code.
const (
	CodeMissingRole                 = "MISSING_ROLE"
	CodeRoleNotEligible             = "ROLE_NOT_ELIGIBLE"
	CodeMusicianPublishingForbidden = "MUSICIAN_PUBLISHING_FORBIDDEN"
	CodeVocalistPublishingForbidden = "VOCALIST_PUBLISHING_FORBIDDEN"
	CodeProducerPublishingForbidden = "PRODUCER_PUBLISHING_FORBIDDEN"
	CodeWriterMasterForbidden       = "WRITER_MASTER_FORBIDDEN"
	CodeLabelRowNotAllowed          = "LABEL_ROW_NOT_ALLOWED"
	CodeNegativeValue               = "NEGATIVE_VALUE"
	CodeExceedsMax                  = "EXCEEDS_MAX"
	CodeInvalidValue                = "INVALID_VALUE"
	CodeDuplicateSongCollaborators  = "DUPLICATE_SONG_COLLABORATORS"
	CodeDuplicateCollaboratorRole   = "DUPLICATE_COLLABORATOR_ROLE"
	CodeDuplicatePublishingEntities = "DUPLICATE_PUBLISHING_ENTITIES"
	CodeInvalidTotal                = "INVALID_TOTAL"
	CodeInvalidWriterShare          = "INVALID_WRITER_SHARE"
	CodeInvalidPublisherShare       = "INVALID_PUBLISHER_SHARE"
)

// ValidationError carries a failed Result out of the workflow service.
type ValidationError struct {
	Message string
	Result  Result
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + e.Result.Errors[0].Message
}

// FirstCode returns the code of the first validation error, or "" when there is none.
func (e *ValidationError) FirstCode() string {
	if len(e.Result.Errors) == 0 {
		return ""
	}
	return e.Result.Errors[0].Code
}
