// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"
	// CodeInternal represents an unexpected engine failure.
	CodeInternal Code = "INTERNAL"

	// Command errors
	CodeCommandTypeUnknown    Code = "COMMAND_TYPE_UNKNOWN"
	CodeCommandPayloadInvalid Code = "COMMAND_PAYLOAD_INVALID"
	CodeCommandRejected       Code = "COMMAND_REJECTED"

	// Undo errors
	CodeEmptyUndoStack      Code = "EMPTY_UNDO_STACK"
	CodeUndoNotRequested    Code = "UNDO_NOT_REQUESTED"
	CodeUndoSelfApproval    Code = "UNDO_SELF_APPROVAL"
	CodeUndoNotRequester    Code = "UNDO_NOT_REQUESTER"
	CodeUndoSnapshotCorrupt Code = "UNDO_SNAPSHOT_CORRUPT"

	// Response window errors
	CodeResponseWindowWaiting      Code = "RESPONSE_WINDOW_WAITING"
	CodeResponseWindowNotResponder Code = "RESPONSE_WINDOW_NOT_RESPONDER"

	// Interaction errors
	CodeInteractionPending        Code = "INTERACTION_PENDING"
	CodeInteractionNone           Code = "INTERACTION_NONE"
	CodeInteractionNotOwner       Code = "INTERACTION_NOT_OWNER"
	CodeInteractionKindMismatch   Code = "INTERACTION_KIND_MISMATCH"
	CodeInteractionInvalidOption  Code = "INTERACTION_INVALID_OPTION"
	CodeInteractionOptionDisabled Code = "INTERACTION_OPTION_DISABLED"
	CodeInteractionSelectionCount Code = "INTERACTION_SELECTION_COUNT"

	// Tutorial errors
	CodeTutorialCommandBlocked  Code = "TUTORIAL_COMMAND_BLOCKED"
	CodeTutorialManifestInvalid Code = "TUTORIAL_MANIFEST_INVALID"

	// Cheat errors
	CodeCheatDisabled Code = "CHEAT_DISABLED"
	CodeCheatUnknown  Code = "CHEAT_UNKNOWN"

	// Rematch errors
	CodeRematchNotPlayer Code = "REMATCH_NOT_PLAYER"

	// Dice/mechanics errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"

	// Rule primitive errors
	CodeRuleInvalid   Code = "RULE_INVALID"
	CodeTargetUnknown Code = "TARGET_UNKNOWN"

	// Random/seed errors
	CodeSeedOutOfRange Code = "SEED_OUT_OF_RANGE"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeMatchExists      Code = "MATCH_ALREADY_EXISTS"
	CodeSequenceConflict Code = "JOURNAL_SEQUENCE_CONFLICT"
)

// Kind classifies a code for callers deciding between retry, refresh, and
// surfacing the failure.
type Kind string

const (
	// KindInvalidArgument means the command itself is malformed.
	KindInvalidArgument Kind = "invalid_argument"
	// KindFailedPrecondition means the match state does not allow the command now.
	KindFailedPrecondition Kind = "failed_precondition"
	// KindPermissionDenied means the command came from the wrong player.
	KindPermissionDenied Kind = "permission_denied"
	// KindInternal means the engine or its configuration misbehaved.
	KindInternal Kind = "internal"
)

// Kind maps domain codes to a failure kind.
func (c Code) Kind() Kind {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeCommandTypeUnknown,
		CodeCommandPayloadInvalid,
		CodeInteractionInvalidOption,
		CodeInteractionSelectionCount,
		CodeTutorialManifestInvalid,
		CodeCheatUnknown,
		CodeDiceMissing,
		CodeDiceInvalidSpec,
		CodeSeedOutOfRange:
		return KindInvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCommandRejected,
		CodeEmptyUndoStack,
		CodeUndoNotRequested,
		CodeResponseWindowWaiting,
		CodeInteractionPending,
		CodeInteractionNone,
		CodeInteractionKindMismatch,
		CodeInteractionOptionDisabled,
		CodeTutorialCommandBlocked,
		CodeCheatDisabled,
		CodeNotFound,
		CodeMatchExists,
		CodeSequenceConflict:
		return KindFailedPrecondition

	// PermissionDenied - wrong actor for the operation
	case CodeUndoSelfApproval,
		CodeUndoNotRequester,
		CodeResponseWindowNotResponder,
		CodeInteractionNotOwner,
		CodeRematchNotPlayer:
		return KindPermissionDenied

	default:
		return KindInternal
	}
}
