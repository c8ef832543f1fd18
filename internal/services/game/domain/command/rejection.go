package command

import apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"

// Shared rejection codes for game domains. Game-specific codes follow the
// same SCREAMING_SNAKE_CASE convention, usually prefixed with the game name.
const (
	RejectionCodePayloadDecodeFailed    apperrors.Code = "PAYLOAD_DECODE_FAILED"
	RejectionCodeCommandTypeUnsupported apperrors.Code = "COMMAND_TYPE_UNSUPPORTED"
)

// Reject builds the error a domain returns from validation.
func Reject(code apperrors.Code, message string) error {
	if code == "" {
		code = apperrors.CodeCommandRejected
	}
	return apperrors.New(code, message)
}
