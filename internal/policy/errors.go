package policy

import "github.com/samber/oops"

// Error kinds are the six distinct, total error categories from
// spec.md §7. Every error the pipeline raises carries exactly one of
// these tags so the driver can map it to an exit token deterministically.
const (
	TagInputError                = "input_error"
	TagTranslationError           = "translation_error"
	TagCheckerFailure             = "checker_failure"
	TagTimeout                    = "timeout"
	TagOverflow                   = "overflow"
	TagInternalInvariantViolation = "internal_invariant_violation"
)

var errorBuilder = oops.Code("acoac").With("component", "policy")

// NewInputError wraps a parsing/file-suffix/malformed-instance error.
func NewInputError(msg string, args ...any) error {
	return errorBuilder.Tags(TagInputError).Errorf(msg, args...)
}

// NewTranslationError wraps an ARBAC→ACoAC translation failure.
func NewTranslationError(msg string, args ...any) error {
	return errorBuilder.Tags(TagTranslationError).Errorf(msg, args...)
}

// NewCheckerFailure wraps a subprocess crash or unparseable output.
func NewCheckerFailure(msg string, args ...any) error {
	return errorBuilder.Tags(TagCheckerFailure).Errorf(msg, args...)
}

// NewTimeoutError wraps a wall-clock budget overrun.
func NewTimeoutError(msg string, args ...any) error {
	return errorBuilder.Tags(TagTimeout).Errorf(msg, args...)
}

// Overflow and InternalInvariantViolation are fatal: they panic with a
// tagged error rather than returning one, per spec.md §7 ("fatal,
// abort with a diagnostic").

// PanicOverflow aborts the process on BigInt magnitude/exponent overflow.
func PanicOverflow(msg string, args ...any) {
	panic(errorBuilder.Tags(TagOverflow).Errorf(msg, args...))
}

// PanicInvariantViolation aborts the process on a broken internal
// invariant (a programming error, not a user error).
func PanicInvariantViolation(msg string, args ...any) {
	panic(errorBuilder.Tags(TagInternalInvariantViolation).Errorf(msg, args...))
}

// Tag extracts the error-kind tag oops attached to err, or "" if err
// was not built by this package.
func Tag(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	for _, tag := range oopsErr.Tags() {
		return tag
	}
	return ""
}
