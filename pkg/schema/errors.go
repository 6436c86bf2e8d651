package schema

import (
	"errors"
	"fmt"
)

// ErrorClass classifies configuration errors so callers can decide whether
// a default may be substituted or the error must be surfaced.
type ErrorClass string

const (
	// ClassSchemaValidation marks a structurally invalid schema or a merge conflict.
	ClassSchemaValidation ErrorClass = "schema_validation"

	// ClassNoSection marks a section missing from both the configuration and the schema.
	ClassNoSection ErrorClass = "no_section"

	// ClassNoOption marks an option missing from both the configuration and the schema.
	ClassNoOption ErrorClass = "no_option"

	// ClassValue marks a present but malformed value.
	ClassValue ErrorClass = "invalid_value"

	// ClassType marks a typed value that does not belong to the option's domain.
	ClassType ErrorClass = "invalid_type"

	// ClassInterpolation marks a failed %(name)s substitution.
	ClassInterpolation ErrorClass = "interpolation"

	// ClassParse marks malformed configuration file syntax.
	ClassParse ErrorClass = "parse"

	// ClassNoLocation marks a save with no file to write to.
	ClassNoLocation ErrorClass = "no_location"

	// ClassValidation marks a configuration that does not conform to its schema.
	ClassValidation ErrorClass = "validation"
)

// Error codes refining a class.
const (
	CodeInterpolationMissing = "INTERPOLATION_MISSING_OPTION"
	CodeInterpolationDepth   = "INTERPOLATION_DEPTH"
	CodeInterpolationSyntax  = "INTERPOLATION_SYNTAX"
	CodeEnvironmentMissing   = "ENVIRONMENT_MISSING"
	CodeMissingSectionHeader = "MISSING_SECTION_HEADER"
	CodeMergeConflict        = "MERGE_CONFLICT"
	CodeReservedSection      = "RESERVED_SECTION"
	CodeInvalidDefinition    = "INVALID_DEFINITION"
)

// ConfigError is a classified configuration error with section/option context.
type ConfigError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Code optionally refines the class.
	Code string `json:"code,omitempty"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Section is the section involved, if any.
	Section string `json:"section,omitempty"`

	// Option is the option involved, if any.
	Option string `json:"option,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is matches errors of the same class. A target without a code matches any
// code of that class.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return e.Class == t.Class && (t.Code == "" || e.Code == t.Code)
}

// WithCode sets the error code.
func (e *ConfigError) WithCode(code string) *ConfigError {
	e.Code = code
	return e
}

// WithOption sets the option context.
func (e *ConfigError) WithOption(section, option string) *ConfigError {
	e.Section = section
	e.Option = option
	return e
}

// Sentinels for errors.Is.
var (
	ErrSchemaValidation = &ConfigError{Class: ClassSchemaValidation}
	ErrNoSection        = &ConfigError{Class: ClassNoSection}
	ErrNoOption         = &ConfigError{Class: ClassNoOption}
	ErrInvalidValue     = &ConfigError{Class: ClassValue}
	ErrInvalidType      = &ConfigError{Class: ClassType}
	ErrInterpolation    = &ConfigError{Class: ClassInterpolation}
	ErrParse            = &ConfigError{Class: ClassParse}
	ErrNoLocation       = &ConfigError{Class: ClassNoLocation}
	ErrValidation       = &ConfigError{Class: ClassValidation}
)

// NewSchemaValidationError creates a schema validation error.
func NewSchemaValidationError(message string) *ConfigError {
	return &ConfigError{Class: ClassSchemaValidation, Message: message}
}

// NewNoSectionError creates an error for a missing section.
func NewNoSectionError(section string) *ConfigError {
	return &ConfigError{
		Class:   ClassNoSection,
		Message: fmt.Sprintf("No section: '%s'", section),
		Section: section,
	}
}

// NewNoOptionError creates an error for a missing option.
func NewNoOptionError(section, option string) *ConfigError {
	return &ConfigError{
		Class:   ClassNoOption,
		Message: fmt.Sprintf("No option '%s' in section: '%s'", option, section),
		Section: section,
		Option:  option,
	}
}

// NewValueError creates an error for a malformed value.
func NewValueError(message string, err error) *ConfigError {
	return &ConfigError{Class: ClassValue, Message: message, Err: err}
}

// NewTypeError creates an error for a value outside an option's domain.
func NewTypeError(value any, kind Kind) *ConfigError {
	return &ConfigError{
		Class:   ClassType,
		Message: fmt.Sprintf("%v is not a valid %s value.", value, kind),
	}
}

// NewInterpolationError creates an interpolation error with the given code.
func NewInterpolationError(code, section, option, message string) *ConfigError {
	return &ConfigError{
		Class:   ClassInterpolation,
		Code:    code,
		Message: message,
		Section: section,
		Option:  option,
	}
}

// NewValidationError creates a schema conformance error.
func NewValidationError(message string) *ConfigError {
	return &ConfigError{Class: ClassValidation, Message: message}
}

// NewNoLocationError creates an error for a save with no destination file.
func NewNoLocationError(message string) *ConfigError {
	return &ConfigError{Class: ClassNoLocation, Message: message}
}

// NewParseError creates a configuration syntax error.
func NewParseError(message string) *ConfigError {
	return &ConfigError{Class: ClassParse, Message: message}
}

// IsSchemaValidation reports whether err is a schema validation error.
func IsSchemaValidation(err error) bool {
	return errors.Is(err, ErrSchemaValidation)
}

// IsNoSection reports whether err is a missing section error.
func IsNoSection(err error) bool {
	return errors.Is(err, ErrNoSection)
}

// IsNoOption reports whether err is a missing option error.
func IsNoOption(err error) bool {
	return errors.Is(err, ErrNoOption)
}

// IsMissing reports whether err is a missing section or option error.
func IsMissing(err error) bool {
	return IsNoSection(err) || IsNoOption(err)
}

// IsValueError reports whether err is a malformed value error.
func IsValueError(err error) bool {
	return errors.Is(err, ErrInvalidValue)
}

// IsInterpolation reports whether err is an interpolation error.
func IsInterpolation(err error) bool {
	return errors.Is(err, ErrInterpolation)
}

// IsEnvironmentMissing reports whether err is caused by an unset
// environment variable without a default.
func IsEnvironmentMissing(err error) bool {
	var e *ConfigError
	if errors.As(err, &e) {
		return e.Class == ClassInterpolation && e.Code == CodeEnvironmentMissing
	}
	return false
}

// IsInterpolationMissing reports whether err is an interpolation error
// caused by an unknown %(name)s reference.
func IsInterpolationMissing(err error) bool {
	var e *ConfigError
	if errors.As(err, &e) {
		return e.Class == ClassInterpolation && e.Code == CodeInterpolationMissing
	}
	return false
}
