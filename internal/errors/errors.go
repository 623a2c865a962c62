package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"

	"github.com/julianstephens/datebook/internal/logger"
)

// Kind classifies a failure reported by the calendar core
type Kind int

const (
	KindUnknown Kind = iota
	KindNameMissing
	KindCodeMissing
	KindNotFound
	KindAlreadyExists
	KindInvalidName
	KindIDMissing
	KindDateMissing
	KindInvalidDate
	KindInvalidTime
	KindIndexMissing
	KindInvalidIndex
	KindIndexOutOfRange
	KindNoEntryData
	KindInvalidEntryData
	KindInvalidEntry
	KindInvalidAppendFlag
	KindAttributeMissing
	KindInvalidAttribute
	KindPersistence
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindNameMissing:       "name_missing",
	KindCodeMissing:       "code_missing",
	KindNotFound:          "not_found",
	KindAlreadyExists:     "already_exists",
	KindInvalidName:       "invalid_name",
	KindIDMissing:         "id_missing",
	KindDateMissing:       "date_missing",
	KindInvalidDate:       "invalid_date",
	KindInvalidTime:       "invalid_time",
	KindIndexMissing:      "index_missing",
	KindInvalidIndex:      "invalid_index",
	KindIndexOutOfRange:   "index_out_of_range",
	KindNoEntryData:       "no_entry_data",
	KindInvalidEntryData:  "invalid_entry_data",
	KindInvalidEntry:      "invalid_entry",
	KindInvalidAppendFlag: "invalid_append",
	KindAttributeMissing:  "attribute_missing",
	KindInvalidAttribute:  "invalid_attribute",
	KindPersistence:       "persistence",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a classified failure. Message is the text shown to clients and is
// kept stable because existing clients match on it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New returns an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and client message to an underlying error
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for use with errors.Is. Their messages are empty so they match
// any error of the same kind.
var (
	ErrNameMissing       = &Error{Kind: KindNameMissing}
	ErrCodeMissing       = &Error{Kind: KindCodeMissing}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrInvalidName       = &Error{Kind: KindInvalidName}
	ErrIDMissing         = &Error{Kind: KindIDMissing}
	ErrDateMissing       = &Error{Kind: KindDateMissing}
	ErrInvalidDate       = &Error{Kind: KindInvalidDate}
	ErrInvalidTime       = &Error{Kind: KindInvalidTime}
	ErrIndexMissing      = &Error{Kind: KindIndexMissing}
	ErrInvalidIndex      = &Error{Kind: KindInvalidIndex}
	ErrIndexOutOfRange   = &Error{Kind: KindIndexOutOfRange}
	ErrNoEntryData       = &Error{Kind: KindNoEntryData}
	ErrInvalidEntryData  = &Error{Kind: KindInvalidEntryData}
	ErrInvalidEntry      = &Error{Kind: KindInvalidEntry}
	ErrInvalidAppendFlag = &Error{Kind: KindInvalidAppendFlag}
	ErrAttributeMissing  = &Error{Kind: KindAttributeMissing}
	ErrInvalidAttribute  = &Error{Kind: KindInvalidAttribute}
	ErrPersistence       = &Error{Kind: KindPersistence}
)

// Client-facing messages
const (
	MsgNameMissing       = "Calendar name missing"
	MsgCodeMissing       = "Calendar code missing"
	MsgInvalidName       = "Invalid calendar name"
	MsgIDMissing         = "UUID missing"
	MsgDateMissing       = "No date specified"
	MsgInvalidDate       = "Invalid Date"
	MsgInvalidTime       = "Invalid start/end time"
	MsgIndexMissing      = "Entry Index is missing"
	MsgInvalidIndex      = "Invalid Index"
	MsgIndexOutOfRange   = "Index out of range"
	MsgNoEntryData       = "No Entry Data"
	MsgInvalidEntryData  = "Data must be an array of entry objects"
	MsgInvalidEntry      = "Data included an Invalid Entry"
	MsgInvalidAppendFlag = "Invalid append"
	MsgAttributeMissing  = "Entry attribute missing"
	MsgInvalidAttribute  = "Invalid attribute"
	MsgPersistence       = "An error occurred"
)

// NotFound reports an unknown name/code pair
func NotFound(name, code string) *Error {
	return Newf(KindNotFound, "%s #%s does not exist", name, code)
}

// NotFoundID reports an unknown calendar id
func NotFoundID(id string) *Error {
	return Newf(KindNotFound, "No calendar exists with UID : %s", id)
}

// AlreadyExists reports a name/code collision on create
func AlreadyExists(name, code string) *Error {
	return Newf(KindAlreadyExists, "%s #%s already exists", name, code)
}

// KindOf returns the kind of err, or KindUnknown when err is not classified
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode maps an error to the HTTP status the API answers with. Every
// failure of the calendar core is a client-visible 400.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return http.StatusBadRequest
}

// Message returns the client-facing text for err. Unclassified errors are
// reported generically so internals do not leak to clients.
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgPersistence
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
