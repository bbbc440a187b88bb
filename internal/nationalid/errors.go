package nationalid

type Kind string

const (
	KindFormat      Kind = "format"
	KindCentury     Kind = "century"
	KindDate        Kind = "date"
	KindGovernorate Kind = "governorate"
	KindChecksum    Kind = "checksum"
)

// Error is a single failed check.
type Error struct {
	Kind    Kind
	Message string
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, &nationalid.Error{Kind: nationalid.KindDate}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
