package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

type Kind string

const (
	KindOversize             Kind = "Oversize"
	KindUnsupportedFormat    Kind = "UnsupportedFormat"
	KindCorruptImage         Kind = "CorruptImage"
	KindCompressionExhausted Kind = "CompressionExhausted"
	KindUnauthorized         Kind = "Unauthorized"
	KindAllModelsExhausted   Kind = "AllModelsExhausted"
	KindNetwork              Kind = "NetworkError"
	KindSynthesisExhausted   Kind = "SynthesisExhausted"
)

var (
	ErrOversize             error = errors.New("image exceeds the upload size limit")              // 413
	ErrUnsupportedFormat    error = errors.New("unsupported image format")                         // 415
	ErrCorruptImage         error = errors.New("image data cannot be decoded")                     // 422
	ErrCompressionExhausted error = errors.New("image cannot be compressed below the size limit")  // 422
	ErrUnauthorized         error = errors.New("vision provider rejected the credentials")         // 500
	ErrAllModelsExhausted   error = errors.New("all vision models failed")                         // 502
	ErrNetwork              error = errors.New("vision provider is unreachable")                   // 503
	ErrSynthesisExhausted   error = errors.New("all speech engines failed")                        // audio omitted
)

var kindSentinels = map[Kind]error{
	KindOversize:             ErrOversize,
	KindUnsupportedFormat:    ErrUnsupportedFormat,
	KindCorruptImage:         ErrCorruptImage,
	KindCompressionExhausted: ErrCompressionExhausted,
	KindUnauthorized:         ErrUnauthorized,
	KindAllModelsExhausted:   ErrAllModelsExhausted,
	KindNetwork:              ErrNetwork,
	KindSynthesisExhausted:   ErrSynthesisExhausted,
}

// Attempt is one failed try of a fallback chain member.
type Attempt struct {
	Name string
	Err  error
}

// Error carries everything needed to render a specific message to the user:
// the kind, the measured size and limit involved, and per-candidate reasons.
type Error struct {
	Kind     Kind
	Msg      string
	Size     int64
	Limit    int64
	Attempts []Attempt
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if len(e.Attempts) > 0 {
		sb.WriteString(" (")
		for i, a := range e.Attempts {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(a.Name)
			if a.Err != nil {
				sb.WriteString(": ")
				sb.WriteString(a.Err.Error())
			}
		}
		sb.WriteString(")")
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the kind of the first *Error found in err's tree.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// SizeText renders a byte count for user-facing messages: one decimal of MB
// plus the exact count, so sizes just over a limit never read as equal to it.
func SizeText(n int64) string {
	return fmt.Sprintf("%.1f MB (%s bytes)", float64(n)/1e6, humanize.Comma(n))
}
