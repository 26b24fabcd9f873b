package shelfdetect

import (
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect/preprocess"
)

var (
	// ErrImageDecode is returned when the input image is missing, empty or
	// can not be decoded
	ErrImageDecode = preprocess.ErrImageDecode
	// ErrResourceExhausted is returned when the engine or the pipeline runs
	// out of memory
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrInference is returned for any other engine failure, including panics
	ErrInference = errors.New("inference failed")
)

// user facing messages for each error kind
const (
	msgImageDecode       = "Sorry, the image could not be read :("
	msgResourceExhausted = "Sorry, we have some memory issue :("
	msgInference         = "Sorry, we have some problems with the model :("
)

// Kind classifies an error returned by the pipeline into one of the caller
// visible kinds ErrImageDecode, ErrResourceExhausted or ErrInference.  Errors
// that match none of them are reported as ErrInference.  A nil error returns
// nil.
func Kind(err error) error {

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrImageDecode):
		return ErrImageDecode
	case errors.Is(err, ErrResourceExhausted):
		return ErrResourceExhausted
	default:
		return ErrInference
	}
}

// UserMessage returns the message to show an end user for the error, it never
// contains internal details
func UserMessage(err error) string {

	switch Kind(err) {
	case nil:
		return ""
	case ErrImageDecode:
		return msgImageDecode
	case ErrResourceExhausted:
		return msgResourceExhausted
	default:
		return msgInference
	}
}
