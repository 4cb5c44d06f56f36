package check

import (
	"fmt"

	"github.com/rs/zerolog"
)

// PanicIfErr panics on a non-nil error. For places where error handling
// would only obscure an unrecoverable condition.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfNot panics on false.
func PanicIfNot(flag bool) {
	if !flag {
		panic("requirement not met")
	}
}

// PanicIff panics with a formatted message when flag is true.
func PanicIff(flag bool, format string, args ...any) {
	if flag {
		panic(fmt.Sprintf(format, args...))
	}
}

// LogAndPanicIfErr logs the error with the provided logger and panics.
// It is a no-op if the error is nil.
func LogAndPanicIfErr(err error, logger zerolog.Logger, format string, args ...any) {
	if err == nil {
		return
	}

	l := logger.With().CallerWithSkipFrameCount(3).Logger()
	l.Err(err).Msgf(format, args...)
	panic(err)
}
