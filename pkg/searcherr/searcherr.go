// Package searcherr holds the typed errors the HTTP service maps to
// response status codes, following the teacher's error-struct idiom rather
// than sentinel errors.
package searcherr

import "net/http"

// BadRequestError signals a malformed query (e.g. missing or unparsable
// `q` parameter).
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

// IndexNotLoadedError signals that /search or /stats was called before any
// snapshot has ever been loaded.
type IndexNotLoadedError struct{}

func (e *IndexNotLoadedError) Error() string { return "index not loaded" }

// BuildFailedError wraps a failure encountered while (re)building or
// reloading the index.
type BuildFailedError struct {
	Reason string
}

func (e *BuildFailedError) Error() string { return "build failed: " + e.Reason }

// InternalError is the catch-all for unexpected failures not attributable
// to the caller.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return e.Message }

// StatusCode maps a searcherr error to its HTTP status code, defaulting to
// 500 for anything it does not recognize (including plain errors from
// other packages that reach the handler layer unwrapped).
func StatusCode(err error) int {
	switch err.(type) {
	case *BadRequestError:
		return http.StatusBadRequest
	case *IndexNotLoadedError:
		return http.StatusServiceUnavailable
	case *BuildFailedError:
		return http.StatusInternalServerError
	case *InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Kind names the error for the JSON error envelope's "error" field.
func Kind(err error) string {
	switch err.(type) {
	case *BadRequestError:
		return "BadRequest"
	case *IndexNotLoadedError:
		return "IndexNotLoaded"
	case *BuildFailedError:
		return "BuildFailed"
	case *InternalError:
		return "InternalError"
	default:
		return "InternalError"
	}
}
