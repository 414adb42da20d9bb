package shared

// Result is the envelope returned from every repository and view model boundary.
// A succeeded result never carries errors or an exception.
type Result[T any] struct {
	Data      T        `json:"data"`
	IsSucceed bool     `json:"isSucceed"`
	Errors    []string `json:"errors"`
	Exception error    `json:"-"`
}

// Succeed wraps data in a successful result
func Succeed[T any](data T) Result[T] {
	return Result[T]{
		Data:      data,
		IsSucceed: true,
		Errors:    []string{},
	}
}

// Fail builds a failed result. When messages are empty the exception text is used.
func Fail[T any](err error, messages ...string) Result[T] {
	r := Result[T]{
		IsSucceed: false,
		Errors:    []string{},
		Exception: err,
	}
	switch {
	case len(messages) > 0:
		r.Errors = append(r.Errors, messages...)
	case err != nil:
		r.Errors = append(r.Errors, err.Error())
	}
	return r
}

// FailWith builds a failed result that still carries data (e.g. an invalid view model)
func FailWith[T any](data T, err error, messages ...string) Result[T] {
	r := Fail[T](err, messages...)
	r.Data = data
	return r
}

// AddError marks the result failed and appends a message
func (r *Result[T]) AddError(msg string) {
	r.IsSucceed = false
	r.Errors = append(r.Errors, msg)
}

// Err returns the failure as an error, or nil for a successful result
func (r Result[T]) Err() error {
	if r.IsSucceed {
		return nil
	}
	if r.Exception != nil {
		return r.Exception
	}
	return NewValidationError(r.Errors)
}

// MapResult converts the payload of a result while keeping its status
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := Result[U]{
		IsSucceed: r.IsSucceed,
		Errors:    r.Errors,
		Exception: r.Exception,
	}
	if r.IsSucceed {
		out.Data = fn(r.Data)
	}
	return out
}
