package response

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

type responseError struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
	Err     error   `json:"-"`
}

func (re *responseError) Error() string {
	if re == nil {
		return ""
	}
	return strconv.Itoa(int(re.Code)) + ": " + re.Message
}

func (re *responseError) GetCode() ErrCode {
	if re == nil {
		return 0
	}
	return re.Code
}

func (re *responseError) Unwrap() error {
	return re.Err
}

func IsResponseError(err error) bool {
	_, ok := err.(*responseError)
	return ok
}

// MultiError is the body of every failed API call. Its zero value is ready
// to use and all methods are goroutine safe.
type MultiError struct {
	mtx    sync.Mutex
	errors []error
}

func NewMultiError(err ...error) *MultiError {
	return &MultiError{
		errors: err,
	}
}

func (e *MultiError) Add(err ...error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	e.errors = append(e.errors, err...)
}

func (e *MultiError) Len() int {
	if e == nil {
		return 0
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return len(e.errors)
}

// Errors returns a copy of the collected errors.
func (e *MultiError) Errors() []error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return append(make([]error, 0, len(e.errors)), e.errors...)
}

// MarshalJSON renders every error as {"code":..,"message":..}. Errors that
// are not response errors are reported with code 0.
func (e *MultiError) MarshalJSON() ([]byte, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	out := make([]*responseError, 0, len(e.errors))
	for _, err := range e.errors {
		if re, ok := err.(*responseError); ok {
			out = append(out, re)
			continue
		}
		out = append(out, &responseError{Message: err.Error(), Err: err})
	}
	return json.Marshal(struct {
		Errors []*responseError `json:"errors"`
	}{
		Errors: out,
	})
}

func (e *MultiError) UnmarshalJSON(bytes []byte) error {
	errs := struct {
		Errors []*responseError `json:"errors"`
	}{}
	if err := json.Unmarshal(bytes, &errs); err != nil {
		return err
	}
	for _, err := range errs.Errors {
		e.Add(err)
	}
	return nil
}

func (e *MultiError) Error() string {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	es := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		es = append(es, err.Error())
	}
	return strings.Join(es, "; ")
}

func generateError(code ErrCode, s ...interface{}) *responseError {
	return &responseError{
		Code:    code,
		Message: fmt.Sprintf(errors[code], s...),
	}
}

func generateErrorWrapper(code ErrCode, err error, s ...interface{}) *responseError {
	return &responseError{
		Code:    code,
		Message: fmt.Sprintf(errors[code], s...),
		Err:     err,
	}
}

func ErrComponentNotFound(component string) *responseError {
	return generateError(ErrCodeComponentNotFound, component)
}

func ErrRegisterNotFound(id string) *responseError {
	return generateError(ErrCodeRegisterNotFound, id)
}

func ErrCommandRejected(err error) *responseError {
	return generateErrorWrapper(ErrCodeCommandRejected, err, err.Error())
}

func ErrReplyTimeout(component string) *responseError {
	return generateError(ErrCodeReplyTimeout, component)
}

func ErrInvalidTimeout(timeout string) *responseError {
	return generateError(ErrCodeInvalidTimeout, timeout)
}
