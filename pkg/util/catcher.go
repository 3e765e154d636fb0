package util

import "github.com/pkg/errors"

// TryCatchBlock represents struct for try-catch-finally control flow
type TryCatchBlock struct {
	Try     func()
	Catch   func(error)
	Finally func()
}

// Do executes the try-catch-finally control flow. Panics with a non-error value
// reach Catch as an error wrapping that value.
func (tcf TryCatchBlock) Do() {
	if tcf.Finally != nil {
		defer tcf.Finally()
	}
	if tcf.Catch != nil {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = errors.Errorf("panic: %v", r)
				}
				tcf.Catch(err)
			}
		}()
	}
	tcf.Try()
}

// CatchErrs runs fn and turns a panic inside it into a returned error
func CatchErrs(fn func() error) (err error) {
	TryCatchBlock{
		Try:   func() { err = fn() },
		Catch: func(e error) { err = errors.Wrap(e, "recovered") },
	}.Do()
	return err
}
