// Package retry runs actions repeatedly under composable strategies.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry runs action until it succeeds, or until one of the strategies declines
// another attempt. It returns the number of attempts made along with the last
// error.
//
// Strategies are evaluated in order and evaluation stops at the first one that
// declines, so strategies that sleep should be specified last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil || !allow(strategies, attempts, err) {
			return attempts, err
		}
	}
}

// Loop runs action forever. Failures are counted since the last success, and
// Loop only returns once the strategies decline to retry a failure.
func Loop(action Action, strategies ...Strategy) error {
	var failures uint
	for {
		err := action()
		if err == nil {
			failures = 0
			continue
		}

		failures++
		if !allow(strategies, failures, err) {
			return err
		}
	}
}

func allow(strategies []Strategy, attempts uint, err error) bool {
	for _, strategy := range strategies {
		if !strategy(attempts, err) {
			return false
		}
	}
	return true
}
