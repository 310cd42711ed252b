package config

// Error is a configuration error: a setting or credential that is missing
// or invalid. It is fatal to the run and raised before any task I/O.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
