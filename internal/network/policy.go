package network

// Logger is the subset of *logging.Logger the error policies need.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ErrorPolicy decides what an anomaly does to the calling operation.
// A nil return means the anomaly was absorbed (logged) and the caller
// should report failure through its return value instead.
type ErrorPolicy interface {
	Handle(err error) error
	Strict() bool
}

// StrictPolicy logs at error level and hands the error back.
type StrictPolicy struct {
	Log Logger
}

func (p StrictPolicy) Handle(err error) error {
	if p.Log != nil {
		p.Log.Error(err.Error())
	}
	return err
}

func (p StrictPolicy) Strict() bool { return true }

// PermissivePolicy logs a warning and swallows the error.
type PermissivePolicy struct {
	Log Logger
}

func (p PermissivePolicy) Handle(err error) error {
	if p.Log != nil {
		p.Log.Warn(err.Error())
	}
	return nil
}

func (p PermissivePolicy) Strict() bool { return false }

// PolicyFor returns the policy matching the strict flag.
func PolicyFor(strict bool, log Logger) ErrorPolicy {
	if strict {
		return StrictPolicy{Log: log}
	}
	return PermissivePolicy{Log: log}
}
