package pkcs11session

// PinCallback supplies a user PIN on demand. seed identifies which
// token is prompting: the token's label when non-empty, otherwise
// "#{slotId}". Implementations should return ErrUserAbort to cancel
// the current login attempt.
type PinCallback interface {
	GetPIN(seed string) (string, error)
}

// PinCallbackFunc adapts a function to PinCallback.
type PinCallbackFunc func(seed string) (string, error)

func (f PinCallbackFunc) GetPIN(seed string) (string, error) { return f(seed) }

// WarningCallback receives non-fatal notices raised during a login
// attempt, such as an incorrect PIN that will be retried.
type WarningCallback interface {
	Warn(err error)
}

// WarningCallbackFunc adapts a function to WarningCallback.
type WarningCallbackFunc func(err error)

func (f WarningCallbackFunc) Warn(err error) { f(err) }

// NoWarnings discards every warning.
var NoWarnings WarningCallback = WarningCallbackFunc(func(error) {})
