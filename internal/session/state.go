package session

// State is a point in the session lifecycle.
//
//	Authenticating -> Unauthenticated | Authenticated   (Restore, Login)
//	Authenticated  -> LoggingOut -> Unauthenticated     (Logout)
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	LoggingOut
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case LoggingOut:
		return "logging_out"
	}
	return "unknown"
}

// Busy reports whether an operation is in flight.
func (s State) Busy() bool { return s == Authenticating || s == LoggingOut }
