package entry

// State is the required position in the app-entry sequence. Decide computes
// it as a pure function of the observable gate inputs; it is total over
// every input combination.
type State int

const (
	// NoSession: no authenticated identity; only the sign-in entry is reachable.
	NoSession State = iota
	// NeedsPhone: session exists but neither phone nor PIN is on record.
	NeedsPhone
	// NeedsPin: phone captured, PIN not yet created.
	NeedsPin
	// NeedsVerification: a PIN exists but has not been verified this process.
	NeedsVerification
	// Authenticated: PIN verified; the wallet area is open.
	Authenticated
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case NeedsPhone:
		return "needs_phone"
	case NeedsPin:
		return "needs_pin"
	case NeedsVerification:
		return "needs_verification"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Inputs are the four observable facts the decision depends on. Storage
// read failures must be folded to false by the caller before Decide runs,
// which fails open toward the earliest, stricter state.
type Inputs struct {
	SessionActive bool
	PhoneStored   bool
	PinStored     bool
	// Verified is the in-memory "verified this app session" flag. It resets
	// on every process start, so a cold start always re-demands the PIN.
	Verified bool
}

// Decide maps gate inputs to the required state. A stored PIN dominates the
// phone check: an identity that somehow has a PIN but no phone is still sent
// through verification, not back to phone capture.
func Decide(in Inputs) State {
	switch {
	case !in.SessionActive:
		return NoSession
	case !in.PinStored && !in.PhoneStored:
		return NeedsPhone
	case !in.PinStored:
		return NeedsPin
	case !in.Verified:
		return NeedsVerification
	default:
		return Authenticated
	}
}

// Screen identifies a navigable screen in the app shell.
type Screen string

const (
	ScreenSignIn          Screen = "signin"
	ScreenPhoneCapture    Screen = "phone"
	ScreenPinCreation     Screen = "pincreation"
	ScreenPinVerification Screen = "pinverification"
	ScreenWalletHome      Screen = "home"
	ScreenSettings        Screen = "settings"
	ScreenExchangeRates   Screen = "rates"
)

// InAuthenticatedArea reports whether the screen belongs to the wallet area
// reachable only in the Authenticated state.
func (s Screen) InAuthenticatedArea() bool {
	switch s {
	case ScreenWalletHome, ScreenSettings, ScreenExchangeRates:
		return true
	default:
		return false
	}
}

// Target returns the screen a state redirects to.
func (s State) Target() Screen {
	switch s {
	case NoSession:
		return ScreenSignIn
	case NeedsPhone:
		return ScreenPhoneCapture
	case NeedsPin:
		return ScreenPinCreation
	case NeedsVerification:
		return ScreenPinVerification
	default:
		return ScreenWalletHome
	}
}
