package domain

type IntentKind string

const (
	IntentNavigate     IntentKind = "navigate"
	IntentConfirm      IntentKind = "confirm"
	IntentCancel       IntentKind = "cancel"
	IntentRetry        IntentKind = "retry"
	IntentUnrecognized IntentKind = "unrecognized"
)

// Target is a page the flow can navigate to by voice.
type Target string

const (
	TargetSeats   Target = "seats"
	TargetFood    Target = "food"
	TargetPayment Target = "payment"
)

// Intent is the decision derived from one transcription. Target is only set
// for IntentNavigate.
type Intent struct {
	Kind   IntentKind
	Target Target
}

var (
	Confirm      = Intent{Kind: IntentConfirm}
	Cancel       = Intent{Kind: IntentCancel}
	Retry        = Intent{Kind: IntentRetry}
	Unrecognized = Intent{Kind: IntentUnrecognized}
)

func Navigate(target Target) Intent {
	return Intent{Kind: IntentNavigate, Target: target}
}

func (i Intent) Recognized() bool {
	return i.Kind != "" && i.Kind != IntentUnrecognized
}

func (i Intent) String() string {
	if i.Kind == IntentNavigate {
		return string(i.Kind) + "(" + string(i.Target) + ")"
	}
	if i.Kind == "" {
		return string(IntentUnrecognized)
	}
	return string(i.Kind)
}
