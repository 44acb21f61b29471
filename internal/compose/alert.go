package compose

// Alert is a modal the wizard asks the screen to show.
type Alert int

const (
	AlertNone Alert = iota
	AlertSomethingWentWrong
	AlertPaymentRequired
)

func (a Alert) String() string {
	switch a {
	case AlertSomethingWentWrong:
		return "something_went_wrong"
	case AlertPaymentRequired:
		return "payment_required"
	default:
		return "none"
	}
}

// Title is the alert heading.
func (a Alert) Title() string {
	switch a {
	case AlertSomethingWentWrong:
		return "Sorry something went wrong, try again or reach out to an Addressable representative if the problem persists."
	case AlertPaymentRequired:
		return "Low Token Balance"
	}
	return ""
}

// Message is the body text; empty for alerts that only have a title.
func (a Alert) Message() string {
	if a == AlertPaymentRequired {
		return "Please purchase more tokens to send this mailing."
	}
	return ""
}

// Action is the label of the primary button, empty when the alert only
// dismisses.
func (a Alert) Action() string {
	if a == AlertPaymentRequired {
		return "Buy More"
	}
	return ""
}
