package compose

import "github.com/five82/addressable/internal/addressable"

// Step is one screen of the compose radius mailing wizard.
type Step int

const (
	StepSelectLocation Step = iota
	StepSelectCard
	StepChooseTopic
	StepAudienceProcessing
	StepConfirmAudience
	StepConfirmSend
	StepRadiusSent
)

var stepNames = [...]string{
	StepSelectLocation:     "selectLocation",
	StepSelectCard:         "selectCard",
	StepChooseTopic:        "chooseTopic",
	StepAudienceProcessing: "audienceProcessing",
	StepConfirmAudience:    "confirmAudience",
	StepConfirmSend:        "confirmSend",
	StepRadiusSent:         "radiusSent",
}

var stepTitles = [...]string{
	StepSelectLocation:     "Location of Sale",
	StepSelectCard:         "Choose Card",
	StepChooseTopic:        "Choose Campaign Type",
	StepAudienceProcessing: "Audience Processing",
	StepConfirmAudience:    "Confirm Audience",
	StepConfirmSend:        "Confirm and Send",
	StepRadiusSent:         "Radius Mailing Sent",
}

// Steps returns every step in wizard order.
func Steps() []Step {
	return []Step{
		StepSelectLocation,
		StepSelectCard,
		StepChooseTopic,
		StepAudienceProcessing,
		StepConfirmAudience,
		StepConfirmSend,
		StepRadiusSent,
	}
}

func (s Step) valid() bool { return s >= StepSelectLocation && s <= StepRadiusSent }

func (s Step) String() string {
	if !s.valid() {
		return "unknown"
	}
	return stepNames[s]
}

// Title is the heading shown above the step.
func (s Step) Title() string {
	if !s.valid() {
		return ""
	}
	return stepTitles[s]
}

// Number is the one-based position of the step.
func (s Step) Number() int { return int(s) + 1 }

func (s Step) next() Step {
	if s >= StepRadiusSent {
		return StepRadiusSent
	}
	return s + 1
}

func (s Step) prev() Step {
	if s <= StepSelectLocation {
		return StepSelectLocation
	}
	return s - 1
}

// ResumeStep picks the step to reopen a saved mailing at. A nil mailing
// starts from the beginning.
func ResumeStep(m *addressable.Mailing) Step {
	if m == nil {
		return StepSelectLocation
	}
	switch m.List() {
	case addressable.ListSearching, addressable.ListExporting, addressable.ListIngesting:
		return StepSelectCard
	case addressable.ListComplete:
		switch {
		case !m.HasLayout():
			return StepSelectCard
		case !m.HasTopic():
			return StepChooseTopic
		default:
			return StepConfirmAudience
		}
	}
	return StepSelectLocation
}
