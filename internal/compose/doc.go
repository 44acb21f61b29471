// Package compose implements the compose radius mailing wizard.
//
// The wizard walks a mailing through seven steps:
//
//	selectLocation → selectCard → chooseTopic → audienceProcessing →
//	confirmAudience → confirmSend → radiusSent
//
// Advance saves the current step through the API and moves on only after
// the server accepted it. A failed save keeps the step and raises
// AlertSomethingWentWrong, or AlertPaymentRequired for a 402. Reopening a
// saved mailing resumes at the step its list status, cover and topic
// imply (see ResumeStep).
//
// The screen renders from State, which carries the button labels and
// whether Next is enabled, so the rules for both buttons live here rather
// than in the UI.
package compose
