package addressable

// MailingState is the server-side lifecycle state of a mailing. Values the
// client does not recognise are kept verbatim and report IsKnown false.
type MailingState string

const (
	StateDraft           MailingState = "draft"
	StateScheduled       MailingState = "scheduled"
	StatePendingPayment  MailingState = "pending_payment"
	StateListReady       MailingState = "list_ready"
	StateListAdded       MailingState = "list_added"
	StateListApproved    MailingState = "list_approved"
	StateProductionReady MailingState = "production_ready"
	StateProduction      MailingState = "production"
	StatePrintReady      MailingState = "print_ready"
	StatePrinting        MailingState = "printing"
	StateWriteReady      MailingState = "write_ready"
	StateWriting         MailingState = "writing"
	StateMailReady       MailingState = "mail_ready"
	StateRemailed        MailingState = "remailed"
	StateMailed          MailingState = "mailed"
	StateDelivered       MailingState = "delivered"
	StateCanceled        MailingState = "canceled"
	StateDeleted         MailingState = "deleted"
	StateArchived        MailingState = "archived"
)

// MailingStatus is the dashboard bucket a mailing state is shown under.
type MailingStatus string

const (
	StatusMailed    MailingStatus = "Mailed"
	StatusInProcess MailingStatus = "In Process"
	StatusUpcoming  MailingStatus = "Upcoming"
	StatusDraft     MailingStatus = "Draft"
	StatusArchived  MailingStatus = "Archived"
	StatusCanceled  MailingStatus = "Canceled"
	StatusUnknown   MailingStatus = "Unknown"
)

// mailingBuckets is the complete state to bucket table. Unknown states are
// deliberately absent so they fall through to StatusUnknown.
var mailingBuckets = map[MailingState]MailingStatus{
	StateMailed:          StatusMailed,
	StateRemailed:        StatusMailed,
	StateProduction:      StatusInProcess,
	StatePrintReady:      StatusInProcess,
	StatePrinting:        StatusInProcess,
	StateWriteReady:      StatusInProcess,
	StateWriting:         StatusInProcess,
	StateMailReady:       StatusInProcess,
	StateProductionReady: StatusInProcess,
	StateScheduled:       StatusUpcoming,
	StateDraft:           StatusDraft,
	StateListReady:       StatusDraft,
	StateListAdded:       StatusDraft,
	StateListApproved:    StatusDraft,
	StatePendingPayment:  StatusDraft,
	StateDelivered:       StatusArchived,
	StateArchived:        StatusArchived,
	StateCanceled:        StatusCanceled,
	StateDeleted:         StatusCanceled,
}

// MailingStates lists every known state in lifecycle order.
func MailingStates() []MailingState {
	return []MailingState{
		StateDraft, StateScheduled, StatePendingPayment, StateListReady,
		StateListAdded, StateListApproved, StateProductionReady, StateProduction,
		StatePrintReady, StatePrinting, StateWriteReady, StateWriting,
		StateMailReady, StateRemailed, StateMailed, StateDelivered,
		StateCanceled, StateDeleted, StateArchived,
	}
}

// MailingStatuses lists the dashboard buckets in display order.
func MailingStatuses() []MailingStatus {
	return []MailingStatus{
		StatusMailed, StatusInProcess, StatusUpcoming, StatusDraft,
		StatusArchived, StatusCanceled, StatusUnknown,
	}
}

// IsKnown reports whether s is one of the documented states.
func (s MailingState) IsKnown() bool {
	_, ok := mailingBuckets[s]
	return ok
}

// Bucket maps s to its dashboard status.
func (s MailingState) Bucket() MailingStatus {
	if b, ok := mailingBuckets[s]; ok {
		return b
	}
	return StatusUnknown
}

// SettingsAction is an action offered from a mailing's settings menu.
type SettingsAction string

const (
	ActionNone      SettingsAction = ""
	ActionSend      SettingsAction = "send"
	ActionAddTokens SettingsAction = "add_tokens"
	ActionRevert    SettingsAction = "revert"
	ActionSendAgain SettingsAction = "send_again"
	ActionClone     SettingsAction = "clone"
	ActionCancel    SettingsAction = "cancel"
)

// SettingsAction returns the menu action available in state s.
func (s MailingState) SettingsAction() SettingsAction {
	switch s {
	case StateDraft, StateListReady, StateListAdded, StateListApproved:
		return ActionSend
	case StatePendingPayment:
		return ActionAddTokens
	case StateProductionReady:
		return ActionRevert
	case StateMailed:
		return ActionSendAgain
	case StateCanceled:
		return ActionClone
	case StateScheduled:
		return ActionCancel
	default:
		return ActionNone
	}
}

// ListStatus is the server's audience build pipeline state.
type ListStatus string

const (
	ListNew          ListStatus = "new"
	ListSearching    ListStatus = "searching"
	ListSearchFailed ListStatus = "search_failed"
	ListExporting    ListStatus = "exporting"
	ListExportFailed ListStatus = "export_failed"
	ListIngesting    ListStatus = "ingesting"
	ListIngestFailed ListStatus = "ingest_failed"
	ListComplete     ListStatus = "complete"
)

// IsKnown reports whether s is a documented list status.
func (s ListStatus) IsKnown() bool {
	switch s {
	case ListNew, ListSearching, ListSearchFailed, ListExporting,
		ListExportFailed, ListIngesting, ListIngestFailed, ListComplete:
		return true
	}
	return false
}

// InProgress reports whether the server is still building the audience.
func (s ListStatus) InProgress() bool {
	return s == ListSearching || s == ListExporting || s == ListIngesting
}

// Failed reports whether the audience build stopped with an error.
func (s ListStatus) Failed() bool {
	return s == ListSearchFailed || s == ListExportFailed || s == ListIngestFailed
}

// Membership is a recipient's status on a mailing list.
type Membership string

const (
	MembershipMember   Membership = "member"
	MembershipRejected Membership = "rejected"
	MembershipReserved Membership = "reserved"
	MembershipRemoved  Membership = "removed"
)

// IsKnown reports whether m is a documented membership value.
func (m Membership) IsKnown() bool {
	switch m {
	case MembershipMember, MembershipRejected, MembershipReserved, MembershipRemoved:
		return true
	}
	return false
}

// ListUploadStatus is the lifecycle of an uploaded audience batch.
type ListUploadStatus string

const (
	UploadActive  ListUploadStatus = "active"
	UploadDeleted ListUploadStatus = "deleted"
	UploadRemoved ListUploadStatus = "removed"
)

// LeadStatus is the tagging state of an incoming lead. "unknown" means the
// lead has not been tagged yet.
type LeadStatus string

const (
	LeadUnknown LeadStatus = "unknown"
	LeadSpam    LeadStatus = "spam"
	LeadRemoved LeadStatus = "removed"
	LeadTagged  LeadStatus = "tagged"
)

// IsUntagged reports whether the lead still needs tagging.
func (s LeadStatus) IsUntagged() bool {
	return s == LeadUnknown
}
