package analytics

// Event is the name of a recorded analytics event.
type Event string

// Session events.
const (
	LoginSuccess         Event = "mobile_login_success"
	LoginFailed          Event = "mobile_login_failed"
	LogoutSuccess        Event = "mobile_logout_success"
	UnauthorizedLogout   Event = "mobile_app_unauthorized_user_logged_out_dashboard_view"
	AppOpened            Event = "mobile_app_opened"
	TokenPurchasePressed Event = "mobile_app_token_purchase_button_pressed"
)

// Compose wizard events.
const (
	RadiusMailingCreated           Event = "mobile_app_radius_mailing_created"
	RadiusMailingLocationUpdated   Event = "mobile_app_radius_mailing_location_updated"
	RadiusMailingCoverUpdated      Event = "mobile_app_radius_mailing_cover_image_updated"
	RadiusMailingTopicUpdated      Event = "mobile_app_radius_mailing_topic_updated"
	RadiusMailingAudienceConfirmed Event = "mobile_app_radius_mailing_audience_confirmed"
	RadiusMailingSent              Event = "mobile_app_radius_mailing_sent"
	RadiusMailingTargetDate        Event = "mobile_app_radius_mailing_touch_one_target_date_updated"
	RadiusMailingSaleLocation      Event = "mobile_app_radius_mailing_sale_location_selected"
	RadiusMailingTopicSelection    Event = "mobile_app_radius_mailing_topic_selection_pressed"
	RadiusMailingTemplateEdited    Event = "mobile_app_radius_mailing_message_template_edited"
	MessageTemplateChosen          Event = "mobile_app_mailing_detail_message_template_id_dropdown_selection_update"
	WizardNext                     Event = "mobile_app_radius_mailing_next_btn_pressed"
	WizardBack                     Event = "mobile_app_radius_mailing_back_btn_pressed"
	WizardNextToDashboard          Event = "mobile_app_radius_mailing_next_btn_pressed_sent_to_dashboard_view"
)

// Lead events.
const (
	LeadTagged            Event = "mobile_app_tagged_lead"
	LeadTaggedSpam        Event = "mobile_app_tagged_lead_as_spam"
	LeadTaggedPerson      Event = "mobile_app_tagged_lead_as_person"
	LeadTaggedLowInterest Event = "mobile_app_tagged_lead_as_low_interest"
	LeadTaggedFair        Event = "mobile_app_tagged_lead_as_fair"
	LeadTaggedLead        Event = "mobile_app_tagged_lead_as_lead"
	LeadTaggedRemoval     Event = "mobile_app_tagged_lead_as_removal"
	LeadTaggedNotRemoval  Event = "mobile_app_tagged_lead_as_not_removal"
	LeadMessageSent       Event = "mobile_app_sms_message_sent_to_lead"
)

// Mailing detail events.
const (
	SendFromSettings           Event = "mobile_app_send_mailing_settings_menu_pressed"
	CancelOrRevertFromSettings Event = "mobile_app_cancel_or_revert_mailing_settings_menu_pressed"
	AddTokensFromSettings      Event = "mobile_app_add_token_mailing_detail_settings_menu_pressed"
	CloneFromSettings          Event = "mobile_app_clone_mailing_settings_menu_pressed"
	RecipientRemoved           Event = "mobile_app_mailing_detail_recipient_removed"
	RecipientAdded             Event = "mobile_app_mailing_detail_recipient_added"
	RecipientAllTab            Event = "mobile_app_mailing_detail_recipients_all_tab_pressed"
	RecipientMailingListTab    Event = "mobile_app_mailing_detail_recipients_mailing_list_tab_pressed"
	RecipientRemovedTab        Event = "mobile_app_mailing_detail_recipients_removed_tab_pressed"
	RecipientUnavailableTab    Event = "mobile_app_mailing_detail_recipients_unavaliable_tab_pressed"
	ReturnAddressUpdated       Event = "mobile_app_mailing_detail_return_address_updated"
	MailingDetailOpened        Event = "mobile_app_navigation_to_mailing_detail_view"
)

// Dashboard events.
const (
	DashboardTapCampaigns  Event = "mobile_app_dashboard_view_tap_on_num_of_campaigns"
	DashboardTapCards      Event = "mobile_app_dashboard_view_tap_on_num_of_cards"
	DashboardTapCalls      Event = "mobile_app_dashboard_view_tap_on_num_of_calls"
	DashboardTapSms        Event = "mobile_app_dashboard_view_tap_on_num_of_sms"
	FilterMenuTapped       Event = "mobile_app_filter_menu_tapped"
	AddRadiusMailingTapped Event = "mobile_app_add_radius_mailing_tapped"
)
