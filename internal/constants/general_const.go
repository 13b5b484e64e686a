package constants

// Cookie names and values.
const (
	// AuthCookieName carries the session token for browser clients.
	AuthCookieName = "jwt"

	// LoggedOutCookieValue overwrites the session cookie on logout.
	LoggedOutCookieValue = "loggedout"
)

// Multipart form field names for uploads.
const (
	FormFieldPhoto      = "photo"
	FormFieldImageCover = "imageCover"
	FormFieldImages     = "images"
)

// Email template names understood by the mail worker.
const (
	MailTemplateWelcome       = "welcome"
	MailTemplatePasswordReset = "password_reset"
)

// Email delivery providers.
const (
	MailProviderMailgun  = "mailgun"
	MailProviderSendGrid = "sendgrid"
)

// Payment event types handled by the webhook.
const (
	StripeEventCheckoutCompleted = "checkout.session.completed"
	AlertBooking                 = "booking"
)

// User roles, least to most privileged.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// Tour difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)
