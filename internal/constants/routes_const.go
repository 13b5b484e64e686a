package constants

// Top-level paths.
const (
	APIBasePath     = "/api"
	APIV1Path       = "/api/v1"
	HealthPath      = "/health"
	VersionPath     = "/version"
	WebhookPath     = "/webhook-checkout"
	ToursPath       = "/tours"
	UsersPath       = "/users"
	ReviewsPath     = "/reviews"
	BookingsPath    = "/bookings"
	ResetPasswdPath = "/api/v1/users/resetPassword/"
)

// Page routes.
const (
	ViewOverviewPath = "/"
	ViewTourPath     = "/tour/{slug}"
	ViewLoginPath    = "/login"
	ViewSignupPath   = "/signup"
	ViewAccountPath  = "/me"
	ViewMyToursPath  = "/my-tours"
	ViewSubmitPath   = "/submit-user-data"
)

// URL parameter names.
const (
	ParamID       = "id"
	ParamTourID   = "tourId"
	ParamSlug     = "slug"
	ParamToken    = "token"
	ParamYear     = "year"
	ParamDistance = "distance"
	ParamLatLng   = "latlng"
	ParamUnit     = "unit"
)

// Query parameters understood by the list builder.
const (
	QueryParamPage   = "page"
	QueryParamLimit  = "limit"
	QueryParamSort   = "sort"
	QueryParamFields = "fields"
	QueryParamSearch = "q"
	QueryParamAlert  = "alert"
)
