// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines the user-facing messages and the machine-readable
// error codes carried in the response envelope. Messages reach clients verbatim, so
// they never mention internals.
package constants

// Authentication messages.
const (
	MsgLoginRequired       = "Please Login before accessing this route"
	MsgInvalidToken        = "Invalid token. Please login again!"
	MsgTokenExpired        = "Your token has expired! Please log in again"
	MsgUserNoLongerExists  = "The user belonging to the token no longer exists"
	MsgPasswordChanged     = "You have recently changed password! Please login again."
	MsgPermissionDenied    = "You do not have permission to perform this action"
	MsgOwnReviewsOnly      = "You can only modify your own reviews"
	MsgProvideCredentials  = "Please provide email and password"
	MsgIncorrectLogin      = "Incorrect email or password"
	MsgWrongCurrentPass    = "Password entered is incorrect, try again!"
	MsgEmailNotFound       = "Email address not found! Please enter correct email address"
	MsgTokenSent           = "Token sent to email!"
	MsgEmailSendFailed     = "There was an error sending the email. Try again later!"
	MsgResetTokenInvalid   = "Token is invalid or expired"
	MsgNotPasswordRoute    = "This route is not for password updates. Please use /updateMyPassword."
	MsgCreateUserUndefined = "This route is not defined! Please use /signup instead"
	MsgPasswordsDoNotMatch = "Passwords are not the same!"
)

// Resource and request messages.
const (
	MsgNoDocumentWithID  = "No document found with that ID"
	MsgPageNotExist      = "This page does not exist"
	MsgInvalidInputData  = "Invalid input data."
	MsgNoSuchTour        = "There is no such tour"
	MsgNoTourWithName    = "There is no tour with that name."
	MsgLatLngFormat      = "Please provide latitude and longitude in the format lat,lng."
	MsgNotAnImage        = "Not an image! Please upload only images."
	MsgTooManyRequests   = "Too many requests from this IP, please try again in an hour!"
	MsgSomethingWrong    = "Something went wrong, we will fix it as soon as possible"
	MsgRouteNotFound     = "Can't find %s on this server!"
	MsgMethodNotAllowed  = "This method is not allowed for this resource"
	MsgRequestBodyLarge  = "Request body too large"
	MsgEmptyRequestBody  = "Request body must not be empty"
	MsgMalformedJSON     = "Request body contains malformed JSON"
	MsgWebhookError      = "Webhook error: %s"
	MsgDuplicateValue    = "%s already exists. Please use another value"
	MsgDiscountTooHigh   = "Discount price should be below regular price"
	MsgInvalidQueryField = "Invalid query parameter: %s"
)

// Response codes carried in the error envelope.
const (
	CodeBadRequest      = "bad_request"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeMethodNotAllow  = "method_not_allowed"
	CodeConflict        = "conflict"
	CodeInternalError   = "internal_error"
	CodeValidationError = "validation_error"
	CodeTokenExpired    = "token_expired"
	CodeTokenInvalid    = "token_invalid"
	CodeDuplicate       = "duplicate_resource"
	CodeTooManyRequests = "too_many_requests"
	CodeInvalidWebhook  = "invalid_webhook"
)

// Logger Constants define values used for structured logging.
const (
	LogCategoryAuth    = "auth"
	LogCategoryDB      = "database"
	LogCategoryHTTP    = "http"
	LogCategoryMail    = "mail"
	LogCategoryPayment = "payment"
	LogRedactedValue   = "[REDACTED]"
)
