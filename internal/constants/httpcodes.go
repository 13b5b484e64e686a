package constants

// HTTP header names used across middleware and handlers.
const (
	HeaderContentType           = "Content-Type"
	HeaderCacheControl          = "Cache-Control"
	HeaderAuthorization         = "Authorization"
	HeaderXRequestID            = "X-Request-ID"
	HeaderXForwardedFor         = "X-Forwarded-For"
	HeaderXForwardedProto       = "X-Forwarded-Proto"
	HeaderXRealIP               = "X-Real-IP"
	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderXXSSProtection        = "X-XSS-Protection"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
	HeaderStrictTransport       = "Strict-Transport-Security"
	HeaderRateLimitLimit        = "X-RateLimit-Limit"
	HeaderRateLimitRemaining    = "X-RateLimit-Remaining"
	HeaderRateLimitReset        = "X-RateLimit-Reset"
	HeaderRetryAfter            = "Retry-After"
	HeaderStripeSignature       = "Stripe-Signature"
)

// Content types.
const (
	ContentTypeJSON      = "application/json"
	ContentTypeHTML      = "text/html; charset=utf-8"
	ContentTypeJPEG      = "image/jpeg"
	ContentTypeMultipart = "multipart/form-data"
)

// Security header values.
const (
	FrameOptionsDeny           = "DENY"
	XSSProtectionModeBlock     = "1; mode=block"
	ContentTypeOptionsNoSniff  = "nosniff"
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"
	StrictTransportMaxAge      = "max-age=15552000; includeSubDomains"
	CSPPolicy                  = "default-src 'self'; " +
		"script-src 'self' https://js.stripe.com https://api.mapbox.com; " +
		"style-src 'self' 'unsafe-inline' https://api.mapbox.com https://fonts.googleapis.com; " +
		"font-src 'self' https://fonts.gstatic.com; " +
		"img-src 'self' data: blob: https://*.mapbox.com https://storage.googleapis.com; " +
		"connect-src 'self' https://api.mapbox.com https://events.mapbox.com; " +
		"frame-src https://js.stripe.com; worker-src blob:"
	CacheControlNoStore = "no-cache, no-store, must-revalidate"
)
