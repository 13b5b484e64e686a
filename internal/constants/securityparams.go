package constants

// HPPWhitelist lists the query parameters allowed to repeat.
var HPPWhitelist = []string{
	"duration",
	"ratingsQuantity",
	"ratingsAverage",
	"maxGroupSize",
	"difficulty",
	"price",
}
