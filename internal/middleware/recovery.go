package middleware

import (
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Let the server abort the connection as net/http intends.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				utils.LogPanic(chimiddleware.GetReqID(r.Context()), r.Method, r.URL.Path, rec, debug.Stack())

				utils.Error(w, http.StatusInternalServerError, constants.CodeInternalError, constants.MsgSomethingWrong, nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
