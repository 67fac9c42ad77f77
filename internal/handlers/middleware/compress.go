// internal/handlers/middleware/compress.go
package middleware

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compression gzips responses of at least minSize bytes for clients that
// accept it.
func Compression(minSize int) func(http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(max(minSize, 0)))
	if err != nil {
		panic(fmt.Sprintf("gzip middleware: %v", err))
	}
	return func(next http.Handler) http.Handler { return wrap(next) }
}
