package gate

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
)

// Env describes the browsing environment a session is bound to.
type Env struct {
	UserAgent      string
	Language       string
	ScreenWidth    int
	ScreenHeight   int
	TimezoneOffset int
	// Canvas is a signature of a fixed text rendering, computed in the
	// browser.
	Canvas string
}

// Fingerprint derives a 32 character identifier for env. It is not a
// security boundary: every input is supplied by the client.
func Fingerprint(env Env) string {
	sum := sha256.Sum256([]byte(env.UserAgent +
		env.Language +
		strconv.Itoa(env.ScreenWidth) + "x" + strconv.Itoa(env.ScreenHeight) +
		strconv.Itoa(env.TimezoneOffset) +
		env.Canvas))
	return base64.StdEncoding.EncodeToString(sum[:])[:32]
}
