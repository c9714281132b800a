// Package reporting forwards server errors to Rollbar alongside the standard
// log output.
package reporting

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

// Init configures the Rollbar client. Reporting stays disabled when token is
// empty, errors are then only logged.
func Init(token, env, host string) {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetServerHost(host)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(token != "")
	if token != "" {
		log.Println("✅ Rollbar error reporting enabled")
	}
}

// Error logs err and sends it to Rollbar with extras attached.
func Error(err error, extras map[string]interface{}) {
	log.Printf("[ERROR] %+v %v", err, extras)
	if extras == nil {
		rollbar.Error(err)
		return
	}
	rollbar.Error(err, extras)
}

// Flush blocks until queued reports are sent.
func Flush() {
	rollbar.Wait()
}
