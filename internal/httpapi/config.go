package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default remains 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// generateTimeout bounds how long a generation request waits for its result.
// Zero means no additional timeout beyond server/connection timeouts. The
// model keeps generating after the caller gives up.
var generateTimeout = time.Duration(0)

// SetGenerateTimeoutSeconds sets the generate timeout in seconds (0 disables).
func SetGenerateTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	generateTimeout = time.Duration(sec) * time.Second
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

func corsOrigins() []string {
	if len(corsAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return corsAllowedOrigins
}

func corsMethods() []string {
	if len(corsAllowedMethods) == 0 {
		return []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	return corsAllowedMethods
}

func corsHeaders() []string {
	if len(corsAllowedHeaders) == 0 {
		return []string{"Accept", "Authorization", "Content-Type", "X-Log-Level", "X-Request-Id"}
	}
	return corsAllowedHeaders
}

// originAllowed applies the CORS origin list to websocket upgrades.
func originAllowed(origin string) bool {
	for _, o := range corsOrigins() {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
