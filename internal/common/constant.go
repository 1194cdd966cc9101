package common

// AuthorizationHeaderName is the HTTP header that carries the session token
// in the form "<scheme> <token>".
const AuthorizationHeaderName = "Authorization"

// SessionTokenScheme is the scheme prefix returned with issued session
// tokens, e.g. "JWT <token>".
const SessionTokenScheme = "JWT"
