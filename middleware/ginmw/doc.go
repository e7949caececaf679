// Package ginmw mirrors the middleware package for gin routers: a session
// guard plus a login rate-limit filter, both driven by a goSession.Guard.
package ginmw
