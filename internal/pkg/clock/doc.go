// Package clock provides a tiny time abstraction.
//
// Business code depends on Clocker instead of calling time.Now directly, so
// TOTP windows and token expiry can be tested with Fake.
package clock
