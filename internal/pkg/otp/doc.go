// Package otp generates and checks time-based one-time passwords (RFC 6238)
// and renders the otpauth:// provisioning URI read by authenticator apps.
package otp
