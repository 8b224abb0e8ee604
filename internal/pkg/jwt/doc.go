// Package jwt issues and verifies the HS512 session tokens accepted by the
// local authentication host. The subject claim carries the account id.
package jwt
