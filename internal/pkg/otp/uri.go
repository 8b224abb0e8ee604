package otp

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPeriod is the step length in seconds.
	DefaultPeriod = 30
	// DefaultDigits is the code length.
	DefaultDigits = 6
	// DefaultAlgorithm is the HMAC algorithm name as it appears in the URI.
	DefaultAlgorithm = "SHA1"
)

// ErrMalformedURI is returned by ParseURI for anything that is not a totp otpauth URI.
var ErrMalformedURI = errors.New("otp: malformed provisioning uri")

// Provisioning is the content of an otpauth://totp URI.
type Provisioning struct {
	Issuer      string
	AccountName string
	Secret      string
	Algorithm   string
	Digits      int
	Period      int
}

// ProvisioningURI renders the key URI format understood by authenticator apps:
//
//	otpauth://totp/<issuer>:<account>?secret=<secret>&issuer=<issuer>&algorithm=SHA1&digits=6&period=30
//
// Issuer and account are query escaped, so "@" becomes "%40" and a space becomes "+".
// The order of the parameters is fixed.
func ProvisioningURI(secret, issuer, accountName string) string {
	qi := url.QueryEscape(issuer)

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(qi)
	b.WriteByte(':')
	b.WriteString(url.QueryEscape(accountName))
	b.WriteString("?secret=")
	b.WriteString(secret)
	b.WriteString("&issuer=")
	b.WriteString(qi)
	b.WriteString("&algorithm=" + DefaultAlgorithm)
	b.WriteString("&digits=" + strconv.Itoa(DefaultDigits))
	b.WriteString("&period=" + strconv.Itoa(DefaultPeriod))

	return b.String()
}

// ParseURI reads back a URI produced by ProvisioningURI (or any compatible app).
func ParseURI(raw string) (*Provisioning, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrMalformedURI, err)
	}
	if u.Scheme != "otpauth" || u.Host != "totp" {
		return nil, ErrMalformedURI
	}

	label := strings.TrimPrefix(u.EscapedPath(), "/")
	if label == "" {
		return nil, ErrMalformedURI
	}

	p := &Provisioning{
		Algorithm: DefaultAlgorithm,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
	}

	escIssuer, escAccount, found := strings.Cut(label, ":")
	if !found {
		escAccount, escIssuer = escIssuer, ""
	}
	if p.AccountName, err = url.QueryUnescape(escAccount); err != nil {
		return nil, errors.Join(ErrMalformedURI, err)
	}
	if p.Issuer, err = url.QueryUnescape(escIssuer); err != nil {
		return nil, errors.Join(ErrMalformedURI, err)
	}

	q := u.Query()
	p.Secret = q.Get("secret")
	if p.Secret == "" {
		return nil, ErrMalformedURI
	}
	if v := q.Get("issuer"); v != "" {
		p.Issuer = v
	}
	if v := q.Get("algorithm"); v != "" {
		p.Algorithm = v
	}
	if v := q.Get("digits"); v != "" {
		if p.Digits, err = strconv.Atoi(v); err != nil {
			return nil, errors.Join(ErrMalformedURI, err)
		}
	}
	if v := q.Get("period"); v != "" {
		if p.Period, err = strconv.Atoi(v); err != nil {
			return nil, errors.Join(ErrMalformedURI, err)
		}
	}

	return p, nil
}
