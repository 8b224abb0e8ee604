// Package authz builds the Casbin enforcer deciding who may act on other
// accounts. Rules come from configuration as comma separated tuples.
package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// ErrMalformedRule is returned for a rule with the wrong number of fields.
var ErrMalformedRule = errors.New("authz: malformed rule")

// NewEnforcer returns an RBAC enforcer loaded with policies ("sub,obj,act")
// and groupings ("member,role").
func NewEnforcer(policies, groupings []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policies {
		rule, err := split(p, 3)
		if err != nil {
			return nil, err
		}
		if _, err := e.AddPolicy(rule...); err != nil {
			return nil, err
		}
	}

	for _, g := range groupings {
		rule, err := split(g, 2)
		if err != nil {
			return nil, err
		}
		if _, err := e.AddGroupingPolicy(rule...); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func split(raw string, n int) ([]any, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRule, raw)
	}

	out := make([]any, 0, n)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRule, raw)
		}
		out = append(out, p)
	}
	return out, nil
}
