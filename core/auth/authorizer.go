package auth

import (
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Authorizer decides which roles may call which routes (RBAC over path patterns and methods).
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, errors.Wrap(err, "loading casbin model")
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "creating casbin enforcer")
	}
	if err = loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// loadPolicy parses policy CSV lines into enforcer.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch rule := parts[1:]; parts[0] {
		case "p":
			if len(rule) != 3 {
				return errors.Errorf("invalid policy: %q", line)
			}
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return errors.Wrapf(err, "adding policy %v", rule)
			}
		case "g":
			if len(rule) != 2 {
				return errors.Errorf("invalid grouping policy: %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return errors.Wrapf(err, "adding grouping policy %v", rule)
			}
		}
	}
	return nil
}

// Authorize returns core.ErrPermissionDenied unless role may call method on path.
func (a *Authorizer) Authorize(role core.Role, path, method string) error {
	if !role.Valid() {
		return core.ErrPermissionDenied
	}
	allowed, err := a.enforcer.Enforce(string(role), path, method)
	if err != nil {
		return errors.Wrap(err, "enforcing policy")
	}
	if !allowed {
		return core.ErrPermissionDenied
	}
	return nil
}
