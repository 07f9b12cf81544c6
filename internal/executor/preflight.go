package executor

import (
	"fmt"

	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/validation"
)

// request is one resolved resource action.
type request struct {
	domain       string
	action       Action
	resourceType string
	name         string
	namespace    string
	yes          bool
}

func (r *request) params() map[string]string {
	return map[string]string{
		"action":        r.action.String(),
		"resource-type": r.resourceType,
		"name":          r.name,
		"namespace":     r.namespace,
	}
}

// preflight runs the name, namespace scope and safety gates in that order.
// It returns nil when the request may be sent.
func (e *Executor) preflight(r *request, s domains.Session) domains.Result {
	if r.name != "" {
		if r.action.createsName() {
			res := validation.ValidateResourceName(r.name, nil)
			if !res.Valid {
				return domains.Fail(domains.KindValidation, "Error: Invalid resource name: "+validation.FormatNameError(res))
			}
		} else if validation.IsSecurityViolation(r.name) {
			res := validation.ValidateResourceName(r.name, &validation.NameOptions{SkipFormatValidation: true})
			return domains.Fail(domains.KindValidation, "Error: Invalid resource name: "+validation.FormatNameError(res))
		}
	}

	op := r.action.operation()
	if scope := e.scope.Validate(r.domain, op, r.namespace, r.resourceType); !scope.Valid {
		return domains.Fail(domains.KindValidation, "Error: "+validation.FormatScopeError(scope))
	}

	safety := e.safety.Check(r.domain, op, r.resourceType)
	if safety.Warning != "" {
		e.warn(safety.Warning)
	}
	if safety.Proceed && !safety.RequiresConfirmation {
		return nil
	}
	if r.yes {
		e.logger.Debug("confirmation skipped", e.logger.Args("action", r.action.String(), "resource", r.resourceType, "name", r.name))
		return nil
	}
	if !s.Interactive() {
		return domains.Fail(domains.KindValidation, fmt.Sprintf(
			"Error: %s of %s '%s' requires confirmation (danger level: %s).\nRe-run with --yes to proceed.",
			r.action, r.resourceType, r.name, safety.DangerLevel))
	}

	confirmed, err := e.confirm(confirmation(safety, r.params()))
	if err != nil {
		return domains.FailErr(err)
	}
	if !confirmed {
		return domains.Fail(domains.KindCancelled, "Operation cancelled.")
	}
	return nil
}
