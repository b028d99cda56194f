package lifecycle

import (
	"github.com/civic-stack/request-service/internal/domain"
)

// Action identifies a status-change operation on a service request.
type Action string

const (
	ActionTriage         Action = "triage"
	ActionStart          Action = "start"
	ActionWaitForCitizen Action = "wait_for_citizen"
	ActionResolve        Action = "resolve"
	ActionClose          Action = "close"
	ActionReject         Action = "reject"
	ActionReopen         Action = "reopen"
)

// MinReasonLength is the shortest accepted transition reason.
const MinReasonLength = 10

// Rule describes one allowed edge of the request lifecycle: which statuses
// the action applies to, where it leads, who may perform it, and which
// request fields it requires.
type Rule struct {
	Action           Action
	From             []domain.Status
	To               domain.Status
	Roles            []domain.Role
	RequiresAssignee bool
	RequiresReason   bool
}

// rules is the only place transitions are defined. Handlers, services and
// seeds must consult it through Allowed/ActionRoles rather than keeping
// their own status vocabularies.
var rules = []Rule{
	{
		Action:           ActionTriage,
		From:             []domain.Status{domain.StatusSubmitted},
		To:               domain.StatusTriaged,
		Roles:            []domain.Role{domain.RoleClerk, domain.RoleSupervisor, domain.RoleAdmin},
		RequiresAssignee: true,
	},
	{
		Action: ActionStart,
		From:   []domain.Status{domain.StatusTriaged},
		To:     domain.StatusInProgress,
		Roles:  []domain.Role{domain.RoleClerk, domain.RoleFieldAgent, domain.RoleSupervisor, domain.RoleAdmin},
	},
	{
		Action:         ActionWaitForCitizen,
		From:           []domain.Status{domain.StatusInProgress},
		To:             domain.StatusWaitingOnCitizen,
		Roles:          []domain.Role{domain.RoleClerk, domain.RoleFieldAgent, domain.RoleSupervisor, domain.RoleAdmin},
		RequiresReason: true,
	},
	{
		Action:         ActionResolve,
		From:           []domain.Status{domain.StatusInProgress, domain.StatusWaitingOnCitizen},
		To:             domain.StatusResolved,
		Roles:          []domain.Role{domain.RoleClerk, domain.RoleFieldAgent, domain.RoleSupervisor, domain.RoleAdmin},
		RequiresReason: true,
	},
	{
		Action: ActionClose,
		From:   []domain.Status{domain.StatusResolved},
		To:     domain.StatusClosed,
		Roles:  []domain.Role{domain.RoleSupervisor, domain.RoleAdmin},
	},
	{
		Action:         ActionReject,
		From:           []domain.Status{domain.StatusSubmitted, domain.StatusTriaged},
		To:             domain.StatusRejected,
		Roles:          []domain.Role{domain.RoleClerk, domain.RoleSupervisor, domain.RoleAdmin},
		RequiresReason: true,
	},
	{
		Action:         ActionReopen,
		From:           []domain.Status{domain.StatusResolved, domain.StatusClosed, domain.StatusRejected},
		To:             domain.StatusSubmitted,
		Roles:          []domain.Role{domain.RoleSupervisor, domain.RoleAdmin},
		RequiresReason: true,
	},
}

// Allowed returns the rule for (status, action). The second return value is
// false when the action is not defined for the status, including any action
// against a terminal status other than reopen.
func Allowed(status domain.Status, action Action) (Rule, bool) {
	for _, rule := range rules {
		if rule.Action != action {
			continue
		}
		for _, from := range rule.From {
			if from == status {
				return rule, true
			}
		}
	}
	return Rule{}, false
}

// ActionRoles returns the allowed role set for action independent of the
// current status. The second return value is false for unknown actions.
func ActionRoles(action Action) ([]domain.Role, bool) {
	for _, rule := range rules {
		if rule.Action == action {
			return rule.Roles, true
		}
	}
	return nil, false
}

// ParseAction validates a wire-format action string.
func ParseAction(raw string) (Action, bool) {
	action := Action(raw)
	if _, ok := ActionRoles(action); !ok {
		return "", false
	}
	return action, true
}

// Actions lists every defined action.
func Actions() []Action {
	out := make([]Action, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule.Action)
	}
	return out
}
