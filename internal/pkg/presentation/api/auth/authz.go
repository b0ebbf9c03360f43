package auth

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/open-policy-agent/opa/rego"
)

//go:embed policies.rego
var defaultPolicies string

type Action string

const (
	ReadUser       Action = "users:read"
	UpdateUser     Action = "users:update"
	DeleteUser     Action = "users:delete"
	ChangePassword Action = "users:change-password"
	ListUsers      Action = "users:list"
	ElevateUser    Action = "users:elevate"
)

// Resource identifies the user a request acts upon, either by id or by email
type Resource struct {
	Owner string
	Email string
}

type Authorizer interface {
	Allowed(ctx context.Context, user database.User, action Action, resource Resource) (bool, error)
}

type authorizer struct {
	query rego.PreparedEvalQuery
}

func DefaultPolicies() io.Reader {
	return strings.NewReader(defaultPolicies)
}

func NewAuthorizer(ctx context.Context, policies io.Reader) (Authorizer, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	query, err := rego.New(
		rego.Query("x = data.esmart.authz.allow"),
		rego.Module("esmart.rego", string(module)),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, err
	}

	return &authorizer{query: query}, nil
}

func (a *authorizer) Allowed(ctx context.Context, user database.User, action Action, resource Resource) (bool, error) {
	input := map[string]any{
		"action": string(action),
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
		"resource": map[string]any{
			"owner": resource.Owner,
			"email": resource.Email,
		},
	}

	results, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("opa eval failed: %w", err)
	}

	if len(results) == 0 {
		return false, fmt.Errorf("opa query could not be satisfied")
	}

	allowed, ok := results[0].Bindings["x"].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected result type from authz policy engine")
	}

	return allowed, nil
}
