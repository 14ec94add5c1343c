package service

import (
	"errors"

	"github.com/guttosm/quotegate/internal/provider"
)

// FetchKind tells which provider step failed.
type FetchKind int

const (
	KindLogin FetchKind = iota + 1
	KindQuery
)

func (k FetchKind) prefix() string {
	switch k {
	case KindLogin:
		return "Login failed: "
	case KindQuery:
		return "Query failed: "
	default:
		return "Fetch failed: "
	}
}

// FetchError is returned by FetchHistory when the provider rejects the login
// or the query. Its message is what API callers see.
type FetchError struct {
	Kind FetchKind
	Err  error
}

func (e *FetchError) Error() string {
	return e.Kind.prefix() + providerMessage(e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// providerMessage prefers the provider's own message over the wrapped chain.
func providerMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return err.Error()
}
