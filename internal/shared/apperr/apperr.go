package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation   Kind = "validation"
	AuthNotReady Kind = "auth_not_ready"
	Fetch        Kind = "fetch"
	Save         Kind = "save"
	Delete       Kind = "delete"
	NotFound     Kind = "not_found"
)

// Error carries a kind and the message shown to the user in a notice.
type Error struct {
	Kind      Kind
	PublicMsg string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.PublicMsg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationErr(msg string) *Error {
	return &Error{Kind: Validation, PublicMsg: msg}
}

func AuthNotReadyErr(msg string) *Error {
	return &Error{Kind: AuthNotReady, PublicMsg: msg}
}

func NotFoundErr(msg string) *Error {
	return &Error{Kind: NotFound, PublicMsg: msg}
}

// FetchErr, SaveErr and DeleteErr wrap store failures. The public message
// embeds the cause the way the notice shows it.
func FetchErr(err error) *Error {
	return &Error{Kind: Fetch, PublicMsg: "Failed to load quotes: " + causeText(err), Err: err}
}

func SaveErr(err error) *Error {
	return &Error{Kind: Save, PublicMsg: "Failed to save quote: " + causeText(err), Err: err}
}

func DeleteErr(err error) *Error {
	return &Error{Kind: Delete, PublicMsg: "Failed to delete quote: " + causeText(err), Err: err}
}

func causeText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func Is(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Validation:
			return http.StatusBadRequest
		case AuthNotReady:
			return http.StatusServiceUnavailable
		case NotFound:
			return http.StatusNotFound
		case Fetch, Save, Delete:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "Something went wrong."
}
