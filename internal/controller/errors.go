package controller

import (
	"errors"
	"fmt"

	"github.com/ashureev/nia-console/internal/tutorapi"
)

var (
	// ErrNotAuthenticated is returned when an action needs a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoChildSelected is returned by chat actions without an active child.
	ErrNoChildSelected = errors.New("no child selected")

	// ErrInvalidTransition is returned when an action is not valid in the
	// current section.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrSendInFlight is returned when a message is sent while the previous
	// one is still awaiting its answer.
	ErrSendInFlight = errors.New("a message is already awaiting a response")

	// ErrFeedbackLocked is returned when feedback was already submitted for
	// the message.
	ErrFeedbackLocked = errors.New("feedback already submitted")

	// ErrFeedbackUnavailable is returned for messages that cannot carry
	// feedback.
	ErrFeedbackUnavailable = errors.New("message does not accept feedback")

	// ErrUnknownChild is returned for a child that is not in the loaded list.
	ErrUnknownChild = errors.New("unknown child")

	// ErrStaleView is returned when a response arrives for a view that has
	// since been replaced. The response is discarded.
	ErrStaleView = errors.New("view changed while the request was in flight")
)

// Forms that carry inline error messages.
const (
	FormLogin    = "login"
	FormRegister = "register"
	FormChild    = "child"
	FormChat     = "chat"
	FormTheme    = "theme"
)

// User-facing texts.
const (
	ConnectionErrorText = "Connection error. Please try again."
	ConsentRequiredText = "Please read and agree to the Terms and Privacy Policy"
	RequiredFieldsText  = "Please fill in all required fields"

	loginFailedText        = "Login failed"
	registrationFailedText = "Registration failed"
	createChildFailedText  = "Failed to create child"
	sendFailedPrefix       = "Sorry, error: "
	sendUnknownDetail      = "Something went wrong"
)

// ValidationError is a local validation failure. No request was issued.
type ValidationError struct {
	Form    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Form, e.Message)
}

// UserMessage returns the text shown to the user for err: the server detail
// when there is one, the connection error for transport failures, and
// fallback otherwise.
func UserMessage(err error, fallback string) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var apiErr *tutorapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fallback
	}
	if errors.Is(err, tutorapi.ErrTransport) {
		return ConnectionErrorText
	}
	return fallback
}

// sendFailureText is the synthetic assistant reply written after a failed send.
func sendFailureText(err error) string {
	var apiErr *tutorapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail == "" {
			return sendFailedPrefix + sendUnknownDetail
		}
		return sendFailedPrefix + apiErr.Detail
	}
	return ConnectionErrorText
}

func isTransport(err error) bool {
	return errors.Is(err, tutorapi.ErrTransport)
}
