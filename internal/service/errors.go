package service

import (
	"errors"
	"fmt"
	"regexp"
)

// RequestError is a non-2xx answer from the service.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, ExtractErrorMessage(e.Body))
}

// errorPatterns are tried in order; the first capture wins.
var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)root cause.*?QueryConfigurationException: (.*)$`),
	regexp.MustCompile(`(?m)root cause.*?([a-zA-Z0-9_.]+: .*)$`),
	regexp.MustCompile(`(?m)root cause.*?([a-zA-Z0-9_.]+)$`),
}

// ExtractErrorMessage returns the most readable part of an error report:
// the message of a query configuration exception, else the first
// `Class: message` after "root cause", else the bare class name after it,
// else the body unchanged.
func ExtractErrorMessage(body string) string {
	for _, re := range errorPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return body
}

// Message turns any submission error into text for the user.
func Message(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return ExtractErrorMessage(reqErr.Body)
	}
	return err.Error()
}
