package handlers

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for user-supplied fields.
const (
	minUsernameLen = 3
	maxUsernameLen = 40
	minPasswordLen = 8
	maxTitleLen    = 300
	maxDescLen     = 10_000
	maxCommentLen  = 2_000
	maxReasonLen   = 1_000
	maxNameLen     = 120
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// validateRegistration checks sign-up inputs and returns the first error found.
func validateRegistration(username, email, password string) string {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLen {
		return "Username must be at least 3 characters."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 40 characters)."
	}
	if !usernamePattern.MatchString(username) {
		return "Username may only contain letters, digits, dots, dashes and underscores."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "A valid email address is required."
	}
	if len(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	return ""
}

// validateDocumentMeta checks document title and description lengths.
func validateDocumentMeta(title, description string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescLen {
		return "Description is too long (max 10,000 characters)."
	}
	return ""
}

// validateComment checks a comment body.
func validateComment(content string) string {
	if strings.TrimSpace(content) == "" {
		return "Comment cannot be empty."
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return "Comment is too long (max 2,000 characters)."
	}
	return ""
}

// validateReason checks a report reason.
func validateReason(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "A reason is required."
	}
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return "Reason is too long (max 1,000 characters)."
	}
	return ""
}
