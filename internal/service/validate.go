package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "Null characters are not allowed."
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// validator accumulates field errors in check order
type validator struct {
	message string
	fields  map[string]string
	order   []string
}

func (v *validator) add(field, msg string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	if _, exists := v.fields[field]; exists {
		return
	}
	v.fields[field] = msg
	v.order = append(v.order, field)
}

// required fails when the field was not supplied at all or is blank
func (v *validator) required(field string, value *string) {
	if value == nil {
		v.add(field, msgRequired)
		return
	}
	if *value == "" {
		v.add(field, msgBlank)
	}
}

// noNull rejects NUL characters, which PostgreSQL text columns cannot store
func (v *validator) noNull(field string, value *string) {
	if value != nil && strings.ContainsRune(*value, 0) {
		v.add(field, msgNull)
	}
}

func (v *validator) maxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 && v.message == "" {
		return nil
	}
	msg := v.message
	if msg == "" {
		first := v.order[0]
		msg = fmt.Sprintf("%s: %s", first, v.fields[first])
	}
	return &ValidationError{Message: msg, Fields: v.fields}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
