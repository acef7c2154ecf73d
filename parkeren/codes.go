package parkeren

import "strings"

// DefaultErrorMessage is returned for error codes missing from the table
const DefaultErrorMessage = "Your data has not been saved"

// CodeInsufficientBalance is returned when the visitor balance cannot cover a reservation
const CodeInsufficientBalance = "PV00052"

// errorCodeTable maps upstream error codes to human readable messages.
// It is built once at package initialisation and never mutated.
//
// Only PV00052 is confirmed against the service. The other entries are
// provisional: their messages are ours, not the upstream's.
// TODO: replace provisional entries with the codes the service actually returns.
var errorCodeTable = map[string]string{
	"PV00001": "An unexpected error occurred",
	"PV00005": "Invalid username or password",
	"PV00010": "Your session has expired",
	"PV00011": "No valid session",
	"PV00012": "Your account has been blocked",
	"PV00020": "The license plate is invalid",
	"PV00021": "This license plate is already a favorite",
	"PV00022": "Favorite not found",
	"PV00023": "Maximum number of favorites reached",
	"PV00030": "Reservation not found",
	"PV00031": "The start time lies in the past",
	"PV00032": "The end time must be after the start time",
	"PV00033": "A reservation for this license plate already exists in this period",
	"PV00034": "This reservation can no longer be changed",
	"PV00035": "The reservation falls outside the paid parking hours",
	"PV00040": "Maximum number of reservations reached",
	"PV00045": "The parking zone is not available",
	"PV00052": "Insufficient balance",
	"PV00060": "The service is temporarily unavailable",
}

// sessionInvalidCodes is the reserved subset of codes that mean the session
// is no longer accepted by the upstream. Provisional, like the table above; a
// plain 401 is recognised regardless.
var sessionInvalidCodes = map[string]struct{}{
	"PV00010": {},
	"PV00011": {},
}

// normalizeCode canonicalises an error code for table lookups
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupErrorMessage returns the message for a known code
func LookupErrorMessage(code string) (string, bool) {
	msg, ok := errorCodeTable[normalizeCode(code)]
	return msg, ok
}

// ErrorMessage returns the message for code, falling back to DefaultErrorMessage
func ErrorMessage(code string) string {
	if msg, ok := LookupErrorMessage(code); ok {
		return msg
	}
	return DefaultErrorMessage
}

// IsSessionInvalidCode reports whether code signals an invalidated session
func IsSessionInvalidCode(code string) bool {
	_, ok := sessionInvalidCodes[normalizeCode(code)]
	return ok
}
