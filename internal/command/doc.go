// Package command maps decoded requests onto the closed set of commands the
// server understands.
//
// The mapper works on a flat list of strings. FromValue flattens a decoded
// request array into that list first and rejects every other shape. Verbs and
// the EX/PX options are matched case-insensitively.
//
// Failures are *Error values. They compare equal under errors.Is to the
// sentinel of the same code, and their Reply text follows Redis wording.
package command
