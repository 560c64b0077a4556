// Package errors provides coded, user-facing errors for the signals CLI.
//
// Each error carries a code from the registry, a category, a short message and
// optional detail and suggestion text. Format renders an error for terminal
// display.
//
//	return errors.New("E124").
//	    WithDetail(`computed "total" depends on "price", which is not defined`).
//	    WithSuggestion("Declare price under signals: or computed:")
package errors
