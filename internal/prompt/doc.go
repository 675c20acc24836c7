// Package prompt asks the user whether a mobile device may pair.
//
// Terminal prompts on the daemon's controlling terminal, one question at a
// time across all sessions. Policy answers without asking.
package prompt
