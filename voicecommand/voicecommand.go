// Package voicecommand classifies transcripts as sleep/wake commands.
//
// A command only triggers when the user speaks just the command and nothing
// else; any additional words make the utterance ordinary speech. This
// exactness prevents false triggers when a command word appears inside
// normal dictation ("I will not mute it" must not sleep the app).
package voicecommand

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Action is the outcome of classifying a transcript.
type Action int

const (
	// ActionNone means the transcript is ordinary speech.
	ActionNone Action = iota
	// ActionSleep means the transcript is exactly a sleep command.
	ActionSleep
	// ActionWake means the transcript is exactly a wake command.
	ActionWake
)

// String returns a human-readable action name.
func (a Action) String() string {
	switch a {
	case ActionSleep:
		return "sleep"
	case ActionWake:
		return "wake"
	default:
		return "none"
	}
}

// fillerWords are optional leading/trailing words that don't count as
// "other words", so "please activate" still matches "activate".
var fillerWords = map[string]bool{
	"please": true,
	"ok":     true,
	"okay":   true,
	"yes":    true,
	"hey":    true,
}

// PhraseSet is a set of normalized command phrases.
type PhraseSet map[string]bool

// NewPhraseSet builds a PhraseSet from raw phrases, normalizing each.
// Empty phrases are ignored.
func NewPhraseSet(phrases []string) PhraseSet {
	set := make(PhraseSet, len(phrases))
	for _, p := range phrases {
		if n := Normalize(p); n != "" {
			set[n] = true
		}
	}
	return set
}

// Contains reports whether the set contains the normalized phrase.
func (s PhraseSet) Contains(normalized string) bool {
	return s[normalized]
}

// Normalize prepares a transcript for command matching: unicode
// compatibility fold, lowercase, whitespace runs collapsed to single
// spaces, and sentence punctuation trimmed from the ends.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := norm.NFKC.String(text)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, ".,!?;: ")
}

// stripFillers removes at most one leading and one trailing filler word.
func stripFillers(normalized string) string {
	words := strings.Split(normalized, " ")
	if len(words) > 0 && fillerWords[words[0]] {
		words = words[1:]
	}
	if len(words) > 0 && fillerWords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// Classify reports whether the transcript is exactly a sleep or wake
// command. The match is tried on the normalized text and again after
// stripping one optional filler word from each end.
func Classify(text string, sleep, wake PhraseSet) Action {
	if text == "" {
		return ActionNone
	}
	normalized := Normalize(text)
	if normalized == "" {
		return ActionNone
	}
	stripped := stripFillers(normalized)

	switch {
	case sleep.Contains(normalized) || sleep.Contains(stripped):
		return ActionSleep
	case wake.Contains(normalized) || wake.Contains(stripped):
		return ActionWake
	default:
		return ActionNone
	}
}

// Strip returns an empty string when the transcript is solely a sleep or
// wake command, so a bare command word is never typed. Any other
// transcript is returned unchanged.
func Strip(text string, sleep, wake PhraseSet) string {
	if Classify(text, sleep, wake) != ActionNone {
		return ""
	}
	return text
}
