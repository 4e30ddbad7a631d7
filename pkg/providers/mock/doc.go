// Package mock provides the offline stand-in for a code-generating model.
//
// The client plays a fixed four-turn script selected from the conversation
// alone: the number of tool-role messages picks the step, and the last user
// message picks which component (Counter, ContactForm or Card) the script
// writes. Each turn narrates a sentence, calls the str_replace_editor tool
// once and finishes with tool-calls, until the final summary finishes with
// stop.
//
// Both ChatCompletion and StreamChatCompletion replay the same event
// sequence, so collecting the stream yields the buffered response. Pacing
// between text units goes through a Pacer so tests can run without delay.
package mock
