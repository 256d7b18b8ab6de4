package utils

import "strings"

// byteSequenceReplacer repairs double-encoded UTF-8 sequences that show up
// in Instagram export captions (e.g. "Iâve" for "I've").
var byteSequenceReplacer = strings.NewReplacer(
	"â", "'",
	"â", "\"",
	"â", "\"",
	"â", "-",
	"â", "-",
	"", "'",
	"", "\"",
	"", "\"",
	"", "-",
	"", "-",
	"Ã¡", "a",
	"Ã©", "e",
	"Ã­", "i",
	"Ã³", "o",
	"Ãº", "u",
	"Ã±", "ñ",
	"Â", "",
)

// smartPunctuationReplacer downgrades typographic punctuation to plain
// ASCII so the generated YAML never needs to quote for it.
var smartPunctuationReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", "\"",
	"”", "\"",
	"–", "-",
	"—", "--",
	"…", "...",
)

// CleanText normalizes caption text from the export before it is
// persisted or serialized.
func CleanText(text string) string {
	text = byteSequenceReplacer.Replace(text)
	text = smartPunctuationReplacer.Replace(text)
	return text
}
