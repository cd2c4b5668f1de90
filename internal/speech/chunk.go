package speech

import (
	"strings"
	"unicode/utf8"
)

// maxChunkLen is the longest text the translate TTS endpoint reads in one request.
const maxChunkLen = 100

var boundaries = []string{".!?", ",;:"}

// splitText breaks text into pieces of at most limit characters, preferring
// sentence ends, then clause punctuation, then spaces.
func splitText(text string, limit int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return splitLevel(text, limit, 0)
}

func splitLevel(text string, limit, level int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var segments []string
	if level < len(boundaries) {
		segments = splitAfter(text, boundaries[level])
	} else {
		segments = strings.Fields(text)
	}

	var out []string
	cur := ""
	for _, seg := range segments {
		if utf8.RuneCountInString(seg) > limit {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			if level < len(boundaries) {
				out = append(out, splitLevel(seg, limit, level+1)...)
			} else {
				out = append(out, hardSplit(seg, limit)...)
			}
			continue
		}

		switch {
		case cur == "":
			cur = seg
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(seg) <= limit:
			cur += " " + seg
		default:
			out = append(out, cur)
			cur = seg
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// splitAfter cuts after any of marks when it is followed by a space.
func splitAfter(text, marks string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if !strings.ContainsRune(marks, r) {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if seg := strings.TrimSpace(string(runes[start : i+1])); seg != "" {
			out = append(out, seg)
		}
		start = i + 1
	}
	if seg := strings.TrimSpace(string(runes[start:])); seg != "" {
		out = append(out, seg)
	}
	return out
}

func hardSplit(word string, limit int) []string {
	runes := []rune(word)
	out := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		out = append(out, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
