// Package reply turns raw model output into the text that is stored and
// the segments that are sent.
package reply

import (
	"regexp"
	"strings"
)

var thinkRe = regexp.MustCompile(`(?s)^\s*<think>(.*?)</think>`)

// Reply is a parsed model answer.
type Reply struct {
	// Visible is the answer without reasoning, before segmentation. It is
	// what goes into history.
	Visible string
	// Segments are the non-blank, trimmed pieces of Visible, in order.
	Segments []string
	// Reasoning is the out-of-band reasoning if the backend sent any,
	// otherwise the content of a leading <think> block.
	Reasoning string
}

// Split extracts reasoning from content and cuts the rest on delimiter.
func Split(content, reasoning, delimiter string) Reply {
	visible := content
	var think string
	if m := thinkRe.FindStringSubmatchIndex(content); m != nil {
		think = strings.TrimSpace(content[m[2]:m[3]])
		visible = content[m[1]:]
	}
	visible = strings.TrimSpace(visible)

	r := Reply{Visible: visible, Reasoning: strings.TrimSpace(reasoning)}
	if r.Reasoning == "" {
		r.Reasoning = think
	}
	r.Segments = Segments(visible, delimiter)
	return r
}

// Segments splits text on delimiter, trims every piece and drops blank
// ones. An empty delimiter yields the trimmed text as a single segment.
func Segments(text, delimiter string) []string {
	pieces := []string{text}
	if delimiter != "" {
		pieces = strings.Split(text, delimiter)
	}
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
