package description

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Render converts desc into the plain text shown to a player. Markup is removed,
// and any <s> sentence containing an empty item list is omitted.
func Render(desc string) string {
	z := html.NewTokenizer(strings.NewReader(desc))
	var (
		out        strings.Builder
		sentence   strings.Builder
		inSentence bool
		dropped    bool
		listItems  int
		inList     bool
	)
	write := func(s string) {
		if inSentence {
			sentence.WriteString(s)
			return
		}
		out.WriteString(s)
	}
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				write(string(z.Raw()))
			}
			break
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			write(tok.Data)
		case html.StartTagToken:
			switch tok.Data {
			case "s":
				inSentence = true
				dropped = false
				sentence.Reset()
			case "il":
				inList = true
				listItems = 0
			case "item":
				if inList {
					listItems++
				}
			}
		case html.SelfClosingTagToken:
			if tok.Data == "il" && inSentence {
				dropped = true
			}
		case html.EndTagToken:
			switch tok.Data {
			case "s":
				if inSentence && !dropped {
					out.WriteString(strings.TrimSpace(sentence.String()))
					out.WriteString(" ")
				}
				inSentence = false
			case "il":
				if inList && listItems == 0 && inSentence {
					dropped = true
				}
				inList = false
			}
		}
	}
	if inSentence && !dropped {
		out.WriteString(sentence.String())
	}
	return tidy(out.String())
}

func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for _, p := range []string{".", ",", "!", "?", ";", ":"} {
		s = strings.ReplaceAll(s, " "+p, p)
	}
	return s
}
