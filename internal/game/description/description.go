// Package description maintains the item lists embedded in entity descriptions.
//
// A description is free text that may contain any number of item lists:
//
//	<s>On the desk you see <il><item>a key</item> and <item>3 pencils</item></il>.</s>
//
// An <il> may carry a name attribute (an inventory slot id, or "hands" and
// "equipment" on players). Lists are rewritten in a normalized form: entries are
// joined with Oxford commas and an emptied list collapses to <il></il>. For a
// normalized description, RemoveItem(AddItem(d, p, l, q), p, l, q) == d.
package description

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Unlimited is the quantity used for entries with no finite stock.
const Unlimited = -1

// Phrases is how a single kind of item is written inside a list.
type Phrases struct {
	// Single is used for exactly one item, e.g. "a key".
	Single string
	// Plural is used after a count, or alone for unlimited stock, e.g. "keys".
	Plural string
}

// Phrase renders p for the given quantity.
//
// Precondition: quantity > 0 or quantity == Unlimited.
func (p Phrases) Phrase(quantity int) string {
	switch {
	case quantity == Unlimited:
		return p.Plural
	case quantity == 1:
		return p.Single
	default:
		return fmt.Sprintf("%d %s", quantity, p.Plural)
	}
}

// quantityOf reports the quantity an entry text represents for p.
func (p Phrases) quantityOf(entry string) (int, bool) {
	if entry == p.Single {
		return 1, true
	}
	if entry == p.Plural {
		return Unlimited, true
	}
	count, rest, ok := strings.Cut(entry, " ")
	if !ok || rest != p.Plural {
		return 0, false
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

type itemList struct {
	openTag string
	name    string
	named   bool
	items   []string
}

func (l *itemList) render() string {
	var b strings.Builder
	b.WriteString(l.openTag)
	for i, item := range l.items {
		switch {
		case i == 0:
		case len(l.items) == 2:
			b.WriteString(" and ")
		case i == len(l.items)-1:
			b.WriteString(", and ")
		default:
			b.WriteString(", ")
		}
		b.WriteString("<item>")
		b.WriteString(item)
		b.WriteString("</item>")
	}
	b.WriteString("</il>")
	return b.String()
}

type segment struct {
	text string
	list *itemList
}

func parse(desc string) []segment {
	z := html.NewTokenizer(strings.NewReader(desc))
	var (
		segs   []segment
		text   strings.Builder
		cur    *itemList
		inItem bool
		entry  strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			segs = append(segs, segment{text: text.String()})
			text.Reset()
		}
	}
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				text.Write(z.Raw())
			}
			break
		}
		raw := string(z.Raw())
		var tag string
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			tag = string(name)
		}

		if cur == nil {
			if tag == "il" && (tt == html.StartTagToken || tt == html.SelfClosingTagToken) {
				flush()
				l := &itemList{openTag: raw}
				for {
					key, val, more := z.TagAttr()
					if string(key) == "name" {
						l.name = string(val)
						l.named = true
					}
					if !more {
						break
					}
				}
				if tt == html.SelfClosingTagToken {
					l.openTag = strings.TrimRight(strings.TrimSuffix(raw, "/>"), " ") + ">"
					segs = append(segs, segment{list: l})
					continue
				}
				cur = l
				continue
			}
			text.WriteString(raw)
			continue
		}

		switch {
		case tag == "il" && tt == html.EndTagToken:
			if inItem {
				cur.items = append(cur.items, entry.String())
				inItem = false
			}
			segs = append(segs, segment{list: cur})
			cur = nil
		case tag == "item" && tt == html.StartTagToken:
			inItem = true
			entry.Reset()
		case tag == "item" && tt == html.EndTagToken:
			if inItem {
				cur.items = append(cur.items, entry.String())
				inItem = false
			}
		case inItem:
			entry.WriteString(raw)
		}
	}
	if cur != nil {
		if inItem {
			cur.items = append(cur.items, entry.String())
		}
		segs = append(segs, segment{list: cur})
	}
	flush()
	return segs
}

func assemble(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.list != nil {
			b.WriteString(s.list.render())
			continue
		}
		b.WriteString(s.text)
	}
	return b.String()
}

// findList returns the list an item should be written to. A named lookup matches
// the name attribute case-insensitively; an empty name selects the first unnamed
// list, falling back to the first list of any kind.
func findList(segs []segment, name string) *itemList {
	var first *itemList
	for _, s := range segs {
		if s.list == nil {
			continue
		}
		if first == nil {
			first = s.list
		}
		if name == "" && !s.list.named {
			return s.list
		}
		if name != "" && s.list.named && strings.EqualFold(s.list.name, name) {
			return s.list
		}
	}
	if name == "" {
		return first
	}
	return nil
}

// AddItem records quantity more of the item described by p in the named list.
//
// Precondition: quantity > 0 or quantity == Unlimited.
// Postcondition: Returns desc unchanged when no matching list exists. An existing
// entry for p is merged; otherwise a new entry is appended.
func AddItem(desc string, p Phrases, list string, quantity int) string {
	segs := parse(desc)
	l := findList(segs, list)
	if l == nil {
		return desc
	}
	for i, entry := range l.items {
		n, ok := p.quantityOf(entry)
		if !ok {
			continue
		}
		switch {
		case n == Unlimited:
		case quantity == Unlimited:
			l.items[i] = p.Phrase(Unlimited)
		default:
			l.items[i] = p.Phrase(n + quantity)
		}
		return assemble(segs)
	}
	l.items = append(l.items, p.Phrase(quantity))
	return assemble(segs)
}

// RemoveItem takes quantity of the item described by p out of the named list.
//
// Precondition: quantity > 0 or quantity == Unlimited.
// Postcondition: Returns desc unchanged when the list or entry is absent. An
// unlimited entry is only removed by an Unlimited quantity.
func RemoveItem(desc string, p Phrases, list string, quantity int) string {
	segs := parse(desc)
	l := findList(segs, list)
	if l == nil {
		return desc
	}
	for i, entry := range l.items {
		n, ok := p.quantityOf(entry)
		if !ok {
			continue
		}
		switch {
		case quantity == Unlimited:
			l.items = append(l.items[:i], l.items[i+1:]...)
		case n == Unlimited:
			return desc
		case n-quantity <= 0:
			l.items = append(l.items[:i], l.items[i+1:]...)
		default:
			l.items[i] = p.Phrase(n - quantity)
		}
		return assemble(segs)
	}
	return desc
}

// ClearLists empties every item list in desc.
func ClearLists(desc string) string {
	segs := parse(desc)
	changed := false
	for _, s := range segs {
		if s.list != nil {
			s.list.items = nil
			changed = true
		}
	}
	if !changed {
		return desc
	}
	return assemble(segs)
}

// Entries returns the raw entry texts of the named list, or nil if it is absent.
func Entries(desc, list string) []string {
	l := findList(parse(desc), list)
	if l == nil {
		return nil
	}
	return l.items
}

// Normalize rewrites every item list of desc in normalized form.
func Normalize(desc string) string {
	return assemble(parse(desc))
}

// HasList reports whether desc contains a list findable under name.
func HasList(desc, list string) bool {
	return findList(parse(desc), list) != nil
}
