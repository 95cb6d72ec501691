package element

import "sort"

// knownTags is the fixed set of tag names a Node may carry. It is built once
// at package initialisation and never modified.
var knownTags = func() map[string]struct{} {
	names := []string{
		"!--", "!DOCTYPE",
		"a", "abbr", "address", "area", "article", "aside", "audio",
		"b", "base", "bdi", "bdo", "big", "blockquote", "body", "br", "button",
		"canvas", "caption", "cite", "code", "col", "colgroup",
		"data", "datalist", "dd", "del", "details", "dfn", "dialog", "div", "dl", "dt",
		"em", "embed",
		"fieldset", "figcaption", "figure", "footer", "form",
		"h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hr", "html",
		"i", "iframe", "img", "input", "ins",
		"kbd",
		"label", "legend", "li", "link",
		"main", "map", "mark", "marquee", "menu", "meta", "meter",
		"nav", "noscript",
		"object", "ol", "optgroup", "option", "output",
		"p", "param", "picture", "pre", "progress",
		"q",
		"rp", "rt", "ruby",
		"s", "samp", "script", "section", "select", "small", "source", "span",
		"strike", "strong", "style", "sub", "summary", "sup", "svg",
		"table", "tbody", "td", "template", "text", "textarea", "tfoot", "th",
		"thead", "time", "title", "tr", "track", "tt",
		"u", "ul",
		"var", "video",
		"wbr",
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}()

// IsValidTag reports whether tag is in the allow-list. The comparison is
// exact: "DIV" is not a valid tag.
func IsValidTag(tag string) bool {
	_, ok := knownTags[tag]
	return ok
}

// Tags returns the allow-list in sorted order.
func Tags() []string {
	tags := make([]string, 0, len(knownTags))
	for tag := range knownTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
