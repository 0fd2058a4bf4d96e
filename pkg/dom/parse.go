package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML parses a compiled template into a fragment. Unlike
// html.Parse it does not restructure the markup: every tag becomes exactly
// one node, so addresses computed against the template stay valid.
// Children of <template> are parsed into the element's Content.
func ParseHTML(src string) (*Node, error) {
	root := NewFragment()
	stack := []*Node{root}
	tags := []string{""}

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("dom: parse template: %w", err)
			}
			break
		}

		tok := z.Token()
		top := stack[len(stack)-1]

		switch tt {
		case html.TextToken:
			top.AppendChild(NewText(tok.Data))

		case html.CommentToken:
			top.AppendChild(NewComment(tok.Data))

		case html.StartTagToken, html.SelfClosingTagToken:
			el := NewElement(tok.Data)
			for _, a := range tok.Attr {
				el.SetAttribute(a.Key, a.Val)
			}
			top.AppendChild(el)
			if tt == html.SelfClosingTagToken || voidElements[el.Tag] {
				continue
			}
			if el.Content != nil {
				stack = append(stack, el.Content)
			} else {
				stack = append(stack, el)
			}
			tags = append(tags, el.Tag)

		case html.EndTagToken:
			// Pop to the matching open tag; stray end tags are ignored
			for i := len(tags) - 1; i > 0; i-- {
				if tags[i] == tok.Data {
					stack = stack[:i]
					tags = tags[:i]
					break
				}
			}
		}
	}

	if len(stack) > 1 {
		return nil, fmt.Errorf("dom: parse template: unclosed <%s>", tags[len(tags)-1])
	}
	return root, nil
}
