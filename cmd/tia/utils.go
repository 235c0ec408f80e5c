package main

import (
	"strings"
)

// parseAuthor splits 'Name <email>'. Missing parts are returned empty.
func parseAuthor(author string) (string, string) {
	author = strings.TrimSpace(author)

	start := strings.Index(author, "<")
	end := strings.LastIndex(author, ">")
	if start < 0 || end < start {
		return author, ""
	}

	return strings.TrimSpace(author[:start]), strings.TrimSpace(author[start+1 : end])
}
