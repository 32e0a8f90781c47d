// Package format builds Telegram MarkdownV2 text.
package format

import "strings"

var (
	// Every character MarkdownV2 treats as markup must be escaped in plain text.
	textEscaper = strings.NewReplacer(
		`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
		"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
		"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	)
	// Inside code spans only the backtick and backslash are special.
	codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")
)

// EscapeV2 escapes text for use outside entities.
func EscapeV2(text string) string {
	return textEscaper.Replace(text)
}

// CodeV2 wraps text in an inline code span.
func CodeV2(text string) string {
	return "`" + codeEscaper.Replace(text) + "`"
}

// BoldV2 renders escaped text in bold.
func BoldV2(text string) string {
	return "*" + EscapeV2(text) + "*"
}

// ItalicV2 renders escaped text in italics.
func ItalicV2(text string) string {
	return "_" + EscapeV2(text) + "_"
}
