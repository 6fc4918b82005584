// Package css inspects and rewrites the stylesheets that card sheets link
// to: it verifies that a custom stylesheet still defines the classes the
// base templates rely on, and redirects url() references at the resources
// copied into the output directory.
package css

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser inspects CSS stylesheets.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

var classPattern = regexp.MustCompile(`\.(-?[_a-zA-Z][-_a-zA-Z0-9]*)`)

// Parse inspects CSS text. The source parameter identifies what is being
// parsed, for debug logging only.
func (p *Parser) Parse(data []byte, source string) *Stylesheet {
	sheet := &Stylesheet{Classes: make(map[string]bool)}

	if source != "" {
		p.log.Debug("parsing stylesheet", zap.String("source", source), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("stylesheet parse error", zap.Error(err))
			}
			return sheet

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			// selector tokens; rulesets nested in @media blocks come
			// through this same path
			var sb strings.Builder
			sb.Write(data)
			for _, t := range parser.Values() {
				sb.Write(t.Data)
			}
			for _, m := range classPattern.FindAllStringSubmatch(sb.String(), -1) {
				sheet.Classes[m[1]] = true
			}

		case css.AtRuleGrammar:
			if string(data) == "@import" {
				if url := importTarget(parser.Values()); url != "" {
					sheet.Imports = append(sheet.Imports, url)
				}
			}

		case css.DeclarationGrammar:
			sheet.URLs = append(sheet.URLs, valueURLs(parser.Values())...)
		}
	}
}

// valueURLs extracts url(...) references from property value tokens. The
// tokenizer emits unquoted references as a single url token, but quoted ones
// as a 'url(' function followed by a string.
func valueURLs(tokens []css.Token) []string {
	var urls []string
	pending := false
	for _, t := range tokens {
		switch t.TokenType {
		case css.URLToken:
			if url := unwrapURL(string(t.Data)); url != "" {
				urls = append(urls, url)
			}
		case css.FunctionToken:
			pending = strings.EqualFold(string(t.Data), "url(")
		case css.StringToken:
			if pending {
				if url := unquote(string(t.Data)); url != "" {
					urls = append(urls, url)
				}
			}
			pending = false
		case css.WhitespaceToken:
			// stay pending, 'url( "x" )' is legal
		default:
			pending = false
		}
	}
	return urls
}

// RewriteURLs redirects every local url() reference through the rewrite
// function and returns the original paths, so the caller can copy the
// referenced files alongside the rewritten sheet. Remote references are left
// alone. Everything else in the sheet passes through byte for byte.
func (p *Parser) RewriteURLs(data []byte, rewrite func(path string) string) ([]byte, []string) {
	lexer := css.NewLexer(parse.NewInput(bytes.NewReader(data)))

	var out bytes.Buffer
	var paths []string
	pending := false
	for {
		tt, text := lexer.Next()
		switch tt {
		case css.ErrorToken:
			return out.Bytes(), paths

		case css.URLToken:
			path := unwrapURL(string(text))
			if !localPath(path) {
				out.Write(text)
				continue
			}
			paths = append(paths, path)
			fmt.Fprintf(&out, "url('%s')", rewrite(path))

		case css.FunctionToken:
			pending = strings.EqualFold(string(text), "url(")
			out.Write(text)

		case css.StringToken:
			if pending {
				pending = false
				if path := unquote(string(text)); localPath(path) {
					paths = append(paths, path)
					fmt.Fprintf(&out, "'%s'", rewrite(path))
					continue
				}
			}
			out.Write(text)

		case css.WhitespaceToken:
			out.Write(text)

		default:
			pending = false
			out.Write(text)
		}
	}
}

func localPath(path string) bool {
	return path != "" && !strings.Contains(path, "://") && !strings.HasPrefix(path, "data:")
}

// importTarget extracts the target from @import tokens. Handles
// '@import "x"', '@import url("x")' and '@import url(x)'.
func importTarget(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			return unwrapURL(string(t.Data))
		}
	}
	return ""
}

// unwrapURL extracts the path from a full 'url(...)' token.
func unwrapURL(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(s), "url(") || !strings.HasSuffix(s, ")") {
		return ""
	}
	return unquote(strings.TrimSpace(s[4 : len(s)-1]))
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
