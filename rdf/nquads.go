package rdf

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const nquadsFormat = "nquads"

// NQuadsDecoder reads quads line by line from N-Quads text.
type NQuadsDecoder struct {
	reader *bufio.Reader
	opts   DecodeOptions
	line   int
	count  int
	err    error
}

// NewNQuadsDecoder returns a pull-style N-Quads decoder with default limits.
func NewNQuadsDecoder(r io.Reader) *NQuadsDecoder {
	return NewNQuadsDecoderWithOptions(r, DefaultDecodeOptions())
}

// NewNQuadsDecoderWithOptions returns a decoder enforcing the given limits.
func NewNQuadsDecoderWithOptions(r io.Reader, opts DecodeOptions) *NQuadsDecoder {
	return &NQuadsDecoder{reader: bufio.NewReader(r), opts: normalizeDecodeOptions(opts)}
}

// Next returns the next quad, or io.EOF when the input is exhausted.
func (d *NQuadsDecoder) Next() (Quad, error) {
	if d.err != nil {
		return Quad{}, d.err
	}
	for {
		line, err := readLimitedLine(d.reader, d.opts.MaxLineBytes)
		if err != nil {
			if errors.Is(err, ErrLineTooLong) {
				err = &ParseError{Format: nquadsFormat, Line: d.line + 1, Err: err}
			}
			if err != io.EOF {
				d.err = err
			}
			return Quad{}, err
		}
		d.line++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		quad, err := parseNQuadsLine(trimmed)
		if err != nil {
			d.err = d.wrap(trimmed, err)
			return Quad{}, d.err
		}
		d.count++
		if d.opts.MaxQuads > 0 && d.count > d.opts.MaxQuads {
			d.err = fmt.Errorf("%w: more than %d quads", ErrQuadLimitExceeded, d.opts.MaxQuads)
			return Quad{}, d.err
		}
		return quad, nil
	}
}

// Err returns the first error encountered, if any.
func (d *NQuadsDecoder) Err() error { return d.err }

func (d *NQuadsDecoder) wrap(statement string, err error) error {
	column := 0
	var cerr *cursorError
	if errors.As(err, &cerr) {
		column = cerr.pos + 1
	}
	return &ParseError{Format: nquadsFormat, Statement: statement, Line: d.line, Column: column, Err: err}
}

// ParseNQuads decodes every quad from r with default limits.
func ParseNQuads(ctx context.Context, r io.Reader) ([]Quad, error) {
	return ParseNQuadsWithOptions(ctx, r, DefaultDecodeOptions())
}

// ParseNQuadsWithOptions decodes every quad from r, enforcing opts.
func ParseNQuadsWithOptions(ctx context.Context, r io.Reader, opts DecodeOptions) ([]Quad, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dec := NewNQuadsDecoderWithOptions(r, opts)
	var quads []Quad
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := dec.Next()
		if err == io.EOF {
			return quads, nil
		}
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
}

// ParseNQuadsString decodes every quad from s.
func ParseNQuadsString(ctx context.Context, s string) ([]Quad, error) {
	return ParseNQuads(ctx, strings.NewReader(s))
}

func parseNQuadsLine(line string) (Quad, error) {
	cursor := &ntCursor{input: line}
	subject, err := cursor.parseSubject()
	if err != nil {
		return Quad{}, err
	}
	predicate, err := cursor.parsePredicate()
	if err != nil {
		return Quad{}, err
	}
	object, err := cursor.parseTerm(true)
	if err != nil {
		return Quad{}, err
	}
	graph, err := cursor.parseOptionalGraph()
	if err != nil {
		return Quad{}, err
	}
	if !cursor.consume('.') {
		return Quad{}, cursor.errorf("expected '.' at end of statement")
	}
	cursor.skipWS()
	if cursor.pos < len(cursor.input) && cursor.input[cursor.pos] != '#' {
		return Quad{}, cursor.errorf("unexpected content after '.'")
	}
	return Quad{S: subject, P: predicate, O: object, G: graph}, nil
}

type cursorError struct {
	pos int
	err error
}

func (e *cursorError) Error() string { return e.err.Error() }
func (e *cursorError) Unwrap() error { return e.err }

type ntCursor struct {
	input string
	pos   int
}

func (c *ntCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *ntCursor) consume(ch byte) bool {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

func (c *ntCursor) parseSubject() (Term, error) {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == '"' {
		return nil, c.malformedf("literal not allowed as subject")
	}
	return c.parseTerm(false)
}

func (c *ntCursor) parsePredicate() (IRI, error) {
	c.skipWS()
	if strings.HasPrefix(c.input[c.pos:], "_:") {
		return IRI{}, c.malformedf("blank node not allowed as predicate")
	}
	if c.pos < len(c.input) && c.input[c.pos] == '"' {
		return IRI{}, c.malformedf("literal not allowed as predicate")
	}
	iri, err := c.parseIRI()
	if err == nil && iri.Value == "" {
		return IRI{}, c.malformedf("empty predicate IRI")
	}
	return iri, err
}

func (c *ntCursor) parseOptionalGraph() (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) || c.input[c.pos] == '.' {
		return nil, nil
	}
	if c.input[c.pos] == '"' {
		return nil, c.malformedf("literal not allowed as graph name")
	}
	return c.parseTerm(false)
}

func (c *ntCursor) parseTerm(allowLiteral bool) (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected end of line")
	}
	switch {
	case c.input[c.pos] == '<':
		return c.parseIRI()
	case strings.HasPrefix(c.input[c.pos:], "_:"):
		return c.parseBlankNode()
	case c.input[c.pos] == '"':
		if !allowLiteral {
			return nil, c.errorf("literal not allowed here")
		}
		return c.parseLiteral()
	default:
		return nil, c.errorf("unexpected token")
	}
}

func (c *ntCursor) parseIRI() (IRI, error) {
	if !c.consume('<') {
		return IRI{}, c.errorf("expected IRI")
	}
	var builder strings.Builder
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		switch ch {
		case '>':
			c.pos++
			return IRI{Value: builder.String()}, nil
		case '\\':
			r, err := c.parseUCHAR()
			if err != nil {
				return IRI{}, err
			}
			builder.WriteRune(r)
		case ' ', '\t', '\n', '\r', '<', '"':
			return IRI{}, c.errorf("invalid character %q in IRI", ch)
		default:
			builder.WriteByte(ch)
			c.pos++
		}
	}
	return IRI{}, c.errorf("unterminated IRI")
}

func (c *ntCursor) parseBlankNode() (BlankNode, error) {
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
		c.pos++
	}
	// a trailing '.' belongs to the statement terminator
	for c.pos > start && c.input[c.pos-1] == '.' {
		c.pos--
	}
	if start == c.pos {
		return BlankNode{}, c.errorf("blank node id missing")
	}
	return BlankNode{ID: c.input[start:c.pos]}, nil
}

func (c *ntCursor) parseLiteral() (Literal, error) {
	c.pos++ // opening quote
	var builder strings.Builder
	closed := false
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		if ch == '"' {
			c.pos++
			closed = true
			break
		}
		if ch != '\\' {
			builder.WriteByte(ch)
			c.pos++
			continue
		}
		if c.pos+1 >= len(c.input) {
			return Literal{}, c.errorf("unterminated escape")
		}
		switch next := c.input[c.pos+1]; next {
		case 't':
			builder.WriteByte('\t')
		case 'b':
			builder.WriteByte('\b')
		case 'n':
			builder.WriteByte('\n')
		case 'r':
			builder.WriteByte('\r')
		case 'f':
			builder.WriteByte('\f')
		case '"', '\'', '\\':
			builder.WriteByte(next)
		case 'u', 'U':
			r, err := c.parseUCHAR()
			if err != nil {
				return Literal{}, err
			}
			builder.WriteRune(r)
			continue
		default:
			return Literal{}, c.errorf("invalid escape sequence \\%c", next)
		}
		c.pos += 2
	}
	if !closed {
		return Literal{}, c.errorf("unterminated literal")
	}
	lexical := builder.String()
	if strings.HasPrefix(c.input[c.pos:], "@") {
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) && c.input[c.pos] != '.' {
			c.pos++
		}
		if start == c.pos {
			return Literal{}, c.errorf("language tag missing")
		}
		return Literal{Lexical: lexical, Lang: c.input[start:c.pos]}, nil
	}
	if strings.HasPrefix(c.input[c.pos:], "^^") {
		c.pos += 2
		dt, err := c.parseIRI()
		if err != nil {
			return Literal{}, err
		}
		if dt.Value == XSDString {
			dt = IRI{}
		}
		return Literal{Lexical: lexical, Datatype: dt}, nil
	}
	return Literal{Lexical: lexical}, nil
}

// parseUCHAR decodes \uXXXX or \UXXXXXXXX at the cursor.
func (c *ntCursor) parseUCHAR() (rune, error) {
	if c.pos+1 >= len(c.input) {
		return 0, c.errorf("unterminated escape")
	}
	width := 0
	switch c.input[c.pos+1] {
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, c.errorf("invalid escape sequence \\%c", c.input[c.pos+1])
	}
	start := c.pos + 2
	if start+width > len(c.input) {
		return 0, c.errorf("truncated unicode escape")
	}
	code, err := strconv.ParseUint(c.input[start:start+width], 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, c.errorf("invalid unicode escape %q", c.input[c.pos:start+width])
	}
	c.pos = start + width
	return rune(code), nil
}

func (c *ntCursor) errorf(format string, args ...interface{}) error {
	return &cursorError{pos: c.pos, err: fmt.Errorf(format, args...)}
}

func (c *ntCursor) malformedf(format string, args ...interface{}) error {
	return &cursorError{pos: c.pos, err: fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformedInput}, args...)...)}
}

func isTermDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '<', '"', '#':
		return true
	default:
		return false
	}
}

// NQuadsEncoder writes quads as canonical N-Quads lines.
type NQuadsEncoder struct {
	writer *bufio.Writer
	err    error
}

// NewNQuadsEncoder returns a push-style N-Quads encoder.
func NewNQuadsEncoder(w io.Writer) *NQuadsEncoder {
	return &NQuadsEncoder{writer: bufio.NewWriter(w)}
}

// Write encodes one quad.
func (e *NQuadsEncoder) Write(q Quad) error {
	if e.err != nil {
		return e.err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	_, err := e.writer.WriteString(SerializeQuad(q))
	if err != nil {
		e.err = err
	}
	return err
}

// Flush writes buffered data.
func (e *NQuadsEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	return e.writer.Flush()
}

// Close flushes the encoder.
func (e *NQuadsEncoder) Close() error {
	return e.Flush()
}

// SerializeQuad renders q as a canonical N-Quads line including the trailing newline.
func SerializeQuad(q Quad) string {
	var b strings.Builder
	writeQuad(&b, q.S, q.P, q.O, q.G)
	return b.String()
}

// writeQuad writes a canonical N-Quads line. Components are passed separately so the
// engine can substitute blank node labels without building a Quad.
func writeQuad(b *strings.Builder, s Term, p IRI, o Term, g Term) {
	b.WriteString(renderTerm(s))
	b.WriteByte(' ')
	b.WriteString(renderIRI(p))
	b.WriteByte(' ')
	b.WriteString(renderTerm(o))
	if g != nil {
		b.WriteByte(' ')
		b.WriteString(renderTerm(g))
	}
	b.WriteString(" .\n")
}

func renderIRI(iri IRI) string {
	return "<" + iri.Value + ">"
}

func renderTerm(term Term) string {
	switch value := term.(type) {
	case IRI:
		return renderIRI(value)
	case BlankNode:
		return value.String()
	case Literal:
		return renderLiteral(value)
	default:
		return ""
	}
}

func renderLiteral(l Literal) string {
	out := `"` + escapeLiteral(l.Lexical) + `"`
	if l.Lang != "" {
		return out + "@" + l.Lang
	}
	if l.Datatype.Value != "" && l.Datatype.Value != XSDString {
		return out + "^^" + renderIRI(l.Datatype)
	}
	return out
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\t", `\t`,
	"\n", `\n`,
	"\r", `\r`,
	`"`, `\"`,
)

func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\\\t\n\r\"") {
		return s
	}
	return literalEscaper.Replace(s)
}
