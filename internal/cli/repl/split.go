package repl

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnbalancedQuotes reports an unterminated quoted argument.
var ErrUnbalancedQuotes = errors.New("invalid argument(s): unbalanced quotes")

// Split breaks a line into arguments. Double-quoted arguments understand
// \n, \r, \t, \", \\ and \xHH escapes; single-quoted arguments only \'.
func Split(line string) ([]string, error) {
	var (
		args []string
		cur  strings.Builder
		in   bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"' || ch == '\'':
			end, err := readQuoted(line, i, &cur)
			if err != nil {
				return nil, err
			}
			// A closing quote must be followed by a space or the end.
			if end+1 < len(line) && !isSpace(line[end+1]) {
				return nil, ErrUnbalancedQuotes
			}
			i = end
			in = true
		case isSpace(ch):
			if in {
				args = append(args, cur.String())
				cur.Reset()
				in = false
			}
		default:
			cur.WriteByte(ch)
			in = true
		}
	}
	if in {
		args = append(args, cur.String())
	}
	return args, nil
}

// readQuoted appends the quoted argument starting at line[start] and
// returns the index of its closing quote.
func readQuoted(line string, start int, out *strings.Builder) (int, error) {
	quote := line[start]
	for i := start + 1; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == quote:
			return i, nil
		case ch == '\\' && i+1 < len(line):
			next := line[i+1]
			if quote == '\'' {
				if next == '\'' {
					out.WriteByte('\'')
					i++
				} else {
					out.WriteByte(ch)
				}
				continue
			}
			switch next {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case 'b':
				out.WriteByte('\b')
			case 'a':
				out.WriteByte('\a')
			case 'x':
				if i+3 < len(line) {
					if b, err := strconv.ParseUint(line[i+2:i+4], 16, 8); err == nil {
						out.WriteByte(byte(b))
						i += 3
						continue
					}
				}
				out.WriteByte(next)
			default:
				out.WriteByte(next)
			}
			i++
		default:
			out.WriteByte(ch)
		}
	}
	return 0, ErrUnbalancedQuotes
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
