package rewriter

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	createCall   = regexp.MustCompile(`\.create\(`)
	findManyCall = regexp.MustCompile(`\.findMany\(`)
	whereDecl    = regexp.MustCompile(`\b(?:const|let|var)\s+where(?:\s*:\s*[^=\n]+)?\s*=\s*\{`)
	consoleError = regexp.MustCompile(`console\.error\(`)
)

const tenantFilterSpread = "...tenantFilter"

// objectArg returns the span of the object literal passed as the first
// argument of the call whose "(" ends at callEnd.
func objectArg(seg string, callEnd int) (int, int, bool) {
	open := callEnd
	for open < len(seg) && isSpace(seg[open]) {
		open++
	}
	if open >= len(seg) || seg[open] != '{' {
		return 0, 0, false
	}
	end, ok := matchClose(seg, open)
	if !ok {
		return 0, 0, false
	}
	return open, end + 1, true
}

// stampCreates adds the tenant stamp to the data payload of every
// `.create({ data ... })` call in seg, keeping the existing fields.
func stampCreates(seg, stamp, field string) ([]splice, int) {
	var splices []splice
	calls := createCall.FindAllStringIndex(seg, -1)
	for _, call := range calls {
		start, end, ok := objectArg(seg, call[1])
		if !ok {
			continue
		}
		obj := seg[start:end]
		data, ok := topLevelKey(obj, "data")
		if !ok {
			continue
		}

		if data.Shorthand() {
			splices = append(splices, splice{
				Start: start + data.KeyStart,
				End:   start + data.KeyEnd,
				Text:  fmt.Sprintf("data: { ...data, %s }", stamp),
			})
			continue
		}

		value := obj[data.ValueStart:data.ValueEnd]
		if strings.HasPrefix(value, "{") {
			closeAt, ok := matchClose(obj, data.ValueStart)
			if !ok {
				continue
			}
			literal := obj[data.ValueStart : closeAt+1]
			if _, present := topLevelKey(literal, field); present {
				continue
			}
			offset, text := appendLast(literal, stamp)
			pos := start + data.ValueStart + offset
			splices = append(splices, splice{Start: pos, End: pos, Text: text})
			continue
		}

		splices = append(splices, splice{
			Start: start + data.ValueStart,
			End:   start + data.ValueEnd,
			Text:  fmt.Sprintf("{ ...%s, %s }", value, stamp),
		})
	}
	return splices, len(calls)
}

// scopeQueries merges the tenant filter into local `where` declarations and
// into `.findMany(` calls that do not already take one.
func scopeQueries(seg string) []splice {
	var splices []splice

	for _, decl := range whereDecl.FindAllStringIndex(seg, -1) {
		open := decl[1] - 1
		closeAt, ok := matchClose(seg, open)
		if !ok {
			continue
		}
		splices = append(splices, scopeLiteral(seg, open, closeAt))
	}

	for _, call := range findManyCall.FindAllStringIndex(seg, -1) {
		pos := call[1]
		for pos < len(seg) && isSpace(seg[pos]) {
			pos++
		}
		if pos < len(seg) && seg[pos] == ')' {
			splices = append(splices, splice{Start: call[1], End: pos, Text: "{ where: tenantFilter }"})
			continue
		}

		start, end, ok := objectArg(seg, call[1])
		if !ok {
			continue
		}
		obj := seg[start:end]
		where, found := topLevelKey(obj, "where")
		switch {
		case !found:
			at := start + 1
			splices = append(splices, splice{Start: at, End: at, Text: insertFirst(obj, "where: tenantFilter")})
		case !where.Shorthand() && strings.HasPrefix(obj[where.ValueStart:], "{"):
			closeAt, ok := matchClose(obj, where.ValueStart)
			if ok {
				splices = append(splices, scopeLiteral(seg, start+where.ValueStart, start+closeAt))
			}
		}
	}
	return splices
}

// scopeLiteral spreads the tenant filter into the literal seg[open:closeAt+1].
func scopeLiteral(seg string, open, closeAt int) splice {
	literal := seg[open : closeAt+1]
	if strings.TrimSpace(literal[1:len(literal)-1]) == "" {
		return splice{Start: open, End: closeAt + 1, Text: "{ " + tenantFilterSpread + " }"}
	}
	return splice{Start: open + 1, End: open + 1, Text: insertFirst(literal, tenantFilterSpread)}
}

// tagConsoleErrors prefixes the first argument of every console.error call
// with tag. A string literal gets the tag inside it; anything else gets the
// tag as a new leading argument.
func tagConsoleErrors(seg, tag string) []splice {
	var splices []splice
	for _, call := range consoleError.FindAllStringIndex(seg, -1) {
		pos := call[1]
		for pos < len(seg) && isSpace(seg[pos]) {
			pos++
		}
		if pos >= len(seg) || seg[pos] == ')' {
			continue
		}
		if isQuote(seg[pos]) {
			if strings.HasPrefix(seg[pos+1:], "[") {
				continue
			}
			splices = append(splices, splice{Start: pos + 1, End: pos + 1, Text: tag + " "})
			continue
		}
		splices = append(splices, splice{Start: pos, End: pos, Text: fmt.Sprintf("%q, ", tag)})
	}
	return splices
}
