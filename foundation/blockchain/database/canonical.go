package database

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The hash input of a block is a fixed JSON encoding: keys sorted, ", " and
// ": " separators, everything outside printable ASCII escaped, and floats in
// shortest round-trip form with at least one fractional digit. Any tool that
// reads or writes state files has to produce these exact bytes or the stored
// hashes stop matching.

// formatFloat writes the shortest round-trip representation of f with at
// least one fractional digit, switching to exponent notation for values
// below 1e-4 or at/above 1e16.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)

	var sign string
	if s[0] == '-' {
		sign = "-"
		s = s[1:]
	}

	mant, expStr, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expStr)
	digits := strings.Replace(mant, ".", "", 1)

	if exp < -4 || exp >= 16 {
		m := digits[:1]
		if len(digits) > 1 {
			m += "." + digits[1:]
		}

		expSign := "+"
		if exp < 0 {
			expSign = "-"
			exp = -exp
		}

		return fmt.Sprintf("%s%se%s%02d", sign, m, expSign, exp)
	}

	if exp < 0 {
		return sign + "0." + strings.Repeat("0", -exp-1) + digits
	}

	if len(digits) <= exp+1 {
		return sign + digits + strings.Repeat("0", exp+1-len(digits)) + ".0"
	}

	return sign + digits[:exp+1] + "." + digits[exp+1:]
}

// jsonNumber is formatFloat with the JSON spelling of the special values.
func jsonNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	return formatFloat(f)
}

// jsonString quotes s escaping everything outside printable ASCII.
func jsonString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				r -= 0x10000
				fmt.Fprintf(&b, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		}
	}

	b.WriteByte('"')
	return b.String()
}

// jsonOptional writes null for the empty string.
func jsonOptional(s string) string {
	if s == "" {
		return "null"
	}
	return jsonString(s)
}

// canonicalTx writes the sorted-key encoding of a transaction.
func canonicalTx(b *strings.Builder, tx Tx) {
	b.WriteString(`{"amount": `)
	b.WriteString(jsonNumber(tx.Value))
	b.WriteString(`, "from_address": `)
	b.WriteString(jsonOptional(tx.FromID))
	b.WriteString(`, "public_key": `)
	b.WriteString(jsonOptional(tx.PublicKey))
	b.WriteString(`, "signature": `)
	b.WriteString(jsonOptional(tx.Signature))
	b.WriteString(`, "timestamp": `)
	b.WriteString(jsonNumber(tx.TimeStamp))
	b.WriteString(`, "to_address": `)
	b.WriteString(jsonString(tx.ToID))
	b.WriteByte('}')
}

// canonicalBlock writes the sorted-key encoding of the hashed block fields.
func canonicalBlock(block Block) string {
	var b strings.Builder

	b.WriteString(`{"index": `)
	b.WriteString(strconv.FormatUint(block.Number, 10))
	b.WriteString(`, "nonce": `)
	b.WriteString(strconv.FormatUint(block.Nonce, 10))
	b.WriteString(`, "previous_hash": `)
	b.WriteString(jsonString(block.PrevBlockHash))
	b.WriteString(`, "timestamp": `)
	b.WriteString(jsonNumber(block.TimeStamp))
	b.WriteString(`, "transactions": [`)
	for i, tx := range block.Transactions {
		if i > 0 {
			b.WriteString(", ")
		}
		canonicalTx(&b, tx)
	}
	b.WriteString("]}")

	return b.String()
}
