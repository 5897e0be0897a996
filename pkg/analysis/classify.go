package analysis

import "github.com/yaklabco/srcbuf/pkg/buffer"

// Classifier maps a token kind to a syntax-layer style and reports whether
// tokens of that kind are non-code.
type Classifier func(TokenKind) (buffer.StyleID, bool)

// Style ids assigned by DefaultClassifier. Zero stays "no style".
const (
	StyleKeyword buffer.StyleID = iota + 1
	StyleIdentifier
	StyleNumber
	StyleString
	StyleComment
	StylePunctuation
	StyleHeading
	StyleEmphasis
	StyleStrong
	StyleLink
	StyleCode
	StyleQuote
	StyleListMarker
)

// DefaultClassifier styles every token kind except plain text. Strings,
// comments and quotes count as non-code.
func DefaultClassifier(kind TokenKind) (buffer.StyleID, bool) {
	switch kind {
	case TokenKeyword:
		return StyleKeyword, false
	case TokenIdentifier:
		return StyleIdentifier, false
	case TokenNumber:
		return StyleNumber, false
	case TokenString:
		return StyleString, true
	case TokenComment:
		return StyleComment, true
	case TokenPunctuation:
		return StylePunctuation, false
	case TokenHeading:
		return StyleHeading, false
	case TokenEmphasis:
		return StyleEmphasis, false
	case TokenStrong:
		return StyleStrong, false
	case TokenLink:
		return StyleLink, false
	case TokenCode:
		return StyleCode, false
	case TokenQuote:
		return StyleQuote, true
	case TokenListMarker:
		return StyleListMarker, false
	default:
		return buffer.StyleNone, false
	}
}

// StyleName returns a short name for the style ids of DefaultClassifier.
func StyleName(id buffer.StyleID) string {
	switch id {
	case buffer.StyleNone:
		return "none"
	case StyleKeyword:
		return "keyword"
	case StyleIdentifier:
		return "identifier"
	case StyleNumber:
		return "number"
	case StyleString:
		return "string"
	case StyleComment:
		return "comment"
	case StylePunctuation:
		return "punctuation"
	case StyleHeading:
		return "heading"
	case StyleEmphasis:
		return "emphasis"
	case StyleStrong:
		return "strong"
	case StyleLink:
		return "link"
	case StyleCode:
		return "code"
	case StyleQuote:
		return "quote"
	case StyleListMarker:
		return "list-marker"
	default:
		return "custom"
	}
}
