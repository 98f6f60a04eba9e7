package flow

import (
	"strconv"
	"strings"
)

// InputKind is the type of resumption input a suspended step expects.
type InputKind int

const (
	KindNone InputKind = iota
	KindText
	KindNumber
	KindChoice
	KindToken
)

func (k InputKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindChoice:
		return "choice"
	case KindToken:
		return "token"
	default:
		return "unknown"
	}
}

// TurnInput is the tagged result handed to a resuming step. Exactly the
// field matching Kind is meaningful.
type TurnInput struct {
	Kind   InputKind
	Text   string
	Number float64
	Choice int // zero-based index into the rendered option list
	Token  string
}

func TextInput(s string) TurnInput      { return TurnInput{Kind: KindText, Text: s} }
func NumberInput(v float64) TurnInput   { return TurnInput{Kind: KindNumber, Number: v} }
func ChoiceInput(idx int) TurnInput     { return TurnInput{Kind: KindChoice, Choice: idx} }
func TokenInput(token string) TurnInput { return TurnInput{Kind: KindToken, Token: token} }

// Recognize converts raw user text into the typed input a suspended step
// expects. Choices are entered 1-based and returned zero-based. Chat
// text never recognizes as a token: sign-in completes out of band and
// delivers the token as an already typed turn. A failed recognition is
// a user-input problem (re-prompt), unlike a kind mismatch on an
// already typed input.
func Recognize(expected InputKind, text string) (TurnInput, error) {
	text = strings.TrimSpace(text)
	switch expected {
	case KindText:
		return TextInput(text), nil
	case KindNumber:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return TurnInput{}, ErrInvalidNumber
		}
		return NumberInput(v), nil
	case KindChoice:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			return TurnInput{}, ErrInvalidChoice
		}
		return ChoiceInput(n - 1), nil
	case KindToken:
		return TurnInput{}, ErrInvalidToken
	default:
		return TurnInput{}, ErrNotWaiting
	}
}
