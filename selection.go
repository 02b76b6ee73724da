package readyset

import "fmt"

type SelectionKind uint8

const (
	SelectNone SelectionKind = iota
	SelectNet
	SelectBlock
)

// Selection is the result of Yield. Device is meaningful for SelectNet and
// SelectBlock, Token only for SelectBlock.
type Selection struct {
	Kind   SelectionKind
	Device DeviceID
	Token  TokenID
}

func None() Selection {
	return Selection{Kind: SelectNone}
}

func Net(dev DeviceID) Selection {
	return Selection{Kind: SelectNet, Device: dev}
}

func Block(dev DeviceID, tok TokenID) Selection {
	return Selection{Kind: SelectBlock, Device: dev, Token: tok}
}

func (s Selection) IsNone() bool {
	return s.Kind == SelectNone
}

func (s Selection) String() string {
	switch s.Kind {
	case SelectNet:
		return fmt.Sprintf("Net(%d)", s.Device)
	case SelectBlock:
		return fmt.Sprintf("Block(%d, %d)", s.Device, s.Token)
	default:
		return "None"
	}
}
