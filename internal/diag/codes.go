package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Declaration structure
	DeclInfo               Code = 1000
	DeclDuplicateName      Code = 1001
	DeclMisplaced          Code = 1002
	DeclUnionTooSmall      Code = 1003
	DeclGroupTooSmall      Code = 1004
	DeclGroupOutsideUnion  Code = 1005
	DeclUnionInUnion       Code = 1006
	DeclMissingOrdinal     Code = 1007
	DeclEnumerantMisplaced Code = 1008
	DeclMethodMisplaced    Code = 1009
	DeclFieldMisplaced     Code = 1010

	// Ordinals
	OrdInfo             Code = 2000
	OrdDuplicate        Code = 2001
	OrdSkipped          Code = 2002
	OrdRetroactiveUnion Code = 2003

	// Types and values
	TypeInfo         Code = 3000
	TypeUnresolved   Code = 3001
	TypeNotAType     Code = 3002
	TypeBadParams    Code = 3003
	TypeListParams   Code = 3004
	ValueMismatch    Code = 3005
	ValueOutOfRange  Code = 3006
	ValueNotConstant Code = 3007
	ValueUnsupported Code = 3008

	// Layout
	LayoutInfo     Code = 4000
	LayoutTooLarge Code = 4001
	LayoutInternal Code = 4002

	// IO / loading
	IOLoadFileError Code = 5000
	IODecodeError   Code = 5001

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		DeclInfo:               "Declaration information",
		DeclDuplicateName:      "Name already defined in this scope",
		DeclMisplaced:          "Declaration does not belong here",
		DeclUnionTooSmall:      "Union must have at least two members",
		DeclGroupTooSmall:      "Group must have at least two members",
		DeclGroupOutsideUnion:  "Group outside of a union",
		DeclUnionInUnion:       "Union directly inside a union",
		DeclMissingOrdinal:     "Field without ordinal",
		DeclEnumerantMisplaced: "Enumerant outside of an enum",
		DeclMethodMisplaced:    "Method outside of an interface",
		DeclFieldMisplaced:     "Struct member outside of a struct",
		OrdInfo:                "Ordinal information",
		OrdDuplicate:           "Duplicate ordinal",
		OrdSkipped:             "Skipped ordinal",
		OrdRetroactiveUnion:    "More than one field retroactively unionized",
		TypeInfo:               "Type information",
		TypeUnresolved:         "Unresolved type name",
		TypeNotAType:           "Name does not refer to a type",
		TypeBadParams:          "Type does not accept parameters",
		TypeListParams:         "List requires exactly one parameter",
		ValueMismatch:          "Type/value mismatch",
		ValueOutOfRange:        "Value out of range for type",
		ValueNotConstant:       "Name does not refer to a constant",
		ValueUnsupported:       "Unsupported default value",
		LayoutInfo:             "Layout information",
		LayoutTooLarge:         "Struct section too large",
		LayoutInternal:         "Internal layout error",
		IOLoadFileError:        "I/O load file error",
		IODecodeError:          "Malformed declaration document",
		ObsInfo:                "Observability information",
		ObsTimings:             "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("DCL%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("ORD%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LAY%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
