package translate

import (
	"fmt"

	"schemac/internal/decl"
	"schemac/internal/diag"
)

// CheckMembers validates the declarations nested directly in a declaration of
// kind parent: each kind may only appear under certain parents, and sibling
// names must be unique.
func CheckMembers(nested []*decl.Decl, parent decl.Kind, rep diag.Reporter) {
	checkNames(nested, rep)
	for _, d := range nested {
		switch d.Kind {
		case decl.KindUsing, decl.KindConst, decl.KindEnum, decl.KindStruct,
			decl.KindInterface, decl.KindAnnotation:
			switch parent {
			case decl.KindFile, decl.KindStruct, decl.KindInterface:
			default:
				diag.Errorf(rep, diag.DeclMisplaced, d.Span, "This kind of declaration doesn't belong here.")
			}
		case decl.KindEnumerant:
			if parent != decl.KindEnum {
				diag.Errorf(rep, diag.DeclEnumerantMisplaced, d.Span, "Enumerants can only appear in enums.")
			}
		case decl.KindMethod:
			if parent != decl.KindInterface {
				diag.Errorf(rep, diag.DeclMethodMisplaced, d.Span, "Methods can only appear in interfaces.")
			}
		case decl.KindField, decl.KindUnion, decl.KindGroup:
			switch parent {
			case decl.KindStruct, decl.KindUnion, decl.KindGroup:
			default:
				diag.Errorf(rep, diag.DeclFieldMisplaced, d.Span, "This declaration can only appear in structs.")
			}
		default:
			diag.Errorf(rep, diag.DeclMisplaced, d.Span, "This kind of declaration doesn't belong here.")
		}
	}
}

// checkNames reports every sibling whose name was already taken, pointing
// back at the first declaration of that name.
func checkNames(nested []*decl.Decl, rep diag.Reporter) {
	seen := make(map[string]*decl.Decl, len(nested))
	for _, d := range nested {
		name := d.Name.Value
		prev, dup := seen[name]
		if !dup {
			seen[name] = d
			continue
		}
		diag.ReportError(rep, diag.DeclDuplicateName, d.Name.Span,
			fmt.Sprintf("'%s' is already defined in this scope.", name)).
			WithNote(prev.Name.Span, fmt.Sprintf("'%s' previously defined here.", name)).
			Emit()
	}
}
