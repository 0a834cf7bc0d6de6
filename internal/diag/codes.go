package diag

import (
	"fmt"
)

type Code uint16

const (
	// Unknown error, fallback only
	UnknownCode Code = 0

	// Declaration file errors
	DeclInfo              Code = 1000
	DeclParse             Code = 1001
	DeclDuplicateCallable Code = 1002
	DeclMissingName       Code = 1003
	DeclMissingImpl       Code = 1004

	// Contract checks
	ChkInfo                         Code = 3000
	ChkNotExported                  Code = 3001
	ChkUndocumented                 Code = 3002
	ChkStructFieldExtras            Code = 3003
	ChkParamNotPositionalOrNamed    Code = 3004
	ChkNoneDefaultNotNoneable       Code = 3005
	ChkTypeAllowedTypesConflict     Code = 3006
	ChkPositionalAfterNonPositional Code = 3007
	ChkPositionalOnlyAfterNamed     Code = 3008
	ChkNonDefaultAfterDefault       Code = 3009
	ChkParamCountMismatch           Code = 3010
	ChkStructFieldParamCount        Code = 3011
	ChkInjectedTypeMismatch         Code = 3012

	// I/O errors
	IOLoadFileError Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:                     "Unknown error",
	DeclInfo:                        "Declaration information",
	DeclParse:                       "Malformed declaration file",
	DeclDuplicateCallable:           "Duplicate callable name",
	DeclMissingName:                 "Callable has no name",
	DeclMissingImpl:                 "Callable has no bound implementation",
	ChkInfo:                         "Contract information",
	ChkNotExported:                  "Bound implementation must be exported",
	ChkUndocumented:                 "Documented callable has empty doc string",
	ChkStructFieldExtras:            "Struct-field callable declares disallowed extras",
	ChkParamNotPositionalOrNamed:    "Parameter is neither positional nor named",
	ChkNoneDefaultNotNoneable:       "Parameter with 'None' default is not noneable",
	ChkTypeAllowedTypesConflict:     "Parameter declares both type and allowed_types",
	ChkPositionalAfterNonPositional: "Positional parameter after non-positional parameter",
	ChkPositionalOnlyAfterNamed:     "Positional-only parameter after named parameter",
	ChkNonDefaultAfterDefault:       "Mandatory positional parameter after defaulted one",
	ChkParamCountMismatch:           "Physical parameter count mismatch",
	ChkStructFieldParamCount:        "Struct-field callable has user-supplied parameters",
	ChkInjectedTypeMismatch:         "Injected parameter type mismatch",
	IOLoadFileError:                 "I/O load file error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("DECL%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CHK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
