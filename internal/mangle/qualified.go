package mangle

import "strings"

// PackageSeparator separates a package qualifier from a symbol name. It is
// also the keyword sigil.
const PackageSeparator = ":"

// QualifiedName is a symbol name split into its package qualifier and local
// part. Qualified is true whenever the original text contained a separator,
// including the keyword form ":foo" where Package is empty.
type QualifiedName struct {
	Package   string
	Local     string
	Qualified bool
}

// ParseQualified splits name at its last package separator.
func ParseQualified(name string) QualifiedName {
	i := strings.LastIndex(name, PackageSeparator)
	if i < 0 {
		return QualifiedName{Local: name}
	}
	return QualifiedName{
		Package:   name[:i],
		Local:     name[i+len(PackageSeparator):],
		Qualified: true,
	}
}

// String joins the qualifier and local part back together.
func (q QualifiedName) String() string {
	if !q.Qualified {
		return q.Local
	}
	return q.Package + PackageSeparator + q.Local
}
