// Package semantic encodes experiment runs into semantic commit messages and
// decodes them back.
//
// Wire format:
//
//	<kind>: <summary>
//
//	<body (optional)>
//
//	---
//
//	{
//	  "<metadata field>": <value>
//	}
//
// Only the exp kind carries the separator and metadata block.
package semantic

// Kind is the leading token of a semantic commit.
type Kind string

const (
	KindExperiment Kind = "exp"
	KindFix        Kind = "fix"
	KindFeature    Kind = "feat"
	KindChore      Kind = "chore"
	KindTooling    Kind = "tooling"
	KindRefactor   Kind = "refactor"
)

var kinds = []Kind{
	KindExperiment,
	KindFix,
	KindFeature,
	KindChore,
	KindTooling,
	KindRefactor,
}

// Kinds returns every recognized kind in wire order.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseKind maps a wire token to a Kind.
func ParseKind(token string) (Kind, bool) {
	for _, k := range kinds {
		if string(k) == token {
			return k, true
		}
	}
	return "", false
}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	_, ok := ParseKind(string(k))
	return ok
}

// CarriesMetadata reports whether messages of this kind have a metadata block.
func (k Kind) CarriesMetadata() bool {
	return k == KindExperiment
}

func (k Kind) String() string {
	return string(k)
}
