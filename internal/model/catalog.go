package model

// TagKind selects a tag namespace. Labels are unique within a kind only:
// "Action" may exist both as a genre and, oddly, as a platform.
type TagKind string

const (
	TagGenre    TagKind = "genres"
	TagModel    TagKind = "models"
	TagPlatform TagKind = "platforms"
)

// TagKinds lists every namespace in display order.
var TagKinds = []TagKind{TagGenre, TagModel, TagPlatform}

// Valid reports whether k is one of the known namespaces.
func (k TagKind) Valid() bool {
	switch k {
	case TagGenre, TagModel, TagPlatform:
		return true
	}
	return false
}
