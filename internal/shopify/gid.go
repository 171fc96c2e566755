package shopify

import (
	"fmt"
	"strings"
)

const gidScheme = "gid://shopify/"

// EntityKind is the resource segment of a global ID.
type EntityKind string

const (
	KindOrder      EntityKind = "Order"
	KindDraftOrder EntityKind = "DraftOrder"
)

func (k EntityKind) Prefix() string {
	return gidScheme + string(k) + "/"
}

// GlobalID builds gid://shopify/<Kind>/<id>.
func GlobalID(kind EntityKind, id int64) string {
	return fmt.Sprintf("%s%d", kind.Prefix(), id)
}

// IsKind reports whether gid addresses a resource of the given kind.
func IsKind(gid string, kind EntityKind) bool {
	return strings.HasPrefix(gid, kind.Prefix())
}

