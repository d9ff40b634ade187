package domain

import dErrors "atsnet/pkg/domain-errors"

// Collection names the document collections this core validates and persists.
type Collection string

const (
	CollectionUsers    Collection = "users"
	CollectionCenters  Collection = "centers"
	CollectionSessions Collection = "testSessions"
	CollectionVehicles Collection = "vehicles"
)

var validCollections = map[Collection]bool{
	CollectionUsers:    true,
	CollectionCenters:  true,
	CollectionSessions: true,
	CollectionVehicles: true,
}

// ParseCollection constructs a Collection from external input.
// Collection names are case-sensitive; "testsessions" is not a collection.
func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown collection %q", s)
	}
	return c, nil
}

func (c Collection) IsValid() bool {
	return validCollections[c]
}

func (c Collection) String() string {
	return string(c)
}
