package common

// ObjectID is a unique identifier for a table in the catalog.
type ObjectID uint32

const InvalidObjectID ObjectID = 0
