package session

import "context"

// Keys names the two durable entries of a session record
type Keys struct {
	Token string
	User  string
}

// NewKeys derives the entry names from an application namespace,
// e.g. "haz_factura" gives haz_factura_token and haz_factura_user.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "haz_factura"
	}
	return Keys{
		Token: prefix + "_token",
		User:  prefix + "_user",
	}
}

// Record is the durable form of a session. Both entries are always written
// and cleared together.
type Record struct {
	Token    string
	HasToken bool   // The token entry exists (it may hold "")
	User     []byte // Serialized profile JSON; nil when the entry is absent
}

// Empty reports whether neither entry is present
func (r Record) Empty() bool {
	return !r.HasToken && r.User == nil
}

// Storage persists a session record. Save replaces the whole record in a
// single atomic write; entries missing from the record are removed.
type Storage interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, record Record) error
	Clear(ctx context.Context) error
}
