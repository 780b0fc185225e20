package identity

// Identity is a registered phone's durable name/id pair.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Seed returns demo identities keyed by well-known tokens, handy for local
// runs against a fresh process.
func Seed() map[string]Identity {
	return map[string]Identity{
		"tok-alice": {ID: "phone-alice", Name: "alice"},
		"tok-bob":   {ID: "phone-bob", Name: "bob"},
	}
}
