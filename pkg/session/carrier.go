package session

// Carrier is an externally owned field holding encoded session data.
// A nil Data means "no data yet". Stores keep a reference to the carrier,
// so every Store built over the same carrier observes the same content.
type Carrier struct {
	Data *string
}

// NewCarrier returns a carrier that already holds data.
func NewCarrier(data string) *Carrier {
	return &Carrier{Data: &data}
}

// IsSet reports whether the carrier holds data.
func (c *Carrier) IsSet() bool {
	return c != nil && c.Data != nil
}

// Value returns the encoded data, or "" when unset.
func (c *Carrier) Value() string {
	if !c.IsSet() {
		return ""
	}
	return *c.Data
}

// Reset drops the carrier content.
func (c *Carrier) Reset() {
	c.Data = nil
}

func (c *Carrier) set(data string) {
	c.Data = &data
}
