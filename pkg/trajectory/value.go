package trajectory

// Value is an optional channel entry. A zero Value is missing.
type Value struct {
	V     float64
	Valid bool
}

func Some(v float64) Value {
	return Value{V: v, Valid: true}
}

var Missing = Value{}

func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}

	f := v.V
	return &f
}

// Channel is one numeric signal aligned with a timestamp vector.
type Channel []Value

func ChannelOf(values ...float64) Channel {
	channel := make(Channel, len(values))
	for i, v := range values {
		channel[i] = Some(v)
	}

	return channel
}

func ChannelFromPointers(values []*float64) Channel {
	channel := make(Channel, len(values))
	for i, v := range values {
		if v != nil {
			channel[i] = Some(*v)
		}
	}

	return channel
}

func (c Channel) AllMissing() bool {
	for _, v := range c {
		if v.Valid {
			return false
		}
	}

	return true
}
