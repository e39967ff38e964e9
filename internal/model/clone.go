package model

// Clone returns a copy of d whose Items slice does not alias d.Items.
func (d Document) Clone() Document {
	out := d
	out.Items = CloneItems(d.Items)
	return out
}

// CloneItems deep-copies a line item slice. A nil or empty input yields a
// single blank item so callers never observe an empty list.
func CloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return []LineItem{BlankItem()}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
