package item

// Sequence is a finite, forward-only stream of items. It is used like
// sql.Rows: call Next until it returns false, then check Err.
type Sequence interface {
	Next() bool
	Item() Item
	Err() error
}

type sliceSequence struct {
	items []Item
	cur   Item
}

// Slice returns a sequence over items.
func Slice(items ...Item) Sequence {
	return &sliceSequence{items: items}
}

// Empty returns the empty sequence.
func Empty() Sequence {
	return &sliceSequence{}
}

func (s *sliceSequence) Next() bool {
	if len(s.items) == 0 {
		s.cur = nil
		return false
	}
	s.cur = s.items[0]
	s.items = s.items[1:]
	return true
}

func (s *sliceSequence) Item() Item { return s.cur }
func (s *sliceSequence) Err() error { return nil }

type funcSequence struct {
	next func() (Item, bool, error)
	cur  Item
	err  error
	done bool
}

// FromFunc returns a sequence that pulls items from next until it reports
// false or an error. next is not called again after either.
func FromFunc(next func() (Item, bool, error)) Sequence {
	return &funcSequence{next: next}
}

func (s *funcSequence) Next() bool {
	if s.done {
		return false
	}
	it, ok, err := s.next()
	if err != nil || !ok {
		s.done = true
		s.err = err
		s.cur = nil
		return false
	}
	s.cur = it
	return true
}

func (s *funcSequence) Item() Item { return s.cur }
func (s *funcSequence) Err() error { return s.err }

// Collect drains seq into a slice.
func Collect(seq Sequence) ([]Item, error) {
	var out []Item
	for seq.Next() {
		out = append(out, seq.Item())
	}
	return out, seq.Err()
}

// First returns the first item of seq, or nil when seq is empty. The rest of
// the sequence is not consumed.
func First(seq Sequence) (Item, error) {
	if seq.Next() {
		return seq.Item(), nil
	}
	return nil, seq.Err()
}
