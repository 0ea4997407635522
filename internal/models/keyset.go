package models

// KeySet is an insertion-ordered set of product keys.
// The zero value is not usable; call NewKeySet.
type KeySet struct {
	index map[ProductKey]int
	keys  []ProductKey
}

// NewKeySet returns a set holding keys, ignoring duplicates.
func NewKeySet(keys ...ProductKey) *KeySet {
	s := &KeySet{index: make(map[ProductKey]int, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key and reports whether it was not already present.
func (s *KeySet) Add(key ProductKey) bool {
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
	return true
}

// Remove deletes key and reports whether it was present.
func (s *KeySet) Remove(key ProductKey) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}
	delete(s.index, key)
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
	return true
}

// Has reports whether key is in the set.
func (s *KeySet) Has(key ProductKey) bool {
	_, ok := s.index[key]
	return ok
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the keys in insertion order.
func (s *KeySet) Keys() []ProductKey {
	keys := make([]ProductKey, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Clone returns an independent copy of the set.
func (s *KeySet) Clone() *KeySet {
	return NewKeySet(s.keys...)
}
