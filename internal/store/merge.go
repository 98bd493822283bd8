package store

// Merge unions every fact of source into target and returns target.
// Facts are set members, so merging is commutative and associative and can
// never conflict. A nil source is a no-op.
func Merge(target, source *Store) *Store {
	target.MergeFrom(source)
	return target
}

// MergeFrom unions every fact of other into s and returns how many facts
// were newly inserted. Categories of other are created in s even when empty,
// so a merged snapshot keeps its "configured" categories.
func (s *Store) MergeFrom(other *Store) int {
	if other == nil || other == s {
		return 0
	}

	added := 0
	for _, name := range other.Categories() {
		src, err := other.Category(name)
		if err != nil {
			continue
		}
		dst := s.GetOrCreate(name)
		added += dst.MergeFrom(src)
	}
	return added
}

// MergeFrom unions every fact of other into c and returns how many facts
// were newly inserted.
func (c *Category) MergeFrom(other *Category) int {
	if other == nil || other == c {
		return 0
	}

	added := 0
	other.Each(func(key string, values []string) {
		for _, v := range values {
			if c.Put(key, v) {
				added++
			}
		}
	})
	return added
}
