package transformer

// Vocabulary is a frozen mapping from feature key to local index. Indices are
// assigned in first-discovery order starting at 0. A Vocabulary never grows;
// discovery builds a new one through a vocabBuilder.
type Vocabulary struct {
	index map[string]int
	keys  []string
}

// NewVocabulary freezes keys in order. Repeated keys keep their first index.
func NewVocabulary(keys []string) *Vocabulary {
	b := newVocabBuilder()
	for _, k := range keys {
		b.add(k)
	}
	return b.freeze()
}

// Index returns the local index of key.
func (v *Vocabulary) Index(key string) (int, bool) {
	if v == nil {
		return 0, false
	}
	idx, ok := v.index[key]
	return idx, ok
}

// Key returns the key at local index i, or "" when i is out of range.
func (v *Vocabulary) Key(i int) string {
	if v == nil || i < 0 || i >= len(v.keys) {
		return ""
	}
	return v.keys[i]
}

// Keys returns a copy of the keys ordered by local index.
func (v *Vocabulary) Keys() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Len returns the number of features.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

type vocabBuilder struct {
	index map[string]int
	keys  []string
}

func newVocabBuilder() *vocabBuilder {
	return &vocabBuilder{index: make(map[string]int)}
}

// add returns the index of key, assigning the next one on first sight.
func (b *vocabBuilder) add(key string) int {
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := len(b.keys)
	b.index[key] = idx
	b.keys = append(b.keys, key)
	return idx
}

// freeze hands the builder's storage to a Vocabulary. The builder must not be used afterwards.
func (b *vocabBuilder) freeze() *Vocabulary {
	v := &Vocabulary{index: b.index, keys: b.keys}
	b.index, b.keys = nil, nil
	return v
}
