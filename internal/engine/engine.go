// Package engine assigns each configured column a disjoint global index range
// and merges per-column transformer outputs into one sparse vector per row.
//
// Lifecycle: configure the transformers, the first index and the output columns;
// discover vocabularies from a column store (or Load a snapshot); then transform.
// An Engine is single-owner. Share it across goroutines only with external locking.
package engine

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/featrans/internal/dataset"
	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
	"github.com/hyperjump/featrans/internal/storage"
	"github.com/hyperjump/featrans/internal/transformer"
)

// Engine is the feature transformation engine.
type Engine struct {
	transformers map[string]transformer.Transformer
	indexFrom    int
	columns      []string
	discovered   bool

	names      map[int]string // global index -> "column-key", built lazily
	namesValid bool

	cacheSize int
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for discovery progress.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCacheSize bounds the per-transformer memo cache. Zero disables it.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// New returns an unconfigured engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure builds the transformers from specs and sets the first global index
// and the ordered output columns.
func (e *Engine) Configure(specs []models.ColumnSpec, indexFrom int, columns []string) error {
	if err := e.SetTransformers(specs); err != nil {
		return err
	}
	e.SetIndexFrom(indexFrom)
	return e.SetColumns(columns)
}

// SetTransformers replaces every transformer with new, undiscovered ones built from specs.
func (e *Engine) SetTransformers(specs []models.ColumnSpec) error {
	transformers := make(map[string]transformer.Transformer, len(specs))
	for _, spec := range specs {
		if _, dup := transformers[spec.Column]; dup {
			return fmt.Errorf("%w in transformer specs: %s", models.ErrDuplicateColumn, spec.Column)
		}
		t, err := transformer.New(spec, transformer.WithCacheSize(e.cacheSize))
		if err != nil {
			return err
		}
		transformers[spec.Column] = t
	}
	e.transformers = transformers
	e.discovered = false
	e.namesValid = false
	return nil
}

// SetIndexFrom sets the global index of the first feature, conventionally 0 or 1.
func (e *Engine) SetIndexFrom(indexFrom int) {
	e.indexFrom = indexFrom
	e.namesValid = false
}

// SetColumns sets the ordered output columns, label column included. The order
// determines index range allocation.
func (e *Engine) SetColumns(columns []string) error {
	if err := checkDuplicates(columns); err != nil {
		return err
	}
	e.columns = append([]string(nil), columns...)
	e.namesValid = false
	return nil
}

// Columns returns the output columns.
func (e *Engine) Columns() []string {
	return append([]string(nil), e.columns...)
}

// IndexFrom returns the global index of the first feature.
func (e *Engine) IndexFrom() int {
	return e.indexFrom
}

// Transformer returns the transformer configured for column.
func (e *Engine) Transformer(column string) (transformer.Transformer, bool) {
	t, ok := e.transformers[column]
	return t, ok
}

// AttachNormalizer sets the normalizer of a feature column; nil detaches it.
func (e *Engine) AttachNormalizer(column string, n normalizer.Normalizer) error {
	t, ok := e.transformers[column]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownColumn, column)
	}
	ft, ok := t.(transformer.FeatureTransformer)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNotApplicable, column)
	}
	ft.SetNormalizer(n)
	return nil
}

// Discover runs discovery for every store column that has a feature transformer,
// replacing previously learned state for those columns.
func (e *Engine) Discover(store dataset.ColumnStore) error {
	if e.transformers == nil {
		return fmt.Errorf("%w: no transformers", models.ErrNotConfigured)
	}
	total := 0
	for _, name := range store.Columns() {
		ft, ok := e.transformers[name].(transformer.FeatureTransformer)
		if !ok {
			continue
		}
		values, _ := store.Column(name)
		if err := ft.Discover(values); err != nil {
			return fmt.Errorf("discover column %s: %w", name, err)
		}
		total += ft.NumFeatures()
		e.logger.Info("features discovered",
			zap.String("column", name),
			zap.Int("features", ft.NumFeatures()),
		)
	}
	e.logger.Info("discovery finished", zap.Int("features", total))
	e.discovered = true
	e.namesValid = false
	return nil
}

// Discovered reports whether vocabularies were discovered or loaded.
func (e *Engine) Discovered() bool {
	return e.discovered
}

func (e *Engine) checkReady() error {
	switch {
	case len(e.transformers) == 0:
		return fmt.Errorf("%w: no transformers", models.ErrNotConfigured)
	case len(e.columns) == 0:
		return fmt.Errorf("%w: no output columns", models.ErrNotConfigured)
	case !e.discovered:
		return fmt.Errorf("%w: discovery has not run", models.ErrNotConfigured)
	}
	return nil
}

// span is one output column with its global offset.
type span struct {
	column string
	t      transformer.Transformer
	offset int
}

// layout walks the output columns and assigns each feature column its offset.
// Label columns get the offset of the next feature column and occupy no range.
// A feature column that was never discovered owns no range, so it is an error.
func (e *Engine) layout() ([]span, error) {
	spans := make([]span, 0, len(e.columns))
	offset := e.indexFrom
	for _, name := range e.columns {
		t, ok := e.transformers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrMissingTransformer, name)
		}
		spans = append(spans, span{column: name, t: t, offset: offset})
		if ft, ok := t.(transformer.FeatureTransformer); ok {
			if !ft.Discovered() {
				return nil, fmt.Errorf("%w: column %s has not been discovered", models.ErrNotConfigured, name)
			}
			offset += ft.NumFeatures()
		}
	}
	return spans, nil
}

// TransformRow transforms one row of the output columns.
func (e *Engine) TransformRow(row models.Row) (*models.Sample, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	spans, err := e.layout()
	if err != nil {
		return nil, err
	}
	return transformRow(spans, row)
}

func transformRow(spans []span, row models.Row) (*models.Sample, error) {
	sample := &models.Sample{Features: models.SparseVector{}}
	for _, s := range spans {
		text, ok := row[s.column]
		if !ok {
			return nil, fmt.Errorf("%w in row: %s", models.ErrMissingColumn, s.column)
		}
		switch t := s.t.(type) {
		case *transformer.Label:
			label, err := t.Transform(text)
			if err != nil {
				return nil, err
			}
			sample.Label = label
		case transformer.FeatureTransformer:
			local, err := t.Transform(text)
			if err != nil {
				return nil, err
			}
			for _, f := range local {
				sample.Features = append(sample.Features, models.Feature{Index: f.Index + s.offset, Value: f.Value})
			}
		}
	}
	return sample, nil
}

// Transform validates the output columns against store and returns a lazy
// sequence of samples in the store's row order. Validation errors are returned
// before any row is produced; a row error ends the sequence after yielding it.
// Each call to the sequence starts again from the first row.
func (e *Engine) Transform(store dataset.ColumnStore) (iter.Seq2[*models.Sample, error], error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := checkDuplicates(e.columns); err != nil {
		return nil, err
	}
	spans, err := e.layout()
	if err != nil {
		return nil, err
	}
	for _, name := range e.columns {
		if _, ok := store.Column(name); !ok {
			return nil, fmt.Errorf("%w in data source: %s", models.ErrMissingColumn, name)
		}
	}
	return func(yield func(*models.Sample, error) bool) {
		i := 0
		for row := range store.Rows() {
			sample, err := transformRow(spans, row)
			if err != nil {
				yield(nil, fmt.Errorf("row %d: %w", i, err))
				return
			}
			if !yield(sample, nil) {
				return
			}
			i++
		}
	}, nil
}

// FeatureName returns "column-key" for a global index. The boolean is false
// when no feature owns the index.
func (e *Engine) FeatureName(index int) (string, bool, error) {
	if err := e.checkReady(); err != nil {
		return "", false, err
	}
	if !e.namesValid {
		if err := e.buildNames(); err != nil {
			return "", false, err
		}
	}
	name, ok := e.names[index]
	return name, ok, nil
}

func (e *Engine) buildNames() error {
	spans, err := e.layout()
	if err != nil {
		return err
	}
	names := make(map[int]string)
	for _, s := range spans {
		ft, ok := s.t.(transformer.FeatureTransformer)
		if !ok {
			continue
		}
		for i, key := range ft.Vocabulary().Keys() {
			names[s.offset+i] = s.column + "-" + key
		}
	}
	e.names = names
	e.namesValid = true
	return nil
}

// ColumnRange is the global index range [Start, End] of one output column.
// End is Start-1 for a column without features.
type ColumnRange struct {
	Column string `json:"column"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Ranges returns the index range of each feature column in output order.
func (e *Engine) Ranges() ([]ColumnRange, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	spans, err := e.layout()
	if err != nil {
		return nil, err
	}
	var ranges []ColumnRange
	for _, s := range spans {
		ft, ok := s.t.(transformer.FeatureTransformer)
		if !ok {
			continue
		}
		ranges = append(ranges, ColumnRange{Column: s.column, Start: s.offset, End: s.offset + ft.NumFeatures() - 1})
	}
	return ranges, nil
}

// NumFeatures returns the total width of the output vector.
func (e *Engine) NumFeatures() (int, error) {
	ranges, err := e.Ranges()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range ranges {
		n += r.End - r.Start + 1
	}
	return n, nil
}

// Summary lists the index range of each feature column, one per line.
func (e *Engine) Summary() (string, error) {
	ranges, err := e.Ranges()
	if err != nil {
		return "", err
	}
	lines := make([]string, len(ranges))
	for i, r := range ranges {
		lines[i] = fmt.Sprintf("column: %s, id: [%d, %d]", r.Column, r.Start, r.End)
	}
	return strings.Join(lines, "\n"), nil
}

// Snapshot captures the learned state of every transformer.
func (e *Engine) Snapshot() (*storage.Snapshot, error) {
	if len(e.transformers) == 0 {
		return nil, fmt.Errorf("%w: no transformers", models.ErrNotConfigured)
	}
	s := &storage.Snapshot{Transformers: make(map[string]*transformer.State, len(e.transformers))}
	for name, t := range e.transformers {
		s.Transformers[name] = transformer.Export(t)
	}
	return s, nil
}

// Restore replaces every transformer with the ones in s and marks the engine
// discovered. Output columns and the first index are left unchanged.
func (e *Engine) Restore(s *storage.Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", models.ErrNotConfigured)
	}
	transformers := make(map[string]transformer.Transformer, len(s.Transformers))
	for name, st := range s.Transformers {
		t, err := transformer.Restore(st, transformer.WithCacheSize(e.cacheSize))
		if err != nil {
			return err
		}
		transformers[name] = t
	}
	e.transformers = transformers
	e.discovered = true
	e.namesValid = false
	e.logger.Debug("snapshot restored", zap.Strings("columns", sortedKeys(transformers)))
	return nil
}

// Save writes the learned transformer state to path.
func (e *Engine) Save(path string) error {
	s, err := e.Snapshot()
	if err != nil {
		return err
	}
	return storage.SaveFile(path, s)
}

// Load replaces the transformers with the snapshot at path.
func (e *Engine) Load(path string) error {
	s, err := storage.LoadFile(path)
	if err != nil {
		return err
	}
	return e.Restore(s)
}

func checkDuplicates(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: %s", models.ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

func sortedKeys(m map[string]transformer.Transformer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
