package engine

import (
	"strconv"
	"testing"

	"github.com/hyperjump/featrans/internal/dataset"
	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

func benchFrame(b *testing.B, rows int) *dataset.Frame {
	b.Helper()
	label := make([]string, rows)
	text := make([]string, rows)
	num := make([]string, rows)
	cat := make([]string, rows)
	for i := 0; i < rows; i++ {
		label[i] = strconv.Itoa(i % 2)
		text[i] = "t" + strconv.Itoa(i%97) + ",t" + strconv.Itoa(i%13) + " t" + strconv.Itoa(i%7)
		num[i] = strconv.Itoa(i % 100)
		cat[i] = "c" + strconv.Itoa(i%31)
	}
	f, err := dataset.FromColumns(
		[]string{"label", "text", "num", "cat"},
		map[string][]string{"label": label, "text": text, "num": num, "cat": cat},
	)
	if err != nil {
		b.Fatal(err)
	}
	return f
}

func benchEngine(b *testing.B, cacheSize int) (*Engine, *dataset.Frame) {
	b.Helper()
	e := New(WithCacheSize(cacheSize))
	err := e.Configure([]models.ColumnSpec{
		{Column: "label", Kind: models.KindLabel},
		{Column: "text", Kind: models.KindText, NormType: normalizer.TypeMinMax, Extra: ",| "},
		{Column: "num", Kind: models.KindNumeric, NormType: normalizer.TypeMinMax},
		{Column: "cat", Kind: models.KindCategory},
	}, 1, []string{"label", "text", "num", "cat"})
	if err != nil {
		b.Fatal(err)
	}
	f := benchFrame(b, 1000)
	if err := e.Discover(f); err != nil {
		b.Fatal(err)
	}
	return e, f
}

func BenchmarkDiscover(b *testing.B) {
	e, f := benchEngine(b, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Discover(f)
	}
}

func BenchmarkTransform(b *testing.B) {
	for _, size := range []int{0, 10000} {
		b.Run("cache="+strconv.Itoa(size), func(b *testing.B) {
			e, f := benchEngine(b, size)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				seq, err := e.Transform(f)
				if err != nil {
					b.Fatal(err)
				}
				for _, err := range seq {
					if err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}
