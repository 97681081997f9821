package run_test

import (
	"testing"

	"github.com/dave/dst"
	. "github.com/onsi/gomega"

	"github.com/feigntest/feign/feigngen/run"
)

func parseFiles(t *testing.T, sources ...string) []*dst.File {
	t.Helper()

	loader := &fakeLoader{sources: sources}

	files, err := loader.Load(".")
	if err != nil {
		t.Fatal(err)
	}

	return files
}

func generate(t *testing.T, iface string, sources ...string) string {
	t.Helper()

	src, err := run.MockSource(parseFiles(t, sources...), run.Config{
		Interface: iface,
		MockName:  "Mock" + iface,
	})
	if err != nil {
		t.Fatal(err)
	}

	return src
}

// TestMockSource_TypeExpressions exercises the signature renderer across the
// supported type shapes.
func TestMockSource_TypeExpressions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := generate(t, "Kitchen", `package zoo

type Recipe struct{}

type Kitchen interface {
	Cook(recipes []*Recipe, portions map[string]int) error
	Feed(names ...string)
	Watch(feed <-chan string, control chan<- int, raw chan byte)
	Inspect(check func(string) (bool, error)) any
	Log(v any)
}
`)

	g.Expect(src).To(ContainSubstring(
		"func (m *MockKitchen) Cook(recipes []*Recipe, portions map[string]int) error {"))
	g.Expect(src).To(ContainSubstring(
		"func (m *MockKitchen) Feed(names ...string) {"))
	g.Expect(src).To(ContainSubstring(
		"func (m *MockKitchen) Watch(feed <-chan string, control chan<- int, raw chan byte) {"))
	g.Expect(src).To(ContainSubstring(
		"func (m *MockKitchen) Inspect(check func(string) (bool, error)) any {"))
	g.Expect(src).To(ContainSubstring("feign.Out[any](out, 0)"))
	g.Expect(src).To(ContainSubstring("Args: []any{names}"))
}

// TestMockSource_UnnamedParams verifies positional fallback names.
func TestMockSource_UnnamedParams(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := generate(t, "Sink", `package zoo

type Sink interface {
	Drain(string, int) bool
}
`)

	g.Expect(src).To(ContainSubstring("func (m *MockSink) Drain(arg0 string, arg1 int) bool {"))
	g.Expect(src).To(ContainSubstring("Args: []any{arg0, arg1}"))
}

// TestMockSource_MultipleResults verifies Out indices line up with named and
// grouped result lists.
func TestMockSource_MultipleResults(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := generate(t, "Scale", `package zoo

type Scale interface {
	Weigh(item string) (grams, ounces float64, err error)
}
`)

	g.Expect(src).To(ContainSubstring("(float64, float64, error)"))
	g.Expect(src).To(ContainSubstring(
		"feign.Out[float64](out, 0), feign.Out[float64](out, 1), feign.Out[error](out, 2)"))
}

// TestMockSource_ImportCarryover verifies only the qualifiers a signature
// uses are imported, honoring aliases.
func TestMockSource_ImportCarryover(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := generate(t, "Archive", `package zoo

import (
	"context"
	"net/http"
	stdtime "time"
)

var _ = http.MethodGet

type Archive interface {
	Stamp(ctx context.Context, at stdtime.Time)
}
`)

	g.Expect(src).To(ContainSubstring(`"context"`))
	g.Expect(src).To(ContainSubstring(`stdtime "time"`))
	g.Expect(src).NotTo(ContainSubstring(`"net/http"`), "unused import must not carry over")
}

// TestMockSource_FindsInterfaceAcrossFiles verifies the lookup spans the
// whole package, not just the first file.
func TestMockSource_FindsInterfaceAcrossFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := generate(t, "Second",
		"package zoo\n\ntype First interface{ A() }\n",
		"package zoo\n\ntype Second interface{ B() int }\n")

	g.Expect(src).To(ContainSubstring("var _ Second = (*MockSecond)(nil)"))
	g.Expect(src).To(ContainSubstring("feign.Out[int](out, 0)"))
}

// TestMockSource_Rejections covers the shapes feigngen refuses to mock.
func TestMockSource_Rejections(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cases := map[string]struct {
		iface  string
		source string
		want   string
	}{
		"missing interface": {
			iface:  "Ghost",
			source: "package zoo\n\ntype Real interface{ A() }\n",
			want:   "not found",
		},
		"not an interface": {
			iface:  "Plain",
			source: "package zoo\n\ntype Plain struct{}\n",
			want:   "not an interface",
		},
		"generic interface": {
			iface:  "Box",
			source: "package zoo\n\ntype Box[T any] interface{ Get() T }\n",
			want:   "type parameters",
		},
		"embedded interface": {
			iface:  "Both",
			source: "package zoo\n\nimport \"io\"\n\ntype Both interface{ io.Reader }\n",
			want:   "embedding",
		},
		"fixed-size array": {
			iface:  "Grid",
			source: "package zoo\n\ntype Grid interface{ Row() [4]int }\n",
			want:   "fixed-size arrays",
		},
	}

	for name, tc := range cases {
		_, err := run.MockSource(parseFiles(t, tc.source), run.Config{
			Interface: tc.iface,
			MockName:  "Mock" + tc.iface,
		})

		g.Expect(err).To(MatchError(ContainSubstring(tc.want)), name)
	}
}

// TestMockSource_NoFiles verifies the empty package error.
func TestMockSource_NoFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := run.MockSource(nil, run.Config{Interface: "Store", MockName: "MockStore"})

	g.Expect(err).To(MatchError(ContainSubstring("no Go files")))
}
