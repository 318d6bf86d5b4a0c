package emola

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

type fixture struct {
	Name   string   `yaml:"name"`
	Inputs []string `yaml:"inputs"`
	Want   string   `yaml:"want"`
	Error  string   `yaml:"error"`
}

func loadFixtures(t *testing.T, path string) []fixture {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var fixtures []fixture
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fixtures); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return fixtures
}

func TestFixtures(t *testing.T) {
	for _, fx := range loadFixtures(t, "testdata/fixtures.yaml") {
		t.Run(fx.Name, func(t *testing.T) {
			s, err := NewSession(SessionOptions{})
			if err != nil {
				t.Fatal(err)
			}
			last := len(fx.Inputs) - 1
			for i, src := range fx.Inputs[:last] {
				if _, err := s.Eval(src); err != nil {
					t.Fatalf("setup input %d %q: %v", i, src, err)
				}
			}

			v, err := s.Eval(fx.Inputs[last])
			if fx.Error != "" {
				kind, ok := KindOf(err)
				if !ok || kind.String() != fx.Error {
					t.Fatalf("expected %s, got %v", fx.Error, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := v.Repr(); got != fx.Want {
				t.Fatalf("got %s, want %s", got, fx.Want)
			}
		})
	}
}
