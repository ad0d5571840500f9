package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/formulas"
)

const testConfig = `
precision: 128
decimal: ","
separator: ";"
constants:
  tau: 2 * pi
variables:
  r: 3
  area: pi * r^2
  c: max(tau * r; 1,5)
`

func TestConfig(t *testing.T) {
	var c config
	if err := yaml.Unmarshal([]byte(testConfig), &c); err != nil {
		t.Fatal(err)
	}
	if c.Precision != 128 || c.Decimal != "," || c.Separator != ";" || c.CaseSensitive {
		t.Errorf("wrong settings: %+v", c)
	}
	want := defs{{"r", "3"}, {"area", "pi * r^2"}, {"c", "max(tau * r; 1,5)"}}
	if !slices.Equal(c.Variables, want) {
		t.Errorf("wrong variables:\nwant %q\ngot  %q", want, c.Variables)
	}
	e, err := c.engine()
	if err != nil {
		t.Fatal(err)
	}
	if tau, ok := e.Constants()["tau"]; !ok || tau.Overwritable {
		t.Errorf("wrong tau: %+v", tau)
	}
	vars, err := c.vars(e)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := vars["c"].Float64(); got < 18.849 || got > 18.85 {
		t.Errorf("wrong c: %v", vars["c"])
	}
	if vars["area"].Prec() != 128 {
		t.Errorf("wrong precision %d", vars["area"].Prec())
	}
}

func TestConfigBad(t *testing.T) {
	cases := []string{
		"variables: [x, y]",
		"constants:\n  x: [1]",
	}
	for _, src := range cases {
		var c config
		if err := yaml.Unmarshal([]byte(src), &c); err == nil {
			t.Errorf("no error decoding %q", src)
		}
	}
	bad := []config{
		{Precision: 64, Decimal: ".", Separator: "."},
		{Precision: 64, Decimal: "..", Separator: ","},
		{Precision: 0, Decimal: ".", Separator: ","},
		{Precision: 64, Decimal: ".", Separator: ",", Constants: defs{{"pi", "3"}}},
	}
	for _, c := range bad {
		if _, err := c.engine(); err == nil {
			t.Errorf("no error creating engine from %+v", c)
		}
	}
	c := config{Precision: 64, Decimal: ".", Separator: ",", Variables: defs{{"x", "y + 1"}}}
	e, _ := c.engine()
	if _, err := c.vars(e); !errors.Is(err, formulas.ErrUnboundVariable) {
		t.Errorf("want ErrUnboundVariable, got %v", err)
	}
}

func TestConfigMerge(t *testing.T) {
	file := config{Precision: 128, Decimal: ",", CaseSensitive: true}
	flags := config{Precision: 64, Decimal: ".", Separator: ","}
	got := file.merge(flags, map[string]bool{"decimal": true})
	want := config{Precision: 128, Decimal: ".", Separator: ",", CaseSensitive: true}
	if got.Precision != want.Precision || got.Decimal != want.Decimal || got.Separator != want.Separator || got.CaseSensitive != want.CaseSensitive {
		t.Errorf("wrong merge: want %+v, got %+v", want, got)
	}
	got = file.merge(flags, map[string]bool{"p": true, "case": true})
	if got.Precision != 64 || got.CaseSensitive {
		t.Errorf("flags didn't win: %+v", got)
	}
}

func TestEvalRows(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	c := config{Precision: 64, Decimal: ".", Separator: ",", Variables: defs{{"y", "10"}}}
	e, err := c.engine()
	if err != nil {
		t.Fatal(err)
	}
	given, err := c.vars(e)
	if err != nil {
		t.Fatal(err)
	}
	f, err := e.Compile("x * y")
	if err != nil {
		t.Fatal(err)
	}
	const query = `SELECT 2 AS x, 1.5 AS y UNION ALL SELECT 3, NULL UNION ALL SELECT 'abc', 1 UNION ALL SELECT '0.25', 4`
	var b strings.Builder
	if err := evalRows(context.Background(), db, query, f, given, 64, &b, "%g\n"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 lines, got %q", lines)
	}
	if lines[0] != "3" || lines[1] != "30" || lines[3] != "1" {
		t.Errorf("wrong results %q", lines)
	}
	if !strings.Contains(lines[2], "undefined variable") {
		t.Errorf("want undefined variable error, got %q", lines[2])
	}
	// Rows don't leak into the given variables.
	if len(given) != 1 {
		t.Errorf("given variables changed: %v", given)
	}

	if err := evalRows(context.Background(), db, "SELEKT", f, given, 64, &b, "%g\n"); err == nil {
		t.Error("no error from bad query")
	}
}

func TestReadFormulas(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		lines bool
		want  []string
	}{
		{"whole", "1 +\n2\n", false, []string{"1 +\n2"}},
		{"lines", "1 +\n\n2\n", true, []string{"1 +", "2"}},
		{"empty", " \n", false, nil},
		{"empty-lines", "\n\n", true, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := readFormulas(strings.NewReader(c.in), c.lines)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, c.want) {
				t.Errorf("want %q, got %q", c.want, got)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	e := formulas.NewBigFloatEngine(64)
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader("1 + 1\n\nmax(\nx\n"))
	prompt(e, sc, &b, nil, "%g\n", false)
	lines := strings.Split(b.String(), "\n")
	if len(lines) != 5 {
		t.Fatalf("wrong output %q", lines)
	}
	if lines[0] != "> 2" || !strings.HasPrefix(lines[1], "> > ") || !strings.Contains(lines[2], "undefined variable") || lines[3] != "> " {
		t.Errorf("wrong output %q", lines)
	}
}
