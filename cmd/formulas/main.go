package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	_ "modernc.org/sqlite"

	"github.com/zephyrtronium/formulas"
)

func main() {
	log.SetFlags(0)
	var (
		inname, verb  string
		cfgname       string
		dbname, query string
		dec, sep      string
		with          defs
		nl, echo, cs  bool
		prec          uint
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=formula", not %q`, s)
		}
		with = append(with, def{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string")
	flag.Func("given", "name=formula variable definition (any number of times)", addwith)
	flag.UintVar(&prec, "p", 64, "precision of calculations in bits")
	flag.BoolVar(&nl, "n", false, "read separate input lines as separate formulas")
	flag.BoolVar(&echo, "echo", false, "print operation trees")
	flag.StringVar(&dec, "decimal", ".", "decimal separator")
	flag.StringVar(&sep, "sep", ",", "function argument separator")
	flag.BoolVar(&cs, "case", false, "distinguish function and constant names by case")
	flag.StringVar(&cfgname, "config", "", "YAML config file")
	flag.StringVar(&dbname, "db", "", "SQLite database to read variables from; requires -query")
	flag.StringVar(&query, "query", "", "SQL query producing one variable set per row")
	flag.Parse()

	cfg := config{Precision: prec, Decimal: dec, Separator: sep, CaseSensitive: cs}
	if cfgname != "" {
		// Flags given explicitly take precedence over the file.
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		c, err := loadConfig(cfgname)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c.merge(cfg, set)
	}
	cfg.Variables = append(cfg.Variables, with...)

	e, err := cfg.engine()
	if err != nil {
		log.Fatal(err)
	}
	vars, err := cfg.vars(e)
	if err != nil {
		log.Fatal(err)
	}

	verb += "\n"
	in, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if in == os.Stdin && dbname == "" && isatty.IsTerminal(in.Fd()) {
		prompt(e, bufio.NewScanner(in), os.Stdout, vars, verb, echo)
		return
	}
	srcs := flag.Args()
	if in != nil {
		s, err := readFormulas(in, nl)
		if err != nil {
			log.Fatal(err)
		}
		srcs = append(srcs, s...)
	}

	if dbname != "" || query != "" {
		if dbname == "" || query == "" {
			log.Fatal("-db and -query must be used together")
		}
		if len(srcs) != 1 {
			log.Fatalf("-db needs exactly one formula, have %d", len(srcs))
		}
		fm, err := e.Compile(srcs[0])
		if err != nil {
			log.Fatal(err)
		}
		if echo {
			fmt.Println(fm)
		}
		db, err := sql.Open("sqlite", dbname)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := evalRows(context.Background(), db, query, fm, vars, cfg.Precision, os.Stdout, verb); err != nil {
			log.Fatal(err)
		}
		return
	}

	for _, src := range srcs {
		if _, err := e.Compile(src); err != nil {
			log.Fatal(err)
		}
		evalPrint(e, os.Stdout, src, vars, verb, echo)
	}
}

// evalPrint compiles and evaluates src and writes the result, or the error if
// there was one.
func evalPrint(e *formulas.Engine[*big.Float], w io.Writer, src string, vars map[string]*big.Float, verb string, echo bool) {
	fm, err := e.Compile(src)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	if echo {
		fmt.Fprintf(w, "%v : ", fm)
	}
	r, err := fm.Eval(vars)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintf(w, verb, r)
}

// prompt evaluates one formula per line until the input ends. Errors are
// printed rather than fatal.
func prompt(e *formulas.Engine[*big.Float], sc *bufio.Scanner, w io.Writer, vars map[string]*big.Float, verb string, echo bool) {
	fmt.Fprint(w, "> ")
	for sc.Scan() {
		src := strings.TrimSpace(sc.Text())
		if src != "" {
			evalPrint(e, w, src, vars, verb, echo)
		}
		fmt.Fprint(w, "> ")
	}
	fmt.Fprintln(w)
}

// readFormulas reads the whole input as one formula, or as one formula per
// non-blank line if lines is true.
func readFormulas(in io.Reader, lines bool) ([]string, error) {
	b, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	if !lines {
		s := strings.TrimSpace(string(b))
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	var r []string
	for l := range strings.Lines(string(b)) {
		if l = strings.TrimSpace(l); l != "" {
			r = append(r, l)
		}
	}
	return r, nil
}

func infile(inname string, std bool) (*os.File, error) {
	switch {
	case inname != "" && inname != "-":
		return os.Open(inname)
	case inname == "-", std:
		return os.Stdin, nil
	}
	return nil, nil
}
