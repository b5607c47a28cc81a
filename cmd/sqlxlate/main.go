package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/zeromicro/go-zero/core/conf"

	"github.com/xcono/pgrest-translate/config"
	"github.com/xcono/pgrest-translate/ir"
	"github.com/xcono/pgrest-translate/render"
	"github.com/xcono/pgrest-translate/translate"
)

var configFile = flag.String("f", "", "optional config file")

func main() {
	flag.Parse()

	var c config.Config
	if *configFile != "" {
		conf.MustLoad(*configFile, &c)
	}

	app := &cli.App{
		Name:  "sqlxlate",
		Usage: "translate a SQL SELECT into a PostgREST request",
		Commands: []*cli.Command{
			{
				Name:      "translate",
				Usage:     "translate a SQL SELECT and print its IR and rendered request",
				ArgsUsage: "[sql]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read SQL from a file instead of the argument"},
				},
				Action: func(cmd *cli.Context) error {
					sql, err := sqlInput(cmd)
					if err != nil {
						return err
					}
					return runTranslate(sql, c)
				},
			},
			{
				Name:      "validate",
				Usage:     "exit non-zero if the SQL falls outside the supported subset",
				ArgsUsage: "[sql]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read SQL from a file instead of the argument"},
				},
				Action: func(cmd *cli.Context) error {
					sql, err := sqlInput(cmd)
					if err != nil {
						return err
					}
					return runValidate(sql, c)
				},
			},
		},
	}

	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sqlInput(cmd *cli.Context) (string, error) {
	if f := cmd.String("file"); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if cmd.Args().Len() == 0 {
		return "", fmt.Errorf("no SQL given: pass it as an argument or with -f")
	}
	return cmd.Args().Get(0), nil
}

func runTranslate(sql string, c config.Config) error {
	stmt, err := translate.FromSQL(sql)
	if err != nil {
		return printIrError(err)
	}
	if stmt.Limit == nil && c.Defaults.Limit > 0 {
		limit := c.Defaults.Limit
		withLimit := *stmt
		withLimit.Limit = &limit
		stmt = &withLimit
	}

	irJSON, err := json.MarshalIndent(stmt, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(irJSON))

	req := render.Render(stmt)
	reqJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(reqJSON))
	return nil
}

func runValidate(sql string, c config.Config) error {
	stmt, err := translate.FromSQL(sql)
	if err != nil {
		return printIrError(err)
	}
	if c.Defaults.RejectUnknownCasts {
		if cast, ok := firstUnknownCast(stmt, c.Defaults.KnownCasts); ok {
			fmt.Fprintf(os.Stderr, "%s: cast %q is not in knownCasts\n", ir.ErrCastOutsideTarget, cast)
			os.Exit(1)
		}
	}
	return nil
}

// firstUnknownCast walks every Cast/InputCast/OutputCast in stmt's target
// list, recursing into EmbeddedTarget nodes, and reports the first one not
// present in known (case-sensitive, matching the cast name exactly as it
// appears in the source SQL, ignoring any pg_catalog qualification).
func firstUnknownCast(stmt *ir.Statement, known []string) (string, bool) {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	return firstUnknownCastIn(stmt.Targets, allowed)
}

func firstUnknownCastIn(targets []ir.Target, allowed map[string]bool) (string, bool) {
	for _, t := range targets {
		switch v := t.(type) {
		case ir.Column:
			if cast, ok := unknownCastName(v.Cast, allowed); ok {
				return cast, true
			}
		case ir.AggregateTarget:
			if cast, ok := unknownCastName(v.InputCast, allowed); ok {
				return cast, true
			}
			if cast, ok := unknownCastName(v.OutputCast, allowed); ok {
				return cast, true
			}
		case *ir.EmbeddedTarget:
			if cast, ok := firstUnknownCastIn(v.Targets, allowed); ok {
				return cast, true
			}
		}
	}
	return "", false
}

func unknownCastName(cast string, allowed map[string]bool) (string, bool) {
	if cast == "" || allowed[cast] {
		return "", false
	}
	bare := cast
	if i := strings.LastIndex(cast, "."); i >= 0 {
		bare = cast[i+1:]
	}
	if allowed[bare] {
		return "", false
	}
	return cast, true
}

func printIrError(err error) error {
	if ie, ok := err.(*ir.Error); ok {
		fmt.Fprintf(os.Stderr, "%s: %s\n", ie.Kind, ie.Message)
		os.Exit(1)
		return nil
	}
	return err
}
