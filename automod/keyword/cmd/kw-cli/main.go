package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/setstore"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "kw-cli",
		Usage: "informal debugging CLI tool for lexicon matching",
	}
	setFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "json-set-file",
			Usage: "path to JSON file containing word sets (built-in lists are used if empty)",
		},
		&cli.StringFlag{
			Name:  "set-name",
			Usage: "which set within the set file to use",
			Value: "bad-words",
		},
	}
	app.Commands = []*cli.Command{
		&cli.Command{
			Name:  "match",
			Usage: "reads lines of text from stdin, runs obfuscation-tolerant lexicon matching, outputs matches",
			Flags: append(setFlags, &cli.IntFlag{
				Name:  "filler-bound",
				Usage: "maximum filler characters tolerated between letters",
				Value: keyword.DefaultFillerBound,
			}),
			Action: runMatch,
		},
		&cli.Command{
			Name:   "tokens",
			Usage:  "reads lines of text from stdin, tokenizes and matches against set",
			Flags:  setFlags,
			Action: runTokens,
		},
		&cli.Command{
			Name:  "normalize",
			Usage: "reads lines of text from stdin, outputs normalized form",
			Action: func(cctx *cli.Context) error {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					fmt.Println(keyword.Normalize(scanner.Text()))
				}
				return scanner.Err()
			},
		},
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(h))
	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(-1)
	}
}

func loadWords(cctx *cli.Context) ([]string, error) {
	path := cctx.String("json-set-file")
	if path == "" {
		return keyword.DefaultBadWords, nil
	}
	sets := setstore.NewMemSetStore()
	if err := sets.LoadFromFileJSON(path); err != nil {
		return nil, err
	}
	return sets.List(cctx.Context, cctx.String("set-name"))
}

func runMatch(cctx *cli.Context) error {
	words, err := loadWords(cctx)
	if err != nil {
		return err
	}
	m, err := keyword.Compile(keyword.NewLexicon(words), keyword.Options{FillerBound: cctx.Int("filler-bound")})
	if err != nil {
		return err
	}
	slog.Debug("compiled lexicon", "words", len(words), "patterns", m.Len())
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		word := m.Match(line)
		if word != "" {
			fmt.Printf("MATCH\t%s\t%s\n", word, line)
		}
	}
	return scanner.Err()
}

func runTokens(cctx *cli.Context) error {
	words, err := loadWords(cctx)
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[keyword.Normalize(w)] = true
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		for _, tok := range keyword.TokenizeText(line) {
			if set[tok] {
				fmt.Printf("MATCH\t%s\t%s\n", tok, line)
			}
		}
	}
	return scanner.Err()
}
