// crf-cli converts authoring documents into form schemas and fills cases
// interactively.
//
//	crf-cli -mode parse -source form.md -form-id crf-demo -form-version 1.0.0
//	crf-cli -mode convert -source api.yaml -component CaseReport -form-id crf-api
//	crf-cli -mode fill -source form.json -db cases.db
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	crf "github.com/clinforms/go-crf"
	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/loader"
	pkgopenapi "github.com/clinforms/go-crf/pkg/openapi"
	"github.com/clinforms/go-crf/pkg/schema"
	"github.com/clinforms/go-crf/pkg/session"
	boltstore "github.com/clinforms/go-crf/pkg/store/bolt"
	"github.com/clinforms/go-crf/pkg/store/memory"
	"github.com/clinforms/go-crf/pkg/tui"
)

func main() {
	mode := flag.String("mode", "parse", "parse | convert | fill")
	source := flag.String("source", "", "input document path")
	output := flag.String("output", "", "output file (stdout if empty)")
	formID := flag.String("form-id", "crf-form", "identity for generated schemas")
	formVersion := flag.String("form-version", "1.0.0", "version for generated schemas")
	component := flag.String("component", "", "OpenAPI component schema to convert")
	dbPath := flag.String("db", "", "bbolt case database (in-memory store if empty)")
	caseID := flag.String("case", "", "existing case to resume")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *source == "" {
		fatal(logger, "a -source document is required", nil)
	}

	ctx := context.Background()
	var err error
	switch *mode {
	case "parse":
		err = runParse(*source, *formID, *formVersion, *output)
	case "convert":
		err = runConvert(ctx, *source, *component, *formID, *formVersion, *output)
	case "fill":
		err = runFill(ctx, logger, *source, *dbPath, *caseID)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		fatal(logger, "command failed", err)
	}
}

func runParse(source, formID, formVersion, output string) error {
	raw, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	s := crf.ParseMarkdown(string(raw), formID, formVersion)
	for _, issue := range s.Validate() {
		slog.Warn("schema issue", "path", issue.Path, "message", issue.Message)
	}
	return emitJSON(s, output)
}

func runConvert(ctx context.Context, source, component, formID, formVersion, output string) error {
	raw, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	s, err := crf.NewOpenAPIConverter().Convert(ctx, raw, pkgopenapi.ConvertRequest{
		Component: component,
		FormID:    formID,
		Version:   formVersion,
	})
	if err != nil {
		return err
	}
	return emitJSON(s, output)
}

func runFill(ctx context.Context, logger *slog.Logger, source, dbPath, caseID string) error {
	s, err := loader.New().Load(ctx, parseSource(source))
	if err != nil {
		return err
	}

	var store answers.CaseStore
	if dbPath != "" {
		bolt, err := boltstore.Open(dbPath)
		if err != nil {
			return err
		}
		defer bolt.Close()
		store = bolt
	} else {
		store = memory.New()
	}

	var initial answers.AnswerSet
	if caseID == "" {
		c, err := store.Create(ctx, s.FormID)
		if err != nil {
			return err
		}
		caseID = c.ID
		logger.Info("case created", "caseId", caseID, "formId", s.FormID)
	} else {
		initial, err = store.Load(ctx, caseID)
		if err != nil {
			return err
		}
		for _, mismatch := range answers.Conform(initial, s) {
			logger.Warn("stored answer disagrees with schema", "detail", mismatch.String())
		}
		logger.Info("case resumed", "caseId", caseID, "fields", len(initial))
	}

	sess := crf.NewSession(s,
		session.WithCaseID(caseID),
		session.WithStore(store),
		session.WithLogger(logger),
		session.WithInitialAnswers(initial),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(runCtx)

	if err := tui.NewRunner(sess).Run(ctx); err != nil {
		return err
	}
	if err := store.Submit(ctx, caseID); err != nil {
		return err
	}
	logger.Info("case submitted", "caseId", caseID)
	return nil
}

func parseSource(raw string) schema.Source {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path)
	}
	return schema.SourceFromFile(path)
}

func emitJSON(v any, output string) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if output != "" {
		if err := os.WriteFile(output, raw, 0o644); err != nil {
			return err
		}
		fmt.Printf("Schema written to %s\n", output)
		return nil
	}
	_, err = os.Stdout.Write(raw)
	return err
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
