package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/approval"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/common"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/convert"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/engine"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/export"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/extract"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/objectstore"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/storage"
)

// pipeline bundles the engine with the resources that need closing after
// a run.
type pipeline struct {
	engine    *engine.Engine
	store     *storage.SQLiteStore
	extractor *extract.GeminiExtractor
	converter *convert.Converter
}

func (p *pipeline) Close() {
	p.converter.Close()
	if err := p.extractor.Close(); err != nil {
		slog.Warn("failed to close extractor", "error", err)
	}
	if err := p.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

// buildPipeline wires the engine from configuration.
func buildPipeline(ctx context.Context) (*pipeline, error) {
	apiKey := viper.GetString("gemini.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini.api_key (or INVOICEFLOW_GEMINI_API_KEY)", common.ErrMissingConfig)
	}

	var parserOpts []extract.ParserOption
	if viper.GetBool("extraction.lenient_json") {
		parserOpts = append(parserOpts, extract.WithLenientParsing())
	}

	extractor, err := extract.NewGeminiExtractor(ctx, apiKey, viper.GetString("gemini.model"), slog.Default(), parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	objects, err := buildObjectStore(ctx)
	if err != nil {
		_ = extractor.Close()
		return nil, err
	}

	store, err := storage.NewSQLiteStore(databasePath())
	if err != nil {
		_ = extractor.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = extractor.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	converter := convert.NewConverter(
		convert.NewHTTPRateSource(viper.GetString("rates.url")),
		slog.Default(),
	)
	evaluator := approval.NewEvaluator(approvalRules(), slog.Default())
	preparer := export.NewPreparer(slog.Default())

	config := engine.DefaultConfig()
	config.StrictMode = viper.GetBool("validation.strict")

	eng, err := engine.NewWithConfig(objects, extractor, store, converter, evaluator, preparer, slog.Default(), config)
	if err != nil {
		converter.Close()
		_ = extractor.Close()
		_ = store.Close()
		return nil, err
	}

	return &pipeline{
		engine:    eng,
		store:     store,
		extractor: extractor,
		converter: converter,
	}, nil
}

func buildObjectStore(ctx context.Context) (service.ObjectStore, error) {
	if bucket := viper.GetString("storage.bucket"); bucket != "" {
		store, err := objectstore.NewGCSStore(ctx, bucket, viper.GetString("storage.prefix"))
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS store: %w", err)
		}
		return store, nil
	}

	dir := viper.GetString("storage.dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "invoiceflow", "documents")
	}

	store, err := objectstore.NewLocalStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create local store: %w", err)
	}
	return store, nil
}

func databasePath() string {
	if path := viper.GetString("database.path"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "invoiceflow.db"
	}
	return filepath.Join(home, ".local", "share", "invoiceflow", "invoiceflow.db")
}

func approvalRules() approval.Rules {
	rules := approval.DefaultRules()
	if vendors := viper.GetStringSlice("approval.blacklisted_vendors"); len(vendors) > 0 {
		rules.BlacklistedVendors = vendors
	}
	return rules
}

// collectDocuments loads PDF documents from the given paths. Directories
// are scanned one level deep for .pdf files.
func collectDocuments(paths []string) ([]model.Document, error) {
	var docs []model.Document

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("cannot read directory %s: %w", path, err)
			}
			for _, entry := range entries {
				if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
					continue
				}
				doc, err := loadDocument(filepath.Join(path, entry.Name()))
				if err != nil {
					return nil, err
				}
				docs = append(docs, doc)
			}
			continue
		}

		doc, err := loadDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func loadDocument(path string) (model.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return model.Document{
		Filename: filepath.Base(path),
		Content:  content,
		Size:     int64(len(content)),
	}, nil
}
