// modelctl is the operator CLI for the model registry: list versions,
// promote one to active, and run ad-hoc predictions against the
// currently active models.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rankforge/rankforge/internal/artifact"
	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/crawl"
	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/inference"
	"github.com/rankforge/rankforge/internal/logger"
	"github.com/rankforge/rankforge/internal/registry"
	"github.com/rankforge/rankforge/internal/repository"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		ServiceName: "rankforge-modelctl",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	list := flag.Bool("list", false, "List registered model versions")
	modelType := flag.String("type", "", "Filter -list by model type")
	active := flag.Bool("active", false, "Show the active model per type")
	activate := flag.String("activate", "", "Promote the given model id to active")
	advise := flag.String("advise", "", "Fetch metrics for a URL and run both models")
	clientID := flag.String("client", "", "Client id recorded on recommendations")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	modelRepo := repository.NewModelRepository(db)

	ctx := context.Background()

	switch {
	case *list:
		models, err := modelRepo.List(ctx, domain.ModelType(*modelType), 50)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to list models")
		}
		printModels(models)

	case *active:
		models, err := modelRepo.ListActive(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to list active models")
		}
		printModels(models)

	case *activate != "":
		store, err := artifact.NewStore(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize artifact storage")
		}
		reg := registry.New(modelRepo, store, appLogger)
		model, err := reg.Activate(ctx, *activate)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to activate model")
		}
		fmt.Printf("activated %s %s (version %s)\n", model.Type, model.ID, model.Version)

	case *advise != "":
		store, err := artifact.NewStore(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize artifact storage")
		}
		reg := registry.New(modelRepo, store, appLogger)
		if err := reg.LoadActiveModels(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to load active models")
		}
		engine := inference.NewEngine(reg, repository.NewRecommendationRepository(db), feature.NewCatalog(), appLogger)
		advisor := inference.NewAdvisor(engine, crawl.NewClient(&cfg.Crawl))

		advice, err := advisor.Advise(ctx, *clientID, *advise)
		if err != nil {
			appLogger.WithError(err).Fatal("Advice failed")
		}
		fmt.Printf("url: %s\n", advice.URL)
		fmt.Printf("ranking improvement: %+.4f\n", advice.RankingImprovement)
		if len(advice.SchemaTypes) == 0 {
			fmt.Println("schema types: none above threshold")
		} else {
			fmt.Println("schema types:")
			for _, s := range advice.SchemaTypes {
				fmt.Printf("  %-24s %.3f\n", s.Label, s.Score)
			}
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printModels(models []domain.Model) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tVERSION\tSTATUS\tSAMPLES\tCREATED")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			m.ID, m.Type, m.Version, m.Status, m.SampleCount, m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
