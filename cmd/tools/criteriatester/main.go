package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/kickfinder/backend/internal/config"
	catalogModel "github.com/kickfinder/backend/internal/model/catalog"
	"github.com/kickfinder/backend/internal/model/questionnaire"
	catalogService "github.com/kickfinder/backend/internal/service/catalog"
	"github.com/kickfinder/backend/internal/service/criteria"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] cannot load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	metrics := flag.String("metrics", "180/75", "height/weight in cm/kg")
	env := flag.String("env", "indoor", "play environment: indoor, outdoor or both")
	position := flag.String("position", "frontcourt", "position group: frontcourt or backcourt")
	budget := flag.String("budget", "mid", "budget tier: low, mid or high")
	timeout := flag.Duration("timeout", 10*time.Second, "overall timeout")

	flag.Parse()

	answers, err := buildAnswers(*metrics, *env, *position, *budget)
	if err != nil {
		flag.Usage()
		log.Fatalf("invalid answers: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var store catalogModel.Store = catalogModel.NewMemoryStore(catalogModel.Seed())
	if cfg.Catalog.UsePostgres() {
		pg, err := catalogService.NewPostgresStore(ctx, catalogService.Config{
			URL:          cfg.Catalog.DatabaseURL,
			Table:        cfg.Catalog.Table,
			QueryTimeout: cfg.Catalog.QueryTimeout,
			MaxConns:     1,
		})
		if err != nil {
			log.Fatalf("failed to open catalog database: %v", err)
		}
		defer pg.Close()
		store = pg
	}

	engine := criteria.NewEngine(store, criteria.Limits{
		Low: cfg.Advisor.LowBudgetLimit,
		Mid: cfg.Advisor.MidBudgetLimit,
	}, cfg.Catalog.QueryTimeout)

	filter, matches, err := engine.Search(ctx, answers)
	fmt.Println("criteria:")
	for _, c := range filter {
		fmt.Printf("  %s\n", c)
	}
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	fmt.Println()
	fmt.Println(criteria.Render(matches))
}

func buildAnswers(metrics, env, position, budget string) (questionnaire.Answers, error) {
	var a questionnaire.Answers

	height, weight, err := questionnaire.ParseMetrics(metrics)
	if err != nil {
		return a, err
	}
	e, err := questionnaire.ParseEnvironment(env)
	if err != nil {
		return a, err
	}
	p, err := questionnaire.ParsePosition(position)
	if err != nil {
		return a, err
	}
	b, err := questionnaire.ParseBudget(budget)
	if err != nil {
		return a, err
	}

	_ = a.SetMetrics(height, weight)
	_ = a.SetEnvironment(e)
	_ = a.SetPosition(p)
	_ = a.SetBudget(b)
	return a, nil
}
