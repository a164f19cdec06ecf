package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/cli/config"
	"github.com/menu-planning/go-menuplan/cli/styles"
	"github.com/menu-planning/go-menuplan/cli/ui"
	"github.com/menu-planning/go-menuplan/domain/client"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/shared"
	"github.com/menu-planning/go-menuplan/logging"
	"github.com/menu-planning/go-menuplan/middleware/metrics"
	"github.com/menu-planning/go-menuplan/middleware/tracing"
	"github.com/menu-planning/go-menuplan/services"
)

// Demo identifiers.
const (
	DemoAuthorID = "author-1"
	DemoClientID = "client-1"
	DemoMenuID   = "menu-1"
	DemoMealID   = "meal-1"
)

// Demo runs a fixed scenario through an in-memory bus: a meal is created
// off-menu, placed on a menu, has its recipes replaced, and is removed
// when the menu is deleted.
type Demo struct {
	Config *config.Config
	Out    io.Writer

	// Logger is built from Config.Logging when nil.
	Logger *logging.Logger

	// Notifier is built from Config.Notify when nil.
	Notifier menuplan.Notifier

	// Registry receives the bus metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// DemoStep is one command of the scenario.
type DemoStep struct {
	Name    string
	Command menuplan.Command
	Err     error
}

// DemoReport is what the scenario observed.
type DemoReport struct {
	Steps []DemoStep

	// MealMenuID is the meal's menu after it was added to the menu.
	MealMenuID string

	// MenuCalories is the menu total after the meal's recipes changed.
	MenuCalories float64

	// MealsLeft counts stored meals after the menu was deleted.
	MealsLeft int

	// Metrics maps metric family names to their series count.
	Metrics map[string]int
}

// Run executes the scenario. A failing command stops it.
func (d *Demo) Run(ctx context.Context) (*DemoReport, error) {
	cfg := d.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	out := d.Out
	if out == nil {
		out = io.Discard
	}

	logger := d.Logger
	if logger == nil {
		l, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, err
		}
		defer l.Sync()
		logger = l
	}

	tracerOpts := []tracing.TracerOption{tracing.WithServiceName(cfg.Tracing.ServiceName)}
	if cfg.Tracing.Enabled {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer func() { _ = tp.Shutdown(context.WithoutCancel(ctx)) }()
		tracerOpts = append(tracerOpts, tracing.WithTracerProvider(tp))
	}
	tracer := tracing.NewTracer(tracerOpts...)

	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithMetricsServiceName(cfg.Metrics.ServiceName),
		)
		if err := m.Register(registry); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	notifier := d.Notifier
	if notifier == nil {
		n, closeFn, err := NewNotifier(cfg.Notify, m, tracer)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		notifier = n
	}

	serializer, err := NewSerializer(cfg.Notify.Format, services.NewEventRegistry())
	if err != nil {
		return nil, err
	}

	logMiddleware := menuplan.NewLoggingMiddleware(logger)
	commandMiddleware := []menuplan.Middleware{
		menuplan.RecoveryMiddleware(),
		menuplan.CorrelationIDMiddleware(menuplan.NewID),
		logMiddleware.Middleware(),
		tracing.CommandMiddleware(tracer),
		menuplan.ValidationMiddleware(),
	}
	eventMiddleware := []menuplan.EventMiddleware{
		menuplan.EventRecoveryMiddleware(),
		logMiddleware.EventMiddleware(),
		tracing.EventMiddleware(tracer),
	}
	if m != nil {
		commandMiddleware = append([]menuplan.Middleware{m.CommandMiddleware()}, commandMiddleware...)
		eventMiddleware = append([]menuplan.EventMiddleware{m.EventMiddleware()}, eventMiddleware...)
	}

	db := services.NewDatabase()
	bus := services.NewBus(db.NewUnitOfWork, services.Dependencies{
		Notifier:          notifier,
		Serializer:        serializer,
		NotifyDestination: cfg.Notify.Destination,
	}, append(cfg.BusOptions(),
		menuplan.WithLogger(logger),
		menuplan.WithMiddleware(commandMiddleware...),
		menuplan.WithEventMiddleware(eventMiddleware...),
	)...)
	defer bus.Close()

	report := &DemoReport{}
	steps := demoSteps()
	for i, step := range steps {
		fmt.Fprintln(out, styles.FormatStep(i+1, len(steps), step.Name))

		stepCtx := menuplan.WithCorrelationID(ctx, menuplan.NewID())
		step.Err = bus.Handle(stepCtx, step.Command)
		report.Steps = append(report.Steps, step)
		if step.Err != nil {
			fmt.Fprintln(out, styles.FormatError(step.Err.Error()))
			return report, fmt.Errorf("%s: %w", step.Command.CommandType(), step.Err)
		}

		switch step.Command.(type) {
		case services.AddMealToMenu:
			report.MealMenuID, err = readMealMenuID(ctx, db)
		case services.UpdateMeal:
			report.MenuCalories, err = readMenuCalories(ctx, db)
		case services.DeleteMenu:
			report.MealsLeft, err = countMeals(ctx, db)
		}
		if err != nil {
			return report, err
		}
	}

	report.Metrics, err = gatherMetrics(registry)
	if err != nil {
		return report, err
	}

	printReport(out, report)
	return report, nil
}

func demoSteps() []DemoStep {
	broth := meal.RecipeParams{
		ID:            "recipe-1",
		Name:          "Lentil broth",
		Ingredients:   []string{"lentils", "onion", "stock"},
		NutriFacts:    shared.NutriFacts{Calories: 320, Protein: 18},
		WeightInGrams: 350,
	}
	spiced := meal.NewRecipe(meal.RecipeParams{
		ID:            "recipe-2",
		Name:          "Spiced lentil broth",
		MealID:        DemoMealID,
		AuthorID:      DemoAuthorID,
		Ingredients:   []string{"lentils", "onion", "stock", "cumin"},
		NutriFacts:    shared.NutriFacts{Calories: 410, Protein: 21},
		WeightInGrams: 380,
	})

	return []DemoStep{
		{Name: "Create client", Command: services.CreateClient{
			ClientID: DemoClientID, AuthorID: DemoAuthorID, Profile: client.Profile{Name: "Demo client"},
		}},
		{Name: "Create menu", Command: services.CreateMenu{
			MenuID: DemoMenuID, AuthorID: DemoAuthorID, ClientID: DemoClientID,
		}},
		{Name: "Create meal off-menu (no events)", Command: services.CreateMeal{
			MealID: DemoMealID, AuthorID: DemoAuthorID, Name: "Lentil soup", Recipes: []meal.RecipeParams{broth},
		}},
		{Name: "Add meal to menu", Command: services.AddMealToMenu{
			MenuID: DemoMenuID, MealID: DemoMealID, Week: 1, Weekday: "monday", MealType: "lunch",
		}},
		{Name: "Replace the meal's recipes", Command: services.UpdateMeal{
			MealID: DemoMealID, Updates: map[string]interface{}{"recipes": []*meal.Recipe{spiced}},
		}},
		{Name: "Delete menu", Command: services.DeleteMenu{MenuID: DemoMenuID}},
	}
}

func readMealMenuID(ctx context.Context, db *services.Database) (string, error) {
	var menuID string
	err := menuplan.Run(ctx, db.NewUnitOfWork(), func(uow services.UnitOfWork) error {
		ml, err := uow.Meals().Get(ctx, DemoMealID)
		if err != nil {
			return err
		}
		snap, err := ml.Snapshot()
		menuID = snap.MenuID
		return err
	})
	return menuID, err
}

func readMenuCalories(ctx context.Context, db *services.Database) (float64, error) {
	var calories float64
	err := menuplan.Run(ctx, db.NewUnitOfWork(), func(uow services.UnitOfWork) error {
		mn, err := uow.Menus().Get(ctx, DemoMenuID)
		if err != nil {
			return err
		}
		snap, err := mn.Snapshot()
		calories = snap.NutriFacts.Calories
		return err
	})
	return calories, err
}

func countMeals(ctx context.Context, db *services.Database) (int, error) {
	var n int
	err := menuplan.Run(ctx, db.NewUnitOfWork(), func(uow services.UnitOfWork) error {
		meals, err := uow.Meals().Query(ctx, menuplan.NewQuery().Build())
		n = len(meals)
		return err
	})
	return n, err
}

func gatherMetrics(registry *prometheus.Registry) (map[string]int, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(families))
	for _, f := range families {
		out[f.GetName()] = len(f.GetMetric())
	}
	return out, nil
}

func printReport(out io.Writer, report *DemoReport) {
	steps := ui.NewTable("Command", "Status")
	for _, s := range report.Steps {
		status := "ok"
		if s.Err != nil {
			status = "failed"
		}
		steps.AddRow(s.Command.CommandType(), ui.StatusBadge(status))
	}
	fmt.Fprintln(out, steps.Render())

	fmt.Fprintln(out, styles.FormatKeyValue("Meal menu after add", report.MealMenuID))
	fmt.Fprintln(out, styles.FormatKeyValue("Menu calories", strconv.FormatFloat(report.MenuCalories, 'f', -1, 64)))
	fmt.Fprintln(out, styles.FormatKeyValue("Meals left", strconv.Itoa(report.MealsLeft)))

	if len(report.Metrics) > 0 {
		names := make([]string, 0, len(report.Metrics))
		for name := range report.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprint(out, ui.ListItems(names))
	}
}

// NewDemoCommand creates the demo command.
func NewDemoCommand() *cobra.Command {
	var spin bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the meal/menu scenario against an in-memory store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if problems := cfg.Validate(); len(problems) > 0 {
				return fmt.Errorf("invalid configuration: %s", problems[0])
			}

			out := cmd.OutOrStdout()
			if !spin {
				demo := &Demo{Config: cfg, Out: out}
				if _, err := demo.Run(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, styles.FormatSuccess("Demo finished"))
				return nil
			}

			// The report is buffered so it does not interleave with spinner frames.
			var report bytes.Buffer
			demo := &Demo{Config: cfg, Out: &report}
			err = ui.RunWithSpinner(cmd.ErrOrStderr(), "Running demo", func() error {
				_, err := demo.Run(cmd.Context())
				return err
			})
			if _, werr := out.Write(report.Bytes()); werr != nil && err == nil {
				err = werr
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, styles.FormatSuccess("Demo finished"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&spin, "spinner", false, "Show a spinner while the scenario runs")
	return cmd
}
