package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/cli/config"
	"github.com/menu-planning/go-menuplan/domain/menu"
	"github.com/menu-planning/go-menuplan/logging"
	"github.com/menu-planning/go-menuplan/middleware/metrics"
	"github.com/menu-planning/go-menuplan/middleware/tracing"
	"github.com/menu-planning/go-menuplan/notify/kafka"
	"github.com/menu-planning/go-menuplan/notify/sns"
	"github.com/menu-planning/go-menuplan/notify/webhook"
	"github.com/menu-planning/go-menuplan/serializer/msgpack"
	"github.com/menu-planning/go-menuplan/serializer/protobuf"
	"github.com/menu-planning/go-menuplan/services"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, notifications ...*menuplan.Notification) error {
	return m.Called(ctx, notifications).Error(0)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"demo", "config", "version"})
	assert.NotNil(t, root.PersistentFlags().Lookup("no-color"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "Version")
	assert.Contains(t, out, Version)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "config", "init", "--dir", dir, "--non-interactive")
	require.NoError(t, err)
	assert.Contains(t, out, config.ConfigFileName)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Bus, cfg.Bus)

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, err := execute(t, "config", "init", "--dir", dir, "--non-interactive")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("overwrites with force", func(t *testing.T) {
		_, err := execute(t, "config", "init", "--dir", dir, "--force", "--non-interactive")
		require.NoError(t, err)
	})
}

func TestInitAnswers(t *testing.T) {
	t.Run("start from the config", func(t *testing.T) {
		a := newInitAnswers(config.DefaultConfig())

		assert.Equal(t, "10", a.CommandTimeout)
		assert.Equal(t, "development", a.LoggingMode)
		assert.Empty(t, a.Destination)
	})

	t.Run("apply", func(t *testing.T) {
		cfg := config.DefaultConfig()
		a := &initAnswers{CommandTimeout: "2.5", EventTimeout: "0", LoggingMode: "production", Destination: " kafka:menus "}

		require.NoError(t, a.apply(cfg))

		assert.Equal(t, 2.5, cfg.Bus.CommandTimeoutSeconds)
		assert.Zero(t, cfg.Bus.EventTimeoutSeconds)
		assert.Equal(t, "production", cfg.Logging.Mode)
		assert.Equal(t, "kafka:menus", cfg.Notify.Destination)
	})

	t.Run("rejects bad answers", func(t *testing.T) {
		for name, a := range map[string]*initAnswers{
			"not a number":      {CommandTimeout: "soon", EventTimeout: "1"},
			"negative":          {CommandTimeout: "1", EventTimeout: "-1"},
			"unknown transport": {CommandTimeout: "1", EventTimeout: "1", Destination: "smtp:ops"},
		} {
			t.Run(name, func(t *testing.T) {
				cfg := config.DefaultConfig()
				assert.Error(t, a.apply(cfg))
				assert.Equal(t, config.DefaultConfig().Bus, cfg.Bus)
			})
		}
	})

	t.Run("form builds", func(t *testing.T) {
		assert.NotNil(t, newInitForm(newInitAnswers(config.DefaultConfig())))
	})
}

func TestDemoCommand_Spinner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menuplan.yaml")
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false
	cfg.Logging.Level = "error"
	require.NoError(t, cfg.SaveFile(path))

	out, err := execute(t, "demo", "--config", path, "--spinner")

	require.NoError(t, err)
	assert.Contains(t, out, "Meals left")
	assert.Contains(t, out, "Demo finished")
}

func TestConfigShow(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Notify.Destination = "kafka:menus"
		cfg.Notify.Kafka.Brokers = []string{"localhost:9092"}
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, cfg.SaveFile(path))

		out, err := execute(t, "config", "show", "--config", path)

		require.NoError(t, err)
		assert.Contains(t, out, path)
		assert.Contains(t, out, "kafka:menus")
		assert.Contains(t, out, "Configuration is valid")
	})

	t.Run("yaml output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, config.DefaultConfig().SaveFile(path))

		out, err := execute(t, "config", "show", "--config", path, "--yaml")

		require.NoError(t, err)
		assert.Contains(t, out, "command_timeout_seconds: 10")
	})

	t.Run("invalid file reports problems", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("notify:\n  format: xml\n"), 0644))

		out, err := execute(t, "config", "show", "--config", path)

		require.Error(t, err)
		assert.Contains(t, out, "notify.format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestNewSerializer(t *testing.T) {
	registry := services.NewEventRegistry()

	tests := []struct {
		format string
		want   interface{}
	}{
		{"", &menuplan.JSONSerializer{}},
		{"json", &menuplan.JSONSerializer{}},
		{"msgpack", &msgpack.Serializer{}},
		{"protobuf", &protobuf.Serializer{}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			s, err := NewSerializer(tt.format, registry)
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := NewSerializer("xml", registry)
		require.Error(t, err)
	})
}

func TestNewPublisher(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.NotifyConfig
		want interface{}
	}{
		{"kafka", config.NotifyConfig{Destination: "kafka:menus", Kafka: config.KafkaConfig{Brokers: []string{"b:9092"}}}, &kafka.Publisher{}},
		{"sns", config.NotifyConfig{Destination: "sns:arn:aws:sns:eu-west-1:1:menus", SNS: config.SNSConfig{Region: "eu-west-1"}}, &sns.Publisher{}},
		{"webhook", config.NotifyConfig{Destination: "webhook:https://example.com", Webhook: config.WebhookConfig{TimeoutSeconds: 5}}, &webhook.Publisher{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, closeFn, err := NewPublisher(tt.cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
			assert.Equal(t, tt.name, p.Destination())
			assert.NoError(t, closeFn())
		})
	}

	t.Run("unknown transport", func(t *testing.T) {
		_, _, err := NewPublisher(config.NotifyConfig{Destination: "smtp:ops"})
		require.Error(t, err)
	})
}

func TestNewNotifier(t *testing.T) {
	t.Run("nil without destination", func(t *testing.T) {
		n, closeFn, err := NewNotifier(config.NotifyConfig{}, nil, nil)

		require.NoError(t, err)
		assert.Nil(t, n)
		assert.NoError(t, closeFn())
	})

	t.Run("routes to the wrapped publisher", func(t *testing.T) {
		cfg := config.NotifyConfig{Destination: "webhook:https://example.com"}
		n, _, err := NewNotifier(cfg, metrics.New(), tracing.NewTracer())

		require.NoError(t, err)
		router, ok := n.(*menuplan.NotificationRouter)
		require.True(t, ok)
		assert.Equal(t, []string{"webhook"}, router.Destinations())
	})
}

func TestDemo_Run(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(ns []*menuplan.Notification) bool {
		return len(ns) == 1 &&
			ns[0].EventType == (menu.MenuDeleted{}).EventType() &&
			ns[0].AggregateID == DemoMenuID &&
			ns[0].Destination == "webhook:https://example.com/menus" &&
			ns[0].Headers["correlation-id"] != ""
	})).Return(nil).Once()

	cfg := config.DefaultConfig()
	cfg.Notify.Destination = "webhook:https://example.com/menus"
	var out bytes.Buffer

	demo := &Demo{
		Config:   cfg,
		Out:      &out,
		Logger:   logging.NewFromCore(core),
		Notifier: notifier,
		Registry: prometheus.NewRegistry(),
	}
	report, err := demo.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Steps, 6)
	for _, s := range report.Steps {
		assert.NoError(t, s.Err, s.Name)
	}
	assert.Equal(t, DemoMenuID, report.MealMenuID)
	assert.Equal(t, float64(410), report.MenuCalories)
	assert.Equal(t, 0, report.MealsLeft)
	assert.Contains(t, report.Metrics, "menuplan_commands_total")
	assert.Equal(t, 6, report.Metrics["menuplan_commands_total"])
	notifier.AssertExpectations(t)

	handled := map[string]bool{}
	for _, e := range logs.FilterMessage("Event handled").All() {
		handled[e.ContextMap()["handler"].(string)] = true
	}
	assert.True(t, handled[services.HandlerUpdateMenuIDOnMeals])
	assert.True(t, handled[services.HandlerRefreshMenuMeals])
	assert.True(t, handled[services.HandlerDeleteRelatedMeals])
	assert.True(t, handled[services.HandlerNotifyMenuDeleted])
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	assert.Contains(t, out.String(), "Meals left")
}

func TestDemo_TracingToWriter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = true
	var out bytes.Buffer

	demo := &Demo{
		Config: cfg,
		Out:    &out,
		Logger: logging.NewFromCore(zapcore.NewNopCore()),
	}
	report, err := demo.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.Metrics)
	assert.Contains(t, out.String(), "command.CreateMeal")
}
