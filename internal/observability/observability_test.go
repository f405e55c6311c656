package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"tradeops/internal/models"
	"tradeops/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestSetup_MetricsOnly(t *testing.T) {
	metrics := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	obs := models.ObservabilityConfig{ServiceName: "test-service"}

	provider, err := Setup(metrics, obs, version.Info{}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, provider.PrometheusExporter())
	assert.False(t, provider.TracingEnabled())

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetup_TracingStdout(t *testing.T) {
	obs := models.ObservabilityConfig{
		ServiceName: "test-service",
		Tracing:     models.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.0},
	}

	provider, err := Setup(models.MetricsConfig{}, obs, version.Info{Version: "1.2.3"}, quietLogger())
	require.NoError(t, err)
	assert.True(t, provider.TracingEnabled())
	assert.Nil(t, provider.PrometheusExporter())

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetup_BothDisabled(t *testing.T) {
	provider, err := Setup(models.MetricsConfig{}, models.ObservabilityConfig{}, version.Info{}, nil)
	require.NoError(t, err)
	assert.False(t, provider.TracingEnabled())
	assert.Nil(t, provider.PrometheusExporter())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetup_InvalidExporter(t *testing.T) {
	obs := models.ObservabilityConfig{
		Tracing: models.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1.0},
	}

	provider, err := Setup(models.MetricsConfig{}, obs, version.Info{}, quietLogger())
	require.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestSetup_SamplerConfigurations(t *testing.T) {
	for _, rate := range []float64{1.0, 0.0, 0.5} {
		obs := models.ObservabilityConfig{
			Tracing: models.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: rate},
		}
		provider, err := Setup(models.MetricsConfig{}, obs, version.Info{}, quietLogger())
		require.NoError(t, err)
		assert.NoError(t, provider.Shutdown(context.Background()))
	}
}

func TestProvider_ShutdownNilProviders(t *testing.T) {
	assert.NoError(t, (&Provider{}).Shutdown(context.Background()))
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	assert.Equal(t, "development", getEnvironment())

	t.Setenv("DEPLOYMENT_ENV", "staging")
	assert.Equal(t, "staging", getEnvironment())

	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, "production", getEnvironment())
}
