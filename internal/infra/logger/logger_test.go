package logger

import (
	"testing"

	"crm_onboarding_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "debug", Environment: "production"})
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)

	Init(&config.AppConfig{LogLevel: "loud", Environment: "development"})
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Log.Formatter)
}

func TestComponent(t *testing.T) {
	entry := Component("crm")
	assert.Equal(t, "crm", entry.Data["component"])
}
