package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("CASTCUT_SPRING_STIFFNESS")
	os.Unsetenv("CASTCUT_PROJECT_PATH")
	c := Load()
	assert.Equal(t, 470.0, c.SpringStiffness)
	assert.Equal(t, int64(500), c.ClickFadeMS)
	assert.Equal(t, int64(20), c.AudioDriftThresholdMS)
	assert.Equal(t, "castcut-project.json", c.ProjectPersistPath)
}

func TestLoadOverridesProjectPersistPath(t *testing.T) {
	os.Setenv("CASTCUT_PROJECT_PATH", "/tmp/custom-project.json")
	defer os.Unsetenv("CASTCUT_PROJECT_PATH")
	c := Load()
	assert.Equal(t, "/tmp/custom-project.json", c.ProjectPersistPath)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	os.Setenv("CASTCUT_SPRING_STIFFNESS", "900")
	defer os.Unsetenv("CASTCUT_SPRING_STIFFNESS")
	c := Load()
	assert.Equal(t, 900.0, c.SpringStiffness)
}
