package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		SourcePath:    "/data/in.csv",
		SourceSize:    1024,
		Delimiter:     ",",
		Newline:       "\n",
		HasHeader:     true,
		Columns:       []ColumnSelection{{Name: "id", ElementType: "int64"}},
		WorkerCount:   4,
		WorkingMemory: 1 << 20,
	}
}

func TestConfigValidatePassesOnWellFormedConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfigValidateFailsOnMissingDelimiter(t *testing.T) {
	c := validConfig()
	c.Delimiter = ""
	assert.Error(t, c.Validate())
}

func TestConfigValidateFailsOnZeroWorkerCount(t *testing.T) {
	c := validConfig()
	c.WorkerCount = 0
	assert.Error(t, c.Validate())
}

func TestConfigValidateFailsOnColumnMissingElementType(t *testing.T) {
	c := validConfig()
	c.Columns = []ColumnSelection{{Name: "id"}}
	assert.Error(t, c.Validate())
}

func TestConfigEqualDetectsIdenticalConfig(t *testing.T) {
	a := validConfig()
	b := validConfig()
	assert.True(t, a.Equal(b))
}

func TestConfigEqualDetectsDivergentConfig(t *testing.T) {
	a := validConfig()
	b := validConfig()
	b.Delimiter = ";"
	assert.False(t, a.Equal(b))
}
