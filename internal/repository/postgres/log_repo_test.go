package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourorg/testnet-trader/internal/domain"
)

func TestLevelsAtOrAbove(t *testing.T) {
	assert.Equal(t, []string{"INFO", "WARN", "ERROR"}, levelsAtOrAbove(""))
	assert.Equal(t, []string{"INFO", "WARN", "ERROR"}, levelsAtOrAbove(domain.LevelInfo))
	assert.Equal(t, []string{"WARN", "ERROR"}, levelsAtOrAbove(domain.LevelWarn))
	assert.Equal(t, []string{"ERROR"}, levelsAtOrAbove(domain.LevelError))
}

func TestMigrateDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/trader", migrateDSN("postgresql://u:p@db:5432/trader"))
	assert.Equal(t, "postgres://u:p@db:5432/trader", migrateDSN("postgres://u:p@db:5432/trader"))
}
