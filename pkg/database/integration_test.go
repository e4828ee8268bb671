//go:build integration

package database

import (
	"context"
	"os"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envConfig map[string]string

func (c envConfig) GetValue(name string) (string, error) {
	if v, ok := c[name]; ok {
		return v, nil
	}
	return "", errors.Errorf("missing value: %s", name)
}

func (c envConfig) GetValueOr(name, defaultValue string) string {
	if v, ok := c[name]; ok {
		return v
	}
	return defaultValue
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestIntegration_MySQL(t *testing.T) {
	cfg := envConfig{
		KeyMySQLIP:       getenv("MYSQL_IP", "127.0.0.1"),
		KeyMySQLUser:     getenv("MYSQL_USER", "root"),
		KeyMySQLPassword: getenv("MYSQL_PASSWORD", ""),
		KeyMySQLDBName:   getenv("MYSQL_DB_NAME", "test"),
	}
	p := NewPool(cfg, zap.NewExample())
	ctx := context.Background()
	require.NoError(t, p.Run(ctx))
	defer func() {
		require.NoError(t, p.Stop())
	}()

	_, err := p.Execute(ctx, "CREATE TABLE IF NOT EXISTS gamesdb_it (id INT PRIMARY KEY, name VARCHAR(32) NULL)").Wait()
	require.NoError(t, err)
	defer p.BackgroundExecute("DROP TABLE gamesdb_it")

	rows, err := p.Execute(ctx, "DELETE FROM gamesdb_it").Wait()
	require.NoError(t, err)
	require.True(t, rows.IsPlaceholder())

	h, err := p.CreatePreparedStatement(ctx, "INSERT INTO gamesdb_it (id, name) VALUES (?, ?)")
	require.NoError(t, err)
	_, err = p.ExecutePreparedStatement(ctx, h, 1, "alice").Wait()
	require.NoError(t, err)
	_, err = p.ExecutePreparedStatement(ctx, h, 2, nil).Wait()
	require.NoError(t, err)
	require.NoError(t, p.RemovePreparedStatement(ctx, h))

	rows, err = p.Execute(ctx, "SELECT id, name FROM gamesdb_it ORDER BY id").Wait()
	require.NoError(t, err)
	require.Equal(t, Rows{{"id": "1", "name": "alice"}, {"id": "2", "name": NullValue}}, rows)

	rows, err = p.Execute(ctx, "SELECT id FROM gamesdb_it WHERE id = 0").Wait()
	require.NoError(t, err)
	require.Len(t, rows, 0)
	require.False(t, rows.IsPlaceholder())
}
