package configcenter

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/database"
	wErrors "github.com/ruslan-ilesik/games-bot-sub000/pkg/util/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ database.Config = (ConfigCenter)(nil)

func writeFile(t *testing.T, dir, name, content string) string {
	p := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(p, []byte(content), 0644))
	return p
}

func TestFileConfigCenter_Dir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "00-mysql.yaml", "mysql_ip: 127.0.0.1\nmysql_user: bot\nmysql_connections_amount: \"2\"\n")
	writeFile(t, dir, "10-override.yml", "mysql_connections_amount: \"8\"\n")
	writeFile(t, dir, "README.md", "not: yaml")

	cc, err := CreateConfigCenter(config.ConfigCenter{
		Type:       ConfigCenterTypeFile,
		ConfigFile: config.ConfigFile{Path: dir},
	})
	require.NoError(t, err)
	defer cc.Close()

	v, err := cc.GetValue(database.KeyMySQLIP)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", v)
	assert.Equal(t, "8", cc.GetValueOr(database.KeyMySQLConnectionsAmount, "2"))
	assert.Equal(t, "30s", cc.GetValueOr(database.KeyMySQLClaimTimeout, "30s"))

	_, err = cc.GetValue(database.KeyMySQLPassword)
	assert.True(t, wErrors.Is(err, ErrValueNotFound))
	assert.Contains(t, err.Error(), database.KeyMySQLPassword)
}

func TestFileConfigCenter_SingleFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "db.yaml", "mysql_db_name: games\n")

	cc, err := CreateFileConfigCenter(p)
	require.NoError(t, err)
	v, err := cc.GetValue(database.KeyMySQLDBName)
	require.NoError(t, err)
	assert.Equal(t, "games", v)
}

func TestFileConfigCenter_Errors(t *testing.T) {
	_, err := CreateFileConfigCenter(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	p := writeFile(t, t.TempDir(), "bad.yaml", "mysql_ip: [unclosed\n")
	_, err = CreateFileConfigCenter(p)
	assert.Error(t, err)

	_, err = CreateConfigCenter(config.ConfigCenter{Type: "zookeeper"})
	assert.Error(t, err)
}
