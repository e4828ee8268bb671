package configcenter

import (
	"context"
	"errors"
	"testing"

	wErrors "github.com/ruslan-ilesik/games-bot-sub000/pkg/util/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/clientv3"
	"go.etcd.io/etcd/mvcc/mvccpb"
)

// MockKV overrides Get; the remaining clientv3.KV methods are not used.
type MockKV struct {
	clientv3.KV
	mock.Mock
}

func (m *MockKV) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	args := m.Called(key)
	resp, _ := args.Get(0).(*clientv3.GetResponse)
	return resp, args.Error(1)
}

func newTestEtcdConfigCenter(kv clientv3.KV) *EtcdConfigCenter {
	return &EtcdConfigCenter{kv: kv, basePath: "/gamesbot/database", timeout: DefaultEtcdRequestTimeout}
}

func TestEtcdConfigCenter_GetValue(t *testing.T) {
	kv := new(MockKV)
	kv.On("Get", "/gamesbot/database/mysql_ip").Return(&clientv3.GetResponse{
		Kvs: []*mvccpb.KeyValue{{Key: []byte("/gamesbot/database/mysql_ip"), Value: []byte("10.0.0.5")}},
	}, nil)
	kv.On("Get", "/gamesbot/database/mysql_password").Return(&clientv3.GetResponse{}, nil)
	cc := newTestEtcdConfigCenter(kv)

	v, err := cc.GetValue("mysql_ip")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", v)

	_, err = cc.GetValue("mysql_password")
	assert.True(t, wErrors.Is(err, ErrValueNotFound))
	kv.AssertExpectations(t)
}

func TestEtcdConfigCenter_GetValueOr(t *testing.T) {
	kv := new(MockKV)
	kv.On("Get", "/gamesbot/database/mysql_connections_amount").Return(&clientv3.GetResponse{
		Kvs: []*mvccpb.KeyValue{{Value: []byte("6")}},
	}, nil)
	kv.On("Get", "/gamesbot/database/mysql_claim_timeout").Return(nil, errors.New("etcdserver: request timed out"))
	kv.On("Get", "/gamesbot/database/mysql_db_name").Return(&clientv3.GetResponse{}, nil)
	cc := newTestEtcdConfigCenter(kv)

	assert.Equal(t, "6", cc.GetValueOr("mysql_connections_amount", "2"))
	assert.Equal(t, "30s", cc.GetValueOr("mysql_claim_timeout", "30s"))
	assert.Equal(t, "games", cc.GetValueOr("mysql_db_name", "games"))
	cc.Close()
}

func TestGetValuePath(t *testing.T) {
	assert.Equal(t, "/gamesbot/database/mysql_ip", getValuePath("/gamesbot/database", "mysql_ip"))
	assert.Equal(t, "/gamesbot/database/mysql_ip", getValuePath("/gamesbot/database/", "mysql_ip"))
}
