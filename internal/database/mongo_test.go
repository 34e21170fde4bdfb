package repository

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScanFlow/internal/config"
)

func TestNewMongoClient(t *testing.T) {
	lg := slogt.New(t)

	var conf config.Config
	db, err := NewMongoClient(&conf, lg)
	require.NoError(t, err)
	assert.Nil(t, db, "disabled store")

	conf.Mongo.Enabled = true
	_, err = NewMongoClient(&conf, lg)
	assert.Error(t, err, "empty database name")

	conf.Mongo.Host = "127.0.0.1"
	conf.Mongo.Port = "27017"
	conf.Mongo.Database = "scanflow"
	conf.Mongo.User = "scanner"
	db, err = NewMongoClient(&conf, lg)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, "scanflow", db.database)
	require.NotNil(t, db.clientOptions.Auth)
	assert.Equal(t, "scanflow", db.clientOptions.Auth.AuthSource)
}
