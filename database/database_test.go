package database_test

import (
	"context"
	"testing"

	"github.com/gocrud/mvc/database"
	"github.com/gocrud/mvc/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name string
}

type UserRepository struct {
	Master *gorm.DB `di:"database:master"`
	Slave  *gorm.DB `di:"database:slave,?"`
}

func memory(name string) gorm.Dialector {
	return sqlite.Open("file:" + name + "?mode=memory&cache=shared")
}

func TestRegisterNamedDatabases(t *testing.T) {
	c := di.NewContainer()
	factory, err := database.NewBuilder().
		Add("master", memory("master"), func(o *database.Options) {
			o.AutoMigrate = []any{&User{}}
		}).
		Register(c, nil)
	require.NoError(t, err)
	defer factory.Close()

	// 只配置了一个数据库时它也是默认数据库
	assert.True(t, c.Has(di.TypeOf[*gorm.DB]()))

	repo, err := di.Resolve[*UserRepository](c)
	require.NoError(t, err)
	require.NotNil(t, repo.Master)
	assert.Nil(t, repo.Slave)

	require.NoError(t, repo.Master.Create(&User{Name: "alice"}).Error)

	db, err := di.Resolve[*gorm.DB](c)
	require.NoError(t, err)
	assert.Same(t, repo.Master, db)

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDefaultDatabaseIsPrimary(t *testing.T) {
	c := di.NewContainer()
	factory, err := database.NewBuilder().
		Add("reports", memory("reports"), nil).
		Add(database.DefaultName, memory("primary"), nil).
		Register(c, nil)
	require.NoError(t, err)
	defer factory.Close()

	assert.Equal(t, []string{"default", "reports"}, factory.Names())

	primary, err := di.Resolve[*gorm.DB](c)
	require.NoError(t, err)
	named, err := di.ResolveNamed[*gorm.DB](c, database.Token("default"))
	require.NoError(t, err)
	assert.Same(t, named, primary)

	reports, err := di.ResolveNamed[*gorm.DB](c, database.Token("reports"))
	require.NoError(t, err)
	assert.NotSame(t, primary, reports)

	registered, err := di.Resolve[*database.Factory](c)
	require.NoError(t, err)
	assert.Same(t, factory, registered)
}

func TestNoPrimaryWithSeveralNamedDatabases(t *testing.T) {
	c := di.NewContainer()
	_, err := database.NewBuilder().
		Add("a", memory("a"), nil).
		Add("b", memory("b"), nil).
		Register(c, nil)
	require.NoError(t, err)
	assert.False(t, c.Has(di.TypeOf[*gorm.DB]()))
}

func TestBuilderErrors(t *testing.T) {
	_, err := database.NewBuilder().
		Add("", memory("x"), nil).
		Add("nil-dialector", nil, nil).
		Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialector")

	_, err = database.NewBuilder().
		Add("dup", memory("dup"), nil).
		Add("dup", memory("dup"), nil).
		Build(nil)
	assert.Error(t, err)
}

func TestFactoryStopClosesConnections(t *testing.T) {
	factory, err := database.NewBuilder().Add("closing", memory("closing"), nil).Build(nil)
	require.NoError(t, err)

	db, err := factory.Get("closing")
	require.NoError(t, err)
	require.NoError(t, factory.Stop(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())

	_, err = factory.Get("missing")
	assert.Error(t, err)
}
