package database_test

import (
	"testing"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/configure/database"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name string
}

type MockDBService struct {
	Master *gorm.DB `di:"master"`
	Slave  *gorm.DB `di:"slave,?"`
}

// DBConfig 使用方定义的配置结构
type DBConfig struct {
	DSN          string `json:"dsn"`
	MaxOpenConns int    `json:"max_open_conns"`
}

func TestDatabaseConfiguration(t *testing.T) {
	builder := core.NewApplicationBuilder()

	// 内存配置源，免去测试文件
	builder.ConfigureConfiguration(func(cb *config.ConfigurationBuilder) {
		cb.AddInMemory(map[string]any{
			"db": map[string]any{
				"master": map[string]any{
					"dsn":            "file::memory:?cache=shared",
					"max_open_conns": 5,
				},
			},
		})
	})

	// 从配置节读出强类型参数，驱动数据库注册
	configurator := database.Configure(func(b *database.Builder) {
		dbConf, err := config.Load[DBConfig](b.ConfigContext().GetConfiguration(), "db.master")
		if err != nil {
			b.Add("config_error", nil, nil) // 触发 builder 错误
			return
		}

		b.Add("master", sqlite.Open(dbConf.DSN), func(o *database.DatabaseOptions) {
			o.MaxOpenConns = dbConf.MaxOpenConns
			o.AutoMigrate = []any{&User{}}
		})
	})

	builder.Configure(func(ctx *core.BuildContext) {
		configurator(ctx)
	})

	builder.Configure(func(ctx *core.BuildContext) {
		di.Provide[*MockDBService](ctx.Binder())
	})

	app := builder.Build()

	var svc *MockDBService
	app.GetService(&svc)

	if svc.Master == nil {
		t.Fatal("Master DB should not be nil")
	}

	// 连接池参数应来自配置节
	sqlDB, _ := svc.Master.DB()
	stats := sqlDB.Stats()
	if stats.MaxOpenConnections != 5 {
		t.Errorf("Expected MaxOpenConns 5, got %d", stats.MaxOpenConnections)
	}

	if err := svc.Master.Create(&User{Name: "test"}).Error; err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}
}

func TestDatabaseBuilder_Errors(t *testing.T) {
	logger := logging.NewLogger()
	// Add 与 Build 不触碰 BuildContext，传 nil 即可
	builder := database.NewBuilder(nil)

	// 方言缺失
	builder.Add("invalid", nil, nil)

	// 重名
	builder.Add("dup", sqlite.Open("a"), nil)
	builder.Add("dup", sqlite.Open("b"), nil)

	_, err := builder.Build(logger)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	t.Logf("Got expected error: %v", err)
}
