package store

import (
	"fmt"
	"macrotrack-go-worker/database"
	"macrotrack-go-worker/utils"
)

// New picks the store named by database.client: "memory" or a gorm dialect.
func New() (Store, error) {
	switch utils.EnvConfig.Database.Client {
	case "memory":
		return NewMemoryStore(), nil
	case "mysql":
		if err := database.InitDatabasePool(); err != nil {
			return nil, err
		}
		return NewMysqlStore(database.Mysql), nil
	default:
		return nil, fmt.Errorf("unsupported database client %q", utils.EnvConfig.Database.Client)
	}
}
