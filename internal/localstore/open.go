package localstore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/autostore-backend/pkg/config"
)

// Open selects the backend named by driver. redis and db may be nil when the
// driver does not need them.
func Open(driver string, redis redisClient, db *gorm.DB) (Store, error) {
	switch driver {
	case "", config.StorageDriverMemory:
		return NewMemory(), nil
	case config.StorageDriverRedis:
		if redis == nil {
			return nil, fmt.Errorf("storage driver %q requires a redis client", driver)
		}
		return NewRedis(redis), nil
	case config.StorageDriverSQL:
		if db == nil {
			return nil, fmt.Errorf("storage driver %q requires a database", driver)
		}
		return NewSQL(db), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
